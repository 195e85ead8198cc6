// Package wclogs talks to the combat log analytics provider. It contributes
// performance averages and an independent weekly kill list derived from the
// character's uploaded reports since the most recent reset boundary
package wclogs

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"guildaudit/internal/adapters/sources"
	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
	"guildaudit/internal/core/reset"
)

// Options configures the log analytics client
type Options struct {
	BaseURL string
	Window  reset.Window
	// ZoneID restricts the weekly derivation to one raid zone; 0 disables
	// the filter
	ZoneID  int
	Timeout time.Duration
}

// Client fetches one character's log analytics view
type Client struct {
	f    *sources.Fetcher
	opts Options
	now  func() time.Time
}

// New constructs a Client
func New(opts Options) *Client {
	return &Client{
		f:    sources.NewFetcher("wclogs", opts.Timeout),
		opts: opts,
		now:  time.Now,
	}
}

type rankingsDoc struct {
	BestPerformanceAverage   float64 `json:"bestPerformanceAverage"`
	MedianPerformanceAverage float64 `json:"medianPerformanceAverage"`
}

type reportDoc struct {
	Code      string `json:"code"`
	StartTime int64  `json:"startTime"` // unix millis
	ZoneID    int    `json:"zoneID"`
}

type fightsDoc struct {
	Fights []struct {
		Name       string `json:"name"`
		Difficulty int    `json:"difficulty"`
		Kill       bool   `json:"kill"`
	} `json:"fights"`
}

// provider raid difficulty ids
const (
	fightNormal = 3
	fightHeroic = 4
	fightMythic = 5
)

// Fetch assembles the analytics partial. Rankings and the weekly derivation
// degrade independently; nil only when the token is absent or both fail
func (c *Client) Fetch(ctx context.Context, ch identity.Character, token string) *merge.Partial {
	if token == "" {
		return nil
	}

	p := &merge.Partial{Source: merge.SourceWCLogs}
	ok := false

	var ranks rankingsDoc
	if c.f.GetJSON(ctx, c.characterURL(ch, "/rankings"), token, &ranks) {
		ok = true
		if ranks.BestPerformanceAverage > 0 {
			v := ranks.BestPerformanceAverage
			p.BestPerfAvg = &v
		}
		if ranks.MedianPerformanceAverage > 0 {
			v := ranks.MedianPerformanceAverage
			p.MedianPerfAvg = &v
		}
	}

	if kills, derived := c.weeklyKills(ctx, ch, token); derived {
		ok = true
		p.WeeklyKills = kills
	}

	if !ok {
		return nil
	}
	return p
}

// weeklyKills walks reports uploaded since the reset boundary and collects
// completed kills, one entry per encounter at the highest difficulty seen.
// The boolean is false when the report listing itself could not be fetched
func (c *Client) weeklyKills(ctx context.Context, ch identity.Character, token string) ([]progress.KillDetail, bool) {
	var reports []reportDoc
	if !c.f.GetJSON(ctx, c.characterURL(ch, "/reports"), token, &reports) {
		return nil, false
	}

	boundary := c.opts.Window.Boundary(c.now()).UnixMilli()
	best := map[string]string{} // encounter -> highest difficulty label

	for _, r := range reports {
		if r.StartTime < boundary {
			continue
		}
		if c.opts.ZoneID != 0 && r.ZoneID != c.opts.ZoneID {
			continue
		}

		var doc fightsDoc
		if !c.f.GetJSON(ctx, fmt.Sprintf("%s/v1/report/%s/fights", c.opts.BaseURL, url.PathEscape(r.Code)), token, &doc) {
			continue // one unreadable report does not sink the pass
		}
		for _, f := range doc.Fights {
			if !f.Kill {
				continue
			}
			label := difficultyLabel(f.Difficulty)
			if label == "" {
				continue
			}
			if progress.DifficultyRank(label) > progress.DifficultyRank(best[f.Name]) {
				best[f.Name] = label
			}
		}
	}

	details := make([]progress.KillDetail, 0, len(best))
	for boss, label := range best {
		details = append(details, progress.KillDetail{
			Boss:         boss,
			Difficulty:   label,
			DifficultyID: progress.DifficultyID(label),
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Boss < details[j].Boss })
	return details, true
}

func difficultyLabel(id int) string {
	switch id {
	case fightNormal:
		return progress.DifficultyNormal
	case fightHeroic:
		return progress.DifficultyHeroic
	case fightMythic:
		return progress.DifficultyMythic
	}
	return ""
}

func (c *Client) characterURL(ch identity.Character, suffix string) string {
	return fmt.Sprintf("%s/v1/character/%s/%s%s",
		c.opts.BaseURL,
		url.PathEscape(identity.Slug(ch.Realm)),
		url.PathEscape(identity.Slug(ch.Name)),
		suffix,
	)
}
