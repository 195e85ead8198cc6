// Package raiderio talks to the raider.io aggregator. No authentication is
// required; the client contributes mythic+ score, a raid progression summary,
// gear item level, the character thumbnail, and per-boss kill counters
package raiderio

import (
	"context"
	"net/url"
	"strings"
	"time"

	"guildaudit/internal/adapters/sources"
	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
)

// Options configures the aggregator client
type Options struct {
	BaseURL string // e.g. https://raider.io
	Region  string // e.g. eu
	Timeout time.Duration
}

// Client fetches one character's aggregator view
type Client struct {
	f    *sources.Fetcher
	opts Options
}

// New constructs a Client
func New(opts Options) *Client {
	return &Client{
		f:    sources.NewFetcher("raiderio", opts.Timeout),
		opts: opts,
	}
}

const profileFields = "gear,mythic_plus_scores_by_season:current,raid_progression,raid_encounters"

type profileDoc struct {
	ThumbnailURL string `json:"thumbnail_url"`
	Gear         struct {
		ItemLevelEquipped float64 `json:"item_level_equipped"`
	} `json:"gear"`
	MythicPlusScoresBySeason []struct {
		Scores struct {
			All float64 `json:"all"`
		} `json:"scores"`
	} `json:"mythic_plus_scores_by_season"`
	RaidProgression map[string]struct {
		Summary string `json:"summary"`
	} `json:"raid_progression"`
	RaidEncounters []struct {
		Encounter  string `json:"encounter"`
		Difficulty string `json:"difficulty"` // "normal", "heroic", "mythic"
		NumKills   int    `json:"num_kills"`
	} `json:"raid_encounters"`
}

// Fetch assembles the aggregator's partial record; nil on soft failure
func (c *Client) Fetch(ctx context.Context, ch identity.Character) *merge.Partial {
	q := url.Values{
		"region": {c.opts.Region},
		"realm":  {identity.Slug(ch.Realm)},
		"name":   {strings.TrimSpace(ch.Name)},
		"fields": {profileFields},
	}

	var doc profileDoc
	if !c.f.GetJSON(ctx, c.opts.BaseURL+"/api/v1/characters/profile?"+q.Encode(), "", &doc) {
		return nil
	}

	p := &merge.Partial{Source: merge.SourceRaiderIO}
	if doc.Gear.ItemLevelEquipped > 0 {
		v := doc.Gear.ItemLevelEquipped
		p.ItemLevel = &v
	}
	if doc.ThumbnailURL != "" {
		v := doc.ThumbnailURL
		p.Thumbnail = &v
	}
	if len(doc.MythicPlusScoresBySeason) > 0 && doc.MythicPlusScoresBySeason[0].Scores.All > 0 {
		v := doc.MythicPlusScoresBySeason[0].Scores.All
		p.MythicPlusScore = &v
	}
	if summary := progressionSummary(doc); summary != "" {
		p.RaidProgression = &summary
	}
	p.Kills = counters(doc)

	return p
}

// progressionSummary joins per-zone summaries into one display string,
// e.g. "9/9 M, 9/9 H"
func progressionSummary(doc profileDoc) string {
	parts := make([]string, 0, len(doc.RaidProgression))
	for _, zone := range doc.RaidProgression {
		if zone.Summary != "" {
			parts = append(parts, zone.Summary)
		}
	}
	// map order is unstable but a single current zone is the common case
	return strings.Join(parts, ", ")
}

// counters normalizes raid_encounters into cumulative per-boss totals
func counters(doc profileDoc) progress.Counters {
	out := progress.Counters{}
	for _, e := range doc.RaidEncounters {
		if e.Encounter == "" || e.NumKills <= 0 {
			continue
		}
		k := out[e.Encounter]
		switch strings.ToLower(e.Difficulty) {
		case "normal":
			k.Normal += e.NumKills
		case "heroic":
			k.Heroic += e.NumKills
		case "mythic":
			k.Mythic += e.NumKills
		default:
			continue
		}
		out[e.Encounter] = k
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
