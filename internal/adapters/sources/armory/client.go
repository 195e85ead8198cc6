// Package armory talks to the official character profile API. It is the
// authoritative source for gear, class/spec, collections, pvp ratings,
// faction standings, and cumulative raid encounter counters
package armory

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"guildaudit/internal/adapters/sources"
	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
)

// Options configures the profile API client
type Options struct {
	BaseURL   string // e.g. https://eu.api.blizzard.com
	Namespace string // e.g. profile-eu
	Locale    string // e.g. en_GB
	Timeout   time.Duration
}

// Client fetches one character's profile view
type Client struct {
	f    *sources.Fetcher
	opts Options
}

// New constructs a Client
func New(opts Options) *Client {
	return &Client{
		f:    sources.NewFetcher("armory", opts.Timeout),
		opts: opts,
	}
}

// pvp brackets exposed on enriched records
var pvpBrackets = []string{"2v2", "3v3", "rbg"}

// Fetch assembles the profile provider's partial record. The base profile
// document is mandatory; every secondary endpoint degrades independently.
// Returns nil when the token is absent or the base profile cannot be read
func (c *Client) Fetch(ctx context.Context, ch identity.Character, token string) *merge.Partial {
	if token == "" {
		return nil
	}

	var prof profileDoc
	if !c.f.GetJSON(ctx, c.url(ch, ""), token, &prof) {
		return nil
	}

	p := &merge.Partial{Source: merge.SourceArmory}
	if prof.AverageItemLevel > 0 {
		v := prof.AverageItemLevel
		p.ItemLevel = &v
	}
	if prof.CharacterClass.Name != "" {
		v := prof.CharacterClass.Name
		p.Class = &v
	}
	if prof.ActiveSpec.Name != "" {
		v := prof.ActiveSpec.Name
		p.Spec = &v
	}

	var media mediaDoc
	if c.f.GetJSON(ctx, c.url(ch, "/character-media"), token, &media) {
		for _, a := range media.Assets {
			if a.Key == "avatar" && a.Value != "" {
				v := a.Value
				p.Thumbnail = &v
				break
			}
		}
	}

	var mounts mountsDoc
	if c.f.GetJSON(ctx, c.url(ch, "/collections/mounts"), token, &mounts) {
		n := len(mounts.Mounts)
		p.Mounts = &n
	}
	var pets petsDoc
	if c.f.GetJSON(ctx, c.url(ch, "/collections/pets"), token, &pets) {
		n := len(pets.Pets)
		p.Pets = &n
	}

	for _, bracket := range pvpBrackets {
		var b bracketDoc
		if c.f.GetJSON(ctx, c.url(ch, "/pvp-bracket/"+bracket), token, &b) && b.Rating > 0 {
			if p.PvPRatings == nil {
				p.PvPRatings = map[string]int{}
			}
			p.PvPRatings[bracket] = b.Rating
		}
	}

	var reps reputationsDoc
	if c.f.GetJSON(ctx, c.url(ch, "/reputations"), token, &reps) {
		for _, r := range reps.Reputations {
			p.Reputations = append(p.Reputations, merge.Reputation{
				Faction:  r.Faction.Name,
				Standing: r.Standing.Name,
				Value:    r.Standing.Value,
				Max:      r.Standing.Max,
			})
		}
	}

	var enc encountersDoc
	if c.f.GetJSON(ctx, c.url(ch, "/encounters/raids"), token, &enc) {
		p.Kills = counters(enc)
	}

	return p
}

// counters flattens the encounters document into per-boss cumulative totals.
// Only the three tracked difficulties contribute; others (LFR etc.) are ignored
func counters(doc encountersDoc) progress.Counters {
	out := progress.Counters{}
	for _, exp := range doc.Expansions {
		for _, inst := range exp.Instances {
			for _, mode := range inst.Modes {
				for _, e := range mode.Progress.Encounters {
					k := out[e.Encounter.Name]
					switch mode.Difficulty.Type {
					case "NORMAL":
						k.Normal += e.CompletedCount
					case "HEROIC":
						k.Heroic += e.CompletedCount
					case "MYTHIC":
						k.Mythic += e.CompletedCount
					default:
						continue
					}
					out[e.Encounter.Name] = k
				}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// url builds a profile endpoint path plus the namespace/locale query
func (c *Client) url(ch identity.Character, suffix string) string {
	q := url.Values{}
	if c.opts.Namespace != "" {
		q.Set("namespace", c.opts.Namespace)
	}
	if c.opts.Locale != "" {
		q.Set("locale", c.opts.Locale)
	}
	return fmt.Sprintf("%s/profile/wow/character/%s/%s%s?%s",
		c.opts.BaseURL,
		url.PathEscape(identity.Slug(ch.Realm)),
		url.PathEscape(identity.Slug(ch.Name)),
		suffix,
		q.Encode(),
	)
}
