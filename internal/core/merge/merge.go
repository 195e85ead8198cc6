// Package merge reconciles overlapping character facts reported by multiple
// independent providers into one authoritative view.
//
// Reconciliation rules, per field group:
//   - cumulative kill counters: per boss, per difficulty, maximum across
//     sources (a kill logged by one source and missed by another is a kill)
//   - scalar facts: first value in precedence order wins; the previously
//     persisted value backstops the chain so a known fact is never overwritten
//     by an absence
//   - weekly kill-detail lists from independent derivations: the longer list
//     wins. Under-reporting is more likely than over-reporting here, so this
//     is a deliberate heuristic, not a correctness proof
package merge

import (
	"guildaudit/internal/core/progress"
)

// Source tags identify which provider contributed a partial record
const (
	SourceArmory   = "armory"
	SourceRaiderIO = "raiderio"
	SourceWCLogs   = "wclogs"
)

// Reputation is one faction standing
type Reputation struct {
	Faction  string `json:"faction"`
	Standing string `json:"standing"`
	Value    int    `json:"value"`
	Max      int    `json:"max"`
}

// Partial is the shared partial-record vocabulary every source client
// normalizes into. Every field is optional; a nil field means the provider
// did not report it this pass
type Partial struct {
	Source string

	// gear / profile
	ItemLevel *float64
	Class     *string
	Spec      *string
	Thumbnail *string

	// collections
	Mounts *int
	Pets   *int

	// pvp bracket -> rating, e.g. "2v2" -> 1804
	PvPRatings map[string]int

	// faction standings
	Reputations []Reputation

	// aggregator facts
	MythicPlusScore *float64
	RaidProgression *string

	// log analytics facts
	BestPerfAvg   *float64
	MedianPerfAvg *float64

	// cumulative lifetime kill counters
	Kills progress.Counters

	// weekly kills derived from activity logs (already reset-scoped)
	WeeklyKills []progress.KillDetail
}

// Merged is the reconciled view handed to persistence
type Merged struct {
	ItemLevel       *float64
	Class           *string
	Spec            *string
	Thumbnail       *string
	Mounts          *int
	Pets            *int
	PvPRatings      map[string]int
	Reputations     []Reputation
	MythicPlusScore *float64
	RaidProgression *string
	BestPerfAvg     *float64
	MedianPerfAvg   *float64

	// per-boss max across all sources
	Kills progress.Counters

	// log-derived weekly kills, passed through for the caller to weigh
	// against the counter-diff derivation
	WeeklyKills []progress.KillDetail
}

// Prior carries the previously persisted scalar facts used as the coalesce
// backstop. Zero value means no prior state
type Prior struct {
	ItemLevel       *float64
	Class           *string
	Spec            *string
	Thumbnail       *string
	Mounts          *int
	Pets            *int
	PvPRatings      map[string]int
	Reputations     []Reputation
	MythicPlusScore *float64
	RaidProgression *string
	BestPerfAvg     *float64
	MedianPerfAvg   *float64
}

// Coalesce returns the first non-nil value in priority order
func Coalesce[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// MaxCounters folds per-source counters into per-boss per-difficulty maxima
func MaxCounters(sets ...progress.Counters) progress.Counters {
	out := progress.Counters{}
	for _, set := range sets {
		for boss, k := range set {
			cur := out[boss]
			if k.Normal > cur.Normal {
				cur.Normal = k.Normal
			}
			if k.Heroic > cur.Heroic {
				cur.Heroic = k.Heroic
			}
			if k.Mythic > cur.Mythic {
				cur.Mythic = k.Mythic
			}
			out[boss] = cur
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PreferLonger picks the list with more entries; ties keep the first
func PreferLonger(a, b []progress.KillDetail) []progress.KillDetail {
	if len(b) > len(a) {
		return b
	}
	return a
}

// Records merges the per-source partials in precedence order (earlier wins on
// scalar conflicts) with prior persisted state as the last resort
func Records(prior Prior, parts ...*Partial) Merged {
	// drop soft-failed sources up front
	present := make([]*Partial, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			present = append(present, p)
		}
	}

	var m Merged

	m.ItemLevel = coalesceFrom(present, prior.ItemLevel, func(p *Partial) *float64 { return p.ItemLevel })
	m.Class = coalesceFrom(present, prior.Class, func(p *Partial) *string { return p.Class })
	m.Spec = coalesceFrom(present, prior.Spec, func(p *Partial) *string { return p.Spec })
	m.Thumbnail = coalesceFrom(present, prior.Thumbnail, func(p *Partial) *string { return p.Thumbnail })
	m.Mounts = coalesceFrom(present, prior.Mounts, func(p *Partial) *int { return p.Mounts })
	m.Pets = coalesceFrom(present, prior.Pets, func(p *Partial) *int { return p.Pets })
	m.MythicPlusScore = coalesceFrom(present, prior.MythicPlusScore, func(p *Partial) *float64 { return p.MythicPlusScore })
	m.RaidProgression = coalesceFrom(present, prior.RaidProgression, func(p *Partial) *string { return p.RaidProgression })
	m.BestPerfAvg = coalesceFrom(present, prior.BestPerfAvg, func(p *Partial) *float64 { return p.BestPerfAvg })
	m.MedianPerfAvg = coalesceFrom(present, prior.MedianPerfAvg, func(p *Partial) *float64 { return p.MedianPerfAvg })

	for _, p := range present {
		if len(p.PvPRatings) > 0 && m.PvPRatings == nil {
			m.PvPRatings = p.PvPRatings
		}
		if len(p.Reputations) > 0 && m.Reputations == nil {
			m.Reputations = p.Reputations
		}
		m.WeeklyKills = PreferLonger(m.WeeklyKills, p.WeeklyKills)
	}
	if m.PvPRatings == nil {
		m.PvPRatings = prior.PvPRatings
	}
	if m.Reputations == nil {
		m.Reputations = prior.Reputations
	}

	counterSets := make([]progress.Counters, 0, len(present))
	for _, p := range present {
		counterSets = append(counterSets, p.Kills)
	}
	m.Kills = MaxCounters(counterSets...)

	return m
}

// coalesceFrom walks partials in precedence order then falls back to prior
func coalesceFrom[T any](parts []*Partial, prior *T, get func(*Partial) *T) *T {
	for _, p := range parts {
		if v := get(p); v != nil {
			return v
		}
	}
	return prior
}
