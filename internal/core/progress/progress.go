// Package progress derives week-scoped raid progress from cumulative lifetime
// kill counters. Providers only expose lifetime totals; "new since the weekly
// reset" falls out of diffing the current totals against a baseline snapshot
// taken at (or after) the most recent reset boundary
package progress

import (
	"sort"
	"time"
)

// Encounter journal difficulty ids
const (
	DifficultyNormalID = 14
	DifficultyHeroicID = 15
	DifficultyMythicID = 16
)

// Difficulty labels as stored on weekly kill details
const (
	DifficultyNormal = "Normal"
	DifficultyHeroic = "Heroic"
	DifficultyMythic = "Mythic"
)

// DifficultyID maps a label to its journal id, 0 when unknown
func DifficultyID(label string) int {
	switch label {
	case DifficultyNormal:
		return DifficultyNormalID
	case DifficultyHeroic:
		return DifficultyHeroicID
	case DifficultyMythic:
		return DifficultyMythicID
	}
	return 0
}

// DifficultyRank orders labels for highest-difficulty selection, higher wins
func DifficultyRank(label string) int {
	switch label {
	case DifficultyMythic:
		return 3
	case DifficultyHeroic:
		return 2
	case DifficultyNormal:
		return 1
	}
	return 0
}

// KillCounts holds cumulative lifetime kill totals per difficulty for one boss.
// Monotonically non-decreasing under normal operation; a provider regression
// (decrease) is tolerated and diffed as zero
type KillCounts struct {
	Normal int `json:"normal"`
	Heroic int `json:"heroic"`
	Mythic int `json:"mythic"`
}

// IsZero reports whether no difficulty has any kills
func (k KillCounts) IsZero() bool { return k.Normal == 0 && k.Heroic == 0 && k.Mythic == 0 }

// Counters maps boss name to lifetime kill counts
type Counters map[string]KillCounts

// Clone returns a deep copy so baselines never alias live counter maps
func (c Counters) Clone() Counters {
	if c == nil {
		return nil
	}
	out := make(Counters, len(c))
	for boss, k := range c {
		out[boss] = k
	}
	return out
}

// Baseline is the persisted cumulative-counter snapshot for one reset window.
// Replaced wholesale whenever ResetAt differs from the current window
type Baseline struct {
	ResetAt time.Time `json:"reset_at"`
	Bosses  Counters  `json:"bosses"`
}

// KillDetail is one boss newly killed since the baseline was taken, credited
// at the highest difficulty cleared this week
type KillDetail struct {
	Boss         string `json:"boss"`
	Difficulty   string `json:"difficulty"`
	DifficultyID int    `json:"difficulty_id"`
}

// Result is the outcome of one diff pass
type Result struct {
	WeeklyCount int
	Details     []KillDetail
	NewBaseline *Baseline
}

// Diff computes what changed since the last reset.
//
// Rules:
//   - empty current counters: zero result, nil baseline (nothing to floor against)
//   - absent prior baseline, or prior taken under a different reset instant:
//     the first observation after a reset establishes the floor; zero kills
//     reported, fresh baseline snapshotted from current
//   - otherwise each boss contributes at most one detail entry, at the highest
//     difficulty with a positive delta; negative deltas count as zero
//
// The new baseline always carries the full current counters so the next pass
// has a complete floor
func Diff(current Counters, prior *Baseline, resetAt time.Time) Result {
	if len(current) == 0 {
		return Result{}
	}

	if prior == nil || !prior.ResetAt.Equal(resetAt) {
		return Result{
			NewBaseline: &Baseline{ResetAt: resetAt, Bosses: current.Clone()},
		}
	}

	var details []KillDetail
	for boss, cur := range current {
		base := prior.Bosses[boss] // zero value when the boss is new this week
		if d, ok := highestPositiveDelta(cur, base); ok {
			details = append(details, KillDetail{
				Boss:         boss,
				Difficulty:   d,
				DifficultyID: DifficultyID(d),
			})
		}
	}

	// deterministic output for reproducible diffs in tests and storage
	sort.Slice(details, func(i, j int) bool { return details[i].Boss < details[j].Boss })

	return Result{
		WeeklyCount: len(details),
		Details:     details,
		NewBaseline: &Baseline{ResetAt: resetAt, Bosses: current.Clone()},
	}
}

// highestPositiveDelta returns the highest difficulty whose cumulative count
// grew, mythic > heroic > normal. Decreases are floored to zero
func highestPositiveDelta(cur, base KillCounts) (string, bool) {
	if cur.Mythic-base.Mythic > 0 {
		return DifficultyMythic, true
	}
	if cur.Heroic-base.Heroic > 0 {
		return DifficultyHeroic, true
	}
	if cur.Normal-base.Normal > 0 {
		return DifficultyNormal, true
	}
	return "", false
}
