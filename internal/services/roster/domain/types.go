// Package domain defines the roster vocabulary shared by the repo, service,
// and HTTP layers
package domain

import (
	"time"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/core/merge"
	"guildaudit/internal/core/progress"
)

// StoredCharacter is one tracked roster member as persisted
type StoredCharacter struct {
	identity.Character

	// Key is the canonical "realm/name" storage key
	Key string `json:"key"`

	// Note is free-form operator text ("main", "officer alt", ...)
	Note string `json:"note,omitempty"`

	AddedAt      time.Time  `json:"added_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	Enriched *Enriched          `json:"enriched,omitempty"`
	Baseline *progress.Baseline `json:"-"`
}

// Enriched is the reconciled multi-source view persisted after a sync pass
type Enriched struct {
	ItemLevel       *float64           `json:"item_level,omitempty"`
	Class           *string            `json:"class,omitempty"`
	Spec            *string            `json:"spec,omitempty"`
	Thumbnail       *string            `json:"thumbnail,omitempty"`
	Mounts          *int               `json:"mounts,omitempty"`
	Pets            *int               `json:"pets,omitempty"`
	PvPRatings      map[string]int     `json:"pvp_ratings,omitempty"`
	Reputations     []merge.Reputation `json:"reputations,omitempty"`
	MythicPlusScore *float64           `json:"mythic_plus_score,omitempty"`
	RaidProgression *string            `json:"raid_progression,omitempty"`
	BestPerfAvg     *float64           `json:"best_perf_avg,omitempty"`
	MedianPerfAvg   *float64           `json:"median_perf_avg,omitempty"`

	WeeklyKillCount int                   `json:"weekly_kill_count"`
	WeeklyKills     []progress.KillDetail `json:"weekly_kills,omitempty"`

	// Sources that contributed this pass
	Sources  []string  `json:"sources,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

// PassOptions tunes one sync pass
type PassOptions struct {
	// Limit caps how many due characters are picked up; 0 means no cap
	Limit int
	// Force syncs every character regardless of staleness
	Force bool
	// DryRun fetches and merges but skips persistence
	DryRun bool
}

// SyncSummary reports the outcome of one pass
type SyncSummary struct {
	RunID    string        `json:"run_id"`
	Total    int           `json:"total"`
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// SyncOutcome is the per-character result inside a pass
type SyncOutcome struct {
	Character identity.Character
	Enriched  *Enriched
	Baseline  *progress.Baseline
	Err       error
}
