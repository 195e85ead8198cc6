package domain

import (
	"context"

	"guildaudit/internal/core/identity"
)

// RosterPort manages tracked characters
type RosterPort interface {
	Add(ctx context.Context, ch identity.Character, note string) (StoredCharacter, error)
	Get(ctx context.Context, ch identity.Character) (StoredCharacter, error)
	List(ctx context.Context) ([]StoredCharacter, error)
	Remove(ctx context.Context, ch identity.Character) error
}

// SyncerPort runs audit passes over the roster
type SyncerPort interface {
	RunPass(ctx context.Context, opts PassOptions) (SyncSummary, error)
}
