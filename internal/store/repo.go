package store

import (
	"context"
	"time"

	"github.com/abhisek/smartroom/internal/gamestate"
	"github.com/abhisek/smartroom/internal/mode"
)

// Metadata describes a save without its payload.
type Metadata struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Mode          mode.Mode `json:"mode"`
	FormatVersion string    `json:"format_version"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveRepo persists game state snapshots.
type SaveRepo interface {
	// Save stores gs under a new ID.
	Save(ctx context.Context, gs gamestate.GameState, label string) (Metadata, error)

	// Load returns the state stored under id, or ErrNotFound.
	Load(ctx context.Context, id string) (gamestate.GameState, Metadata, error)

	// List returns every save, newest first.
	List(ctx context.Context) ([]Metadata, error)

	// Delete removes one save, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Prune deletes all but the keep most recent saves and returns how many
	// were removed.
	Prune(ctx context.Context, keep int) (int, error)
}
