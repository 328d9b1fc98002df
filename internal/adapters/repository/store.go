// Package repository holds the cross-session leaderboard of session bests.
package repository

import (
	"context"

	"github.com/okian/enso/internal/domain/model"
	"github.com/okian/enso/internal/domain/types"
)

// Store provides read/write access to the leaderboard.
type Store interface {
	// UpdateBest records pub.Score for pub.SessionID if it beats the stored
	// best. Returns true if the leaderboard changed.
	UpdateBest(ctx context.Context, pub model.Publication) (bool, error)

	// Rank returns the rank entry of a session. Returns ErrNotFound if the
	// session never published a score.
	Rank(ctx context.Context, sessionID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of sessions on the leaderboard.
	Count(ctx context.Context) int
}
