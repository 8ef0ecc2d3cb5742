// Package repository defines the score store interface and its backends.
package repository

import (
	"context"

	"github.com/okian/crease/internal/domain/model"
)

// Store persists score records keyed by (matchID, playerID).
// Implementations return copies; callers never share memory with the store.
type Store interface {
	// Get returns the record, or ErrNotFound.
	Get(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error)
	// Put creates or replaces the record.
	Put(ctx context.Context, rec model.ScoreRecord) error
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, matchID, playerID string) (bool, error)
	// Scan returns every record matching filter, in no particular order.
	Scan(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
