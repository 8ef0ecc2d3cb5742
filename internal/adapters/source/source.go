// Package source fetches live scorecards from an upstream cricket data provider.
package source

import (
	"context"
	"errors"

	"github.com/okian/crease/internal/domain/model"
)

// Sentinel kinds for source errors.
var (
	ErrMatchNotFound = errors.New("match not found")
	ErrUpstream      = errors.New("upstream request failed")
)

// Source provides live match data.
type Source interface {
	// FetchScorecard returns the current scorecard, commentary included.
	FetchScorecard(ctx context.Context, matchID string) (model.Scorecard, error)
	// ListMatches returns the matches currently live.
	ListMatches(ctx context.Context) ([]model.Match, error)
}
