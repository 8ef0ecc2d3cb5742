package service

import (
	"context"
	"fmt"

	"github.com/okian/crease/internal/domain/ledger"
	"github.com/okian/crease/internal/domain/model"
)

// UpsertScore creates or merges a score record.
func (s *Service) UpsertScore(ctx context.Context, matchID, playerID string, fields model.ScoreFields) (model.ScoreRecord, error) {
	if matchID == "" || playerID == "" {
		return model.ScoreRecord{}, fmt.Errorf("%w: matchId and playerId are required", ErrInvalidInput)
	}
	if name, ok := fields.Negative(); ok {
		return model.ScoreRecord{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return s.ledger.Upsert(ctx, matchID, playerID, fields)
}

// UpdateScore merges fields into an existing record; ledger.ErrNotFound when absent.
func (s *Service) UpdateScore(ctx context.Context, matchID, playerID string, fields model.ScoreFields) (model.ScoreRecord, error) {
	if name, ok := fields.Negative(); ok {
		return model.ScoreRecord{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return s.ledger.Upsert(ctx, matchID, playerID, fields, ledger.MustExist())
}

// GetScore returns one record or ledger.ErrNotFound.
func (s *Service) GetScore(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error) {
	return s.ledger.Get(ctx, matchID, playerID)
}

// QueryScores returns the records matching filter.
func (s *Service) QueryScores(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	return s.ledger.Query(ctx, filter)
}

// RemoveScore deletes a record and reports whether it existed.
func (s *Service) RemoveScore(ctx context.Context, matchID, playerID string) (bool, error) {
	return s.ledger.Remove(ctx, matchID, playerID)
}

// Scorecard reads matchID's scorecard from the source.
func (s *Service) Scorecard(ctx context.Context, matchID string) (model.Scorecard, error) {
	return s.source.FetchScorecard(ctx, matchID)
}

// Matches lists live matches from the source.
func (s *Service) Matches(ctx context.Context) ([]model.Match, error) {
	return s.source.ListMatches(ctx)
}
