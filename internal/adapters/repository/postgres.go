package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/crease/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	match_id   TEXT        NOT NULL,
	player_id  TEXT        NOT NULL,
	team       TEXT        NOT NULL DEFAULT '',
	data       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (match_id, player_id)
);
CREATE INDEX IF NOT EXISTS scores_player_idx ON scores (player_id);
`

// PostgresStore keeps records in a single scores table with a JSONB payload.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the scores table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: schema: %v", ErrStoreFailed, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Get(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scores WHERE match_id = $1 AND player_id = $2`, matchID, playerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreRecord{}, ErrNotFound
	}
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: get: %v", ErrStoreFailed, err)
	}
	var rec model.ScoreRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: decode: %v", ErrStoreFailed, err)
	}
	return rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec model.ScoreRecord) error {
	if rec.MatchID == "" || rec.PlayerID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, rec.Key())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStoreFailed, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (match_id, player_id, team, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, player_id)
		DO UPDATE SET team = EXCLUDED.team, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		rec.MatchID, rec.PlayerID, rec.Team, data, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: put: %v", ErrStoreFailed, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, matchID, playerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scores WHERE match_id = $1 AND player_id = $2`, matchID, playerID)
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreFailed, err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Scan(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM scores
		WHERE ($1 = '' OR match_id = $1)
		  AND ($2 = '' OR player_id = $2)
		  AND ($3 = '' OR lower(team) = lower($3))`,
		filter.MatchID, filter.PlayerID, filter.Team)
	if err != nil {
		return nil, fmt.Errorf("%w: scan: %v", ErrStoreFailed, err)
	}
	defer rows.Close()

	out := make([]model.ScoreRecord, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", ErrStoreFailed, err)
		}
		var rec model.ScoreRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrStoreFailed, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan rows: %v", ErrStoreFailed, err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreFailed, err)
	}
	return n, nil
}
