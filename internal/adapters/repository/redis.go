package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/crease/internal/domain/model"
)

// RedisStore keeps each record as a JSON string plus set indexes:
//
//	{prefix}:score:{len(match)}:{match}:{player}  JSON record
//	{prefix}:match:{match}           set of player ids
//	{prefix}:matches                 set of match ids
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "crease"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) scoreKey(matchID, playerID string) string {
	return fmt.Sprintf("%s:score:%d:%s:%s", s.prefix, len(matchID), matchID, playerID)
}

func (s *RedisStore) matchKey(matchID string) string {
	return fmt.Sprintf("%s:match:%s", s.prefix, matchID)
}

func (s *RedisStore) matchesKey() string {
	return s.prefix + ":matches"
}

func (s *RedisStore) Get(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error) {
	raw, err := s.client.Get(ctx, s.scoreKey(matchID, playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
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

func (s *RedisStore) Put(ctx context.Context, rec model.ScoreRecord) error {
	if rec.MatchID == "" || rec.PlayerID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, rec.Key())
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStoreFailed, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.scoreKey(rec.MatchID, rec.PlayerID), data, 0)
	pipe.SAdd(ctx, s.matchKey(rec.MatchID), rec.PlayerID)
	pipe.SAdd(ctx, s.matchesKey(), rec.MatchID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: put: %v", ErrStoreFailed, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, matchID, playerID string) (bool, error) {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.scoreKey(matchID, playerID))
	pipe.SRem(ctx, s.matchKey(matchID), playerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreFailed, err)
	}
	// empty match sets are dropped from the match index
	n, err := s.client.SCard(ctx, s.matchKey(matchID)).Result()
	if err == nil && n == 0 {
		s.client.SRem(ctx, s.matchesKey(), matchID)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) Scan(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	matches := []string{filter.MatchID}
	if filter.MatchID == "" {
		var err error
		matches, err = s.client.SMembers(ctx, s.matchesKey()).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan matches: %v", ErrStoreFailed, err)
		}
	}

	out := make([]model.ScoreRecord, 0)
	for _, matchID := range matches {
		players := []string{filter.PlayerID}
		if filter.PlayerID == "" {
			var err error
			players, err = s.client.SMembers(ctx, s.matchKey(matchID)).Result()
			if err != nil {
				return nil, fmt.Errorf("%w: scan players: %v", ErrStoreFailed, err)
			}
		}
		if len(players) == 0 {
			continue
		}
		keys := make([]string, len(players))
		for i, p := range players {
			keys[i] = s.scoreKey(matchID, p)
		}
		vals, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: mget: %v", ErrStoreFailed, err)
		}
		for _, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var rec model.ScoreRecord
			if err := json.Unmarshal([]byte(str), &rec); err != nil {
				return nil, fmt.Errorf("%w: decode: %v", ErrStoreFailed, err)
			}
			if filter.Matches(rec) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	matches, err := s.client.SMembers(ctx, s.matchesKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreFailed, err)
	}
	total := 0
	for _, m := range matches {
		n, err := s.client.SCard(ctx, s.matchKey(m)).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: count: %v", ErrStoreFailed, err)
		}
		total += int(n)
	}
	return total, nil
}
