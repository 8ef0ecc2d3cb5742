// Package ledger is the authoritative store of per-player match scores.
//
// Writes to the same (match, player) key are serialized; writes to different
// keys proceed in parallel. Derived statistics are recomputed from the merged
// counters on every write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/crease/internal/adapters/repository"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/stats"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

// Ledger maps (matchID, playerID) to a ScoreRecord.
type Ledger struct {
	store     repository.Store
	locks     *keyLocks
	listeners []Listener
	log       logger.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a Ledger over store.
func New(store repository.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		locks: newKeyLocks(),
		log:   logger.Named("ledger"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Upsert creates or merges the record for (matchID, playerID) and returns the stored value.
// Counter values are not validated here.
func (l *Ledger) Upsert(ctx context.Context, matchID, playerID string, fields model.ScoreFields, opts ...UpsertOption) (model.ScoreRecord, error) {
	ev, err := l.Apply(ctx, matchID, playerID, fields, opts...)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	return ev.Record, nil
}

// Apply is Upsert returning the full write: the stored record and the version
// it replaced, both read under the key lock. Listeners are called before the
// lock is released, so events for one key arrive in write order.
func (l *Ledger) Apply(ctx context.Context, matchID, playerID string, fields model.ScoreFields, opts ...UpsertOption) (model.ScoreEvent, error) {
	var cfg upsertConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if matchID == "" || playerID == "" {
		return model.ScoreEvent{}, fmt.Errorf("ledger upsert: %w", repository.ErrInvalidKey)
	}

	start := time.Now()
	unlock := l.locks.Lock(model.KeyOf(matchID, playerID))
	defer unlock()

	prev, err := l.store.Get(ctx, matchID, playerID)
	var previous *model.ScoreRecord
	switch {
	case err == nil:
		previous = &prev
	case errors.Is(err, repository.ErrNotFound):
		if cfg.mustExist {
			return model.ScoreEvent{}, ErrNotFound
		}
		prev = model.ScoreRecord{
			ID:        l.newID(),
			MatchID:   matchID,
			PlayerID:  playerID,
			CreatedAt: l.now(),
		}
	default:
		return model.ScoreEvent{}, fmt.Errorf("ledger upsert: %w", err)
	}

	next := prev.Merge(fields)
	stats.Recompute(&next)
	next.UpdatedAt = l.now()

	if err := l.store.Put(ctx, next); err != nil {
		return model.ScoreEvent{}, fmt.Errorf("ledger upsert: %w", err)
	}
	metrics.RecordLedgerWrite("upsert", float64(time.Since(start).Microseconds())/1000)

	ev := model.ScoreEvent{
		Kind:     model.ScoreUpserted,
		Record:   next,
		Previous: previous,
		Silent:   cfg.silent,
	}
	l.emit(ctx, ev)
	return ev, nil
}

// Get returns the record for (matchID, playerID) or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, matchID, playerID string) (model.ScoreRecord, error) {
	rec, err := l.store.Get(ctx, matchID, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ScoreRecord{}, ErrNotFound
		}
		return model.ScoreRecord{}, fmt.Errorf("ledger get: %w", err)
	}
	return rec, nil
}

// Query returns the records matching filter, in no particular order.
func (l *Ledger) Query(ctx context.Context, filter model.ScoreFilter) ([]model.ScoreRecord, error) {
	recs, err := l.store.Scan(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ledger query: %w", err)
	}
	return recs, nil
}

// Remove deletes the record and reports whether it existed.
func (l *Ledger) Remove(ctx context.Context, matchID, playerID string) (bool, error) {
	start := time.Now()
	unlock := l.locks.Lock(model.KeyOf(matchID, playerID))
	defer unlock()

	prev, err := l.store.Get(ctx, matchID, playerID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger remove: %w", err)
	}
	ok, err := l.store.Delete(ctx, matchID, playerID)
	if err != nil {
		return false, fmt.Errorf("ledger remove: %w", err)
	}
	if !ok {
		return false, nil
	}
	metrics.RecordLedgerWrite("remove", float64(time.Since(start).Microseconds())/1000)

	l.emit(ctx, model.ScoreEvent{Kind: model.ScoreRemoved, Record: prev, Previous: &prev})
	return true, nil
}

// Count returns the number of stored records.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	n, err := l.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger count: %w", err)
	}
	metrics.UpdateLedgerRecords(n)
	return n, nil
}

func (l *Ledger) emit(ctx context.Context, ev model.ScoreEvent) {
	if ev.Silent {
		return
	}
	for _, fn := range l.listeners {
		fn(ctx, cloneEvent(ev))
	}
	l.log.Debug(ctx, "ledger event",
		logger.String("kind", string(ev.Kind)),
		logger.String("match_id", ev.Record.MatchID),
		logger.String("player_id", ev.Record.PlayerID))
}

func cloneEvent(ev model.ScoreEvent) model.ScoreEvent {
	ev.Record = ev.Record.Clone()
	if ev.Previous != nil {
		p := ev.Previous.Clone()
		ev.Previous = &p
	}
	return ev
}
