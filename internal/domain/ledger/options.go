package ledger

import (
	"context"
	"time"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// Listener receives ledger events synchronously after each write, while the
// written key is still held. A listener must not write to the ledger.
type Listener func(ctx context.Context, ev model.ScoreEvent)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Ledger) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithListener registers a listener for non-silent writes.
func WithListener(fn Listener) Option {
	return func(ld *Ledger) {
		if fn != nil {
			ld.listeners = append(ld.listeners, fn)
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(ld *Ledger) {
		if now != nil {
			ld.now = now
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(ld *Ledger) {
		if gen != nil {
			ld.newID = gen
		}
	}
}

// UpsertOption tunes a single Upsert call.
type UpsertOption func(*upsertConfig)

type upsertConfig struct {
	silent    bool
	mustExist bool
}

// Silent suppresses the listener event for this write.
func Silent() UpsertOption {
	return func(c *upsertConfig) { c.silent = true }
}

// MustExist turns a missing record into ErrNotFound instead of a create.
func MustExist() UpsertOption {
	return func(c *upsertConfig) { c.mustExist = true }
}
