package notify

import (
	"context"
	"time"

	"github.com/okian/crease/internal/domain/dedupe"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

// Dispatcher accepts push deliveries without blocking; false means dropped.
type Dispatcher interface {
	TryEnqueue(ctx context.Context, d model.Delivery) bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithRetention bounds the per-user history.
func WithRetention(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.retention = n
		}
	}
}

// WithDeduper sets the event key deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(h *Hub) {
		if d != nil {
			h.deduper = d
		}
	}
}

// WithDispatcher enables push delivery.
func WithDispatcher(d Dispatcher) Option {
	return func(h *Hub) {
		h.dispatcher = d
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator overrides notification id generation.
func WithIDGenerator(gen func() string) Option {
	return func(h *Hub) {
		if gen != nil {
			h.newID = gen
		}
	}
}
