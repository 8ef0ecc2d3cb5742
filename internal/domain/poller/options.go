package poller

import (
	"context"
	"time"

	"github.com/okian/crease/pkg/logger"
)

// ErrorHandler receives tick failures. It runs on the schedule goroutine.
type ErrorHandler func(ctx context.Context, matchID string, err error)

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the delay between ticks.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithFetchTimeout bounds a single fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithMaxBackoff caps the delay after consecutive failures.
func WithMaxBackoff(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.maxBackoff = d
		}
	}
}

// WithErrorHandler sets the callback for fetch and apply failures.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(p *Poller) {
		if fn != nil {
			p.onError = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}
