// Package push delivers notification payloads to external channels.
package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/crease/internal/domain/model"
)

// ErrPushFailed wraps a channel-specific delivery error.
var ErrPushFailed = errors.New("push failed")

// Pusher delivers one payload to a user.
type Pusher interface {
	Deliver(ctx context.Context, userID string, payload model.PushPayload) error
}

// Fanout delivers to every channel and joins their errors.
type Fanout []Pusher

// Deliver tries every channel even when an earlier one fails.
func (f Fanout) Deliver(ctx context.Context, userID string, payload model.PushPayload) error {
	var errs []error
	for _, p := range f {
		if err := p.Deliver(ctx, userID, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard accepts and drops every payload.
type Discard struct{}

func (Discard) Deliver(context.Context, string, model.PushPayload) error { return nil }

func wrap(channel string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPushFailed, channel, err)
}
