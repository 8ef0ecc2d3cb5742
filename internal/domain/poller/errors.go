package poller

import "errors"

// Sentinel errors.
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidMatchID      = errors.New("invalid match id")
	ErrClosed              = errors.New("poller closed")
)
