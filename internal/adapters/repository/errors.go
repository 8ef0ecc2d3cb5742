package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("score not found")
	ErrInvalidKey  = errors.New("invalid score key")
	ErrStoreFailed = errors.New("store operation failed")
)
