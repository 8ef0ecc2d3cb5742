package ledger

import (
	"github.com/okian/crease/internal/adapters/repository"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = repository.ErrNotFound
