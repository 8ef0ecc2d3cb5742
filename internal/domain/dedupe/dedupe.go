// Package dedupe tracks delivered notification events for at-most-once fan-out.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen event keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Forget drops every key recorded under scope.
	Forget(ctx context.Context, scope string)

	Size() int64
}

// Key builds the dedupe key for an event delivered within scope (a user id).
func Key(scope, eventKey string) string {
	return scope + "\x00" + eventKey
}

type entry struct {
	scope string
	key   string
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest first.
// maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	scopes  map[string]map[string]struct{}
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		scopes:  make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	return d.record(scopeOf(key), key)
}

func (d *inMemoryDeduper) record(scope, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(entry{scope: scope, key: key})
	keys, ok := d.scopes[scope]
	if !ok {
		keys = make(map[string]struct{})
		d.scopes[scope] = keys
	}
	keys[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Forget(_ context.Context, scope string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.scopes[scope] {
		if el, ok := d.seen[key]; ok {
			d.order.Remove(el)
			delete(d.seen, key)
		}
	}
	delete(d.scopes, scope)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	e := d.order.Remove(el).(entry)
	delete(d.seen, e.key)
	if keys, ok := d.scopes[e.scope]; ok {
		delete(keys, e.key)
		if len(keys) == 0 {
			delete(d.scopes, e.scope)
		}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

func scopeOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i]
		}
	}
	return ""
}
