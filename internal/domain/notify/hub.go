// Package notify implements the notification hub: per-user bounded history and
// fan-out to registered subscribers.
//
// Delivery semantics: Notify stores the notification first, then snapshots the
// subscriber set. A subscriber registered after the snapshot does not receive
// the notification; a subscriber removed before its turn is skipped. Every other
// subscriber in the snapshot is called exactly once, in registration order.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/crease/internal/domain/dedupe"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

const (
	defaultRetention = 100
	// DefaultListLimit is used when ListFor is called without a positive limit.
	DefaultListLimit = 50
)

// Subscriber is called for every notification delivered while it is registered.
type Subscriber func(ctx context.Context, n model.Notification) error

// SubscriptionID identifies a registered subscriber.
type SubscriptionID uint64

// Hub fans notifications out to subscribers and keeps per-user history.
type Hub struct {
	subMu  sync.RWMutex
	subs   map[SubscriptionID]Subscriber
	nextID SubscriptionID

	inboxMu sync.Mutex
	inboxes map[string]*inbox

	retention  int
	deduper    dedupe.Deduper
	dispatcher Dispatcher
	log        logger.Logger
	now        func() time.Time
	newID      func() string
}

// New creates a Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		subs:      make(map[SubscriptionID]Subscriber),
		inboxes:   make(map[string]*inbox),
		retention: defaultRetention,
		log:       logger.Named("notify"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.deduper == nil {
		h.deduper = dedupe.NewInMemoryDeduper()
	}
	return h
}

// Subscribe registers fn and returns its id.
func (h *Hub) Subscribe(fn Subscriber) SubscriptionID {
	h.subMu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	n := len(h.subs)
	h.subMu.Unlock()
	metrics.UpdateHubSubscribers(n)
	return id
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id SubscriptionID) {
	h.subMu.Lock()
	delete(h.subs, id)
	n := len(h.subs)
	h.subMu.Unlock()
	metrics.UpdateHubSubscribers(n)
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	return len(h.subs)
}

// Notify stores a notification for userID and delivers it to the current subscribers.
// Subscriber failures are logged and never returned.
func (h *Hub) Notify(ctx context.Context, userID string, ev model.Event) (model.Notification, error) {
	if userID == "" {
		return model.Notification{}, ErrInvalidUser
	}
	if ev.Key != "" && h.deduper.SeenAndRecord(ctx, dedupe.Key(userID, ev.Key)) {
		metrics.RecordNotificationDuplicate()
		return model.Notification{}, ErrDuplicateEvent
	}
	kind := ev.Type
	if !kind.Valid() {
		kind = model.NotificationUpdate
	}

	n := model.Notification{
		ID:        h.newID(),
		UserID:    userID,
		MatchID:   ev.MatchID,
		Title:     ev.Title,
		Message:   ev.Message,
		Type:      kind,
		Timestamp: h.now(),
		Data:      ev.Data,
	}
	n = cloneNotification(n)

	h.inboxMu.Lock()
	box, ok := h.inboxes[userID]
	if !ok {
		box = newInbox(h.retention)
		h.inboxes[userID] = box
	}
	box.push(n)
	h.inboxMu.Unlock()
	metrics.RecordNotification(string(kind))

	h.deliver(ctx, n)
	h.dispatch(ctx, n)
	return n, nil
}

func (h *Hub) snapshot() []SubscriptionID {
	h.subMu.RLock()
	ids := make([]SubscriptionID, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.subMu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (h *Hub) deliver(ctx context.Context, n model.Notification) {
	for _, id := range h.snapshot() {
		h.subMu.RLock()
		fn, ok := h.subs[id]
		h.subMu.RUnlock()
		if !ok {
			continue
		}
		if err := h.call(ctx, fn, n); err != nil {
			metrics.RecordSubscriberFailure()
			h.log.Warn(ctx, "subscriber failed",
				logger.Int64("subscription", int64(id)),
				logger.String("notification_id", n.ID),
				logger.Error(err))
		}
	}
}

func (h *Hub) call(ctx context.Context, fn Subscriber, n model.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDeliveryFailure, r)
		}
	}()
	if err := fn(ctx, cloneNotification(n)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	return nil
}

func (h *Hub) dispatch(ctx context.Context, n model.Notification) {
	if h.dispatcher == nil {
		return
	}
	d := model.Delivery{NotificationID: n.ID, UserID: n.UserID, Payload: model.PushPayloadFor(n)}
	if !h.dispatcher.TryEnqueue(ctx, d) {
		h.log.Warn(ctx, "push dropped", logger.String("notification_id", n.ID), logger.String("user_id", n.UserID))
	}
}

// ListFor returns up to limit of userID's notifications, newest first.
func (h *Hub) ListFor(_ context.Context, userID string, limit int) []model.Notification {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	h.inboxMu.Lock()
	defer h.inboxMu.Unlock()
	box, ok := h.inboxes[userID]
	if !ok {
		return []model.Notification{}
	}
	return box.newest(limit)
}

// Unread returns the number of unread notifications held for userID.
func (h *Hub) Unread(_ context.Context, userID string) int {
	h.inboxMu.Lock()
	defer h.inboxMu.Unlock()
	box, ok := h.inboxes[userID]
	if !ok {
		return 0
	}
	return box.unread()
}

// MarkRead flags a notification as read. Missing notifications are a no-op.
func (h *Hub) MarkRead(_ context.Context, userID, notificationID string) bool {
	h.inboxMu.Lock()
	defer h.inboxMu.Unlock()
	box, ok := h.inboxes[userID]
	if !ok {
		return false
	}
	return box.markRead(notificationID)
}

// Clear drops userID's history and forgets the event keys delivered to them.
func (h *Hub) Clear(ctx context.Context, userID string) {
	h.inboxMu.Lock()
	delete(h.inboxes, userID)
	h.inboxMu.Unlock()
	h.deduper.Forget(ctx, userID)
}
