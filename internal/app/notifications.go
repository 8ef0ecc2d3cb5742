package service

import (
	"context"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/notify"
)

// Notify sends ev to userID through the hub.
func (s *Service) Notify(ctx context.Context, userID string, ev model.Event) (model.Notification, error) {
	return s.hub.Notify(ctx, userID, ev)
}

// Notifications returns up to limit of userID's notifications, newest first.
func (s *Service) Notifications(ctx context.Context, userID string, limit int) []model.Notification {
	return s.hub.ListFor(ctx, userID, limit)
}

// UnreadCount returns userID's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID string) int {
	return s.hub.Unread(ctx, userID)
}

// MarkRead marks one notification read and reports whether it was found.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) bool {
	return s.hub.MarkRead(ctx, userID, notificationID)
}

// ClearNotifications drops userID's history.
func (s *Service) ClearNotifications(ctx context.Context, userID string) {
	s.hub.Clear(ctx, userID)
}

// SubscribeNotifications registers fn for every notification the hub delivers.
func (s *Service) SubscribeNotifications(fn notify.Subscriber) notify.SubscriptionID {
	return s.hub.Subscribe(fn)
}

// UnsubscribeNotifications removes a subscriber registered with SubscribeNotifications.
func (s *Service) UnsubscribeNotifications(id notify.SubscriptionID) {
	s.hub.Unsubscribe(id)
}
