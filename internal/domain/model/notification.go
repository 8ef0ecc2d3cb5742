package model

import "time"

// NotificationType categorizes a notification.
type NotificationType string

const (
	NotificationWicket  NotificationType = "wicket"
	NotificationCentury NotificationType = "century"
	NotificationUpdate  NotificationType = "update"
	NotificationAlert   NotificationType = "alert"
)

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationWicket, NotificationCentury, NotificationUpdate, NotificationAlert:
		return true
	}
	return false
}

// Notification is a per-user message held in the hub's bounded history.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	MatchID   string            `json:"matchId,omitempty"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      NotificationType  `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Read      bool              `json:"read"`
	Data      map[string]string `json:"data,omitempty"`
}

// Event is the hub's input; Key, when set, makes delivery idempotent per user.
type Event struct {
	Type    NotificationType
	Title   string
	Message string
	MatchID string
	Key     string
	Data    map[string]string
}

// PushPayload is what push channels send to a device or chat.
type PushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Badge string            `json:"badge,omitempty"`
	Icon  string            `json:"icon,omitempty"`
	Tag   string            `json:"tag,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Delivery is one queued push.
type Delivery struct {
	NotificationID string      `json:"notificationId"`
	UserID         string      `json:"userId"`
	Payload        PushPayload `json:"payload"`
}

// Push icons served by the web client.
const (
	PushIcon  = "/images/app-icon.png"
	PushBadge = "/images/badge-icon.png"
)

// PushPayloadFor builds the push payload of a notification.
func PushPayloadFor(n Notification) PushPayload {
	data := map[string]string{
		"notificationId": n.ID,
		"type":           string(n.Type),
	}
	if n.MatchID != "" {
		data["matchId"] = n.MatchID
	}
	for k, v := range n.Data {
		data[k] = v
	}
	return PushPayload{
		Title: n.Title,
		Body:  n.Message,
		Badge: PushBadge,
		Icon:  PushIcon,
		Tag:   string(n.Type),
		Data:  data,
	}
}
