package notify

import "github.com/okian/crease/internal/domain/model"

// inbox is a fixed-capacity ring of one user's notifications; the oldest is overwritten.
type inbox struct {
	buf   []model.Notification
	start int
	size  int
}

func newInbox(capacity int) *inbox {
	return &inbox{buf: make([]model.Notification, capacity)}
}

func (b *inbox) push(n model.Notification) {
	if b.size < len(b.buf) {
		b.buf[(b.start+b.size)%len(b.buf)] = n
		b.size++
		return
	}
	b.buf[b.start] = n
	b.start = (b.start + 1) % len(b.buf)
}

// newest returns up to limit notifications, newest first.
func (b *inbox) newest(limit int) []model.Notification {
	if limit <= 0 || limit > b.size {
		limit = b.size
	}
	out := make([]model.Notification, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, cloneNotification(b.buf[(b.start+b.size-1-i)%len(b.buf)]))
	}
	return out
}

func (b *inbox) markRead(id string) bool {
	for i := 0; i < b.size; i++ {
		n := &b.buf[(b.start+i)%len(b.buf)]
		if n.ID == id {
			n.Read = true
			return true
		}
	}
	return false
}

func (b *inbox) unread() int {
	c := 0
	for i := 0; i < b.size; i++ {
		if !b.buf[(b.start+i)%len(b.buf)].Read {
			c++
		}
	}
	return c
}

func cloneNotification(n model.Notification) model.Notification {
	if n.Data != nil {
		data := make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	return n
}
