package notify_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/internal/domain/notify"
	"github.com/okian/crease/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

type recorder struct {
	mu  sync.Mutex
	got []model.Notification
}

func (r *recorder) fn(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type fakeDispatcher struct {
	accept bool
	got    []model.Delivery
}

func (f *fakeDispatcher) TryEnqueue(_ context.Context, d model.Delivery) bool {
	if !f.accept {
		return false
	}
	f.got = append(f.got, d)
	return true
}

func wicket(msg string) model.Event {
	return model.Event{Type: model.NotificationWicket, Title: "Wicket!", Message: msg, MatchID: "match_001"}
}

func TestNotifyDelivery(t *testing.T) {
	Convey("Given a hub with two subscribers", t, func() {
		ctx := context.Background()
		h := notify.New()
		a, b := &recorder{}, &recorder{}
		h.Subscribe(a.fn)
		idB := h.Subscribe(b.fn)

		Convey("Notify stores and delivers exactly once to each", func() {
			n, err := h.Notify(ctx, "u1", wicket("Cummins strikes"))
			So(err, ShouldBeNil)
			So(n.ID, ShouldNotBeEmpty)
			So(n.Read, ShouldBeFalse)
			So(n.Type, ShouldEqual, model.NotificationWicket)
			So(a.count(), ShouldEqual, 1)
			So(b.count(), ShouldEqual, 1)
			So(a.got[0].ID, ShouldEqual, n.ID)
			So(len(h.ListFor(ctx, "u1", 10)), ShouldEqual, 1)
		})

		Convey("An unsubscribed callback is not called", func() {
			h.Unsubscribe(idB)
			h.Unsubscribe(idB)
			_, _ = h.Notify(ctx, "u1", wicket("x"))
			So(a.count(), ShouldEqual, 1)
			So(b.count(), ShouldEqual, 0)
			So(h.Subscribers(), ShouldEqual, 1)
		})

		Convey("A failing subscriber does not stop delivery to the others", func() {
			h2 := notify.New()
			c := &recorder{}
			h2.Subscribe(func(context.Context, model.Notification) error { return errors.New("socket closed") })
			h2.Subscribe(func(context.Context, model.Notification) error { panic("boom") })
			h2.Subscribe(c.fn)

			n, err := h2.Notify(ctx, "u1", wicket("x"))
			So(err, ShouldBeNil)
			So(c.count(), ShouldEqual, 1)
			So(h2.ListFor(ctx, "u1", 0)[0].ID, ShouldEqual, n.ID)
		})

		Convey("An empty user id is rejected", func() {
			_, err := h.Notify(ctx, "", wicket("x"))
			So(errors.Is(err, notify.ErrInvalidUser), ShouldBeTrue)
		})
	})
}

func TestSnapshotSemantics(t *testing.T) {
	Convey("Given a subscriber that registers another during delivery", t, func() {
		ctx := context.Background()
		h := notify.New()
		late := &recorder{}
		var once sync.Once
		h.Subscribe(func(context.Context, model.Notification) error {
			once.Do(func() { h.Subscribe(late.fn) })
			return nil
		})

		_, err := h.Notify(ctx, "u1", wicket("first"))
		So(err, ShouldBeNil)

		Convey("The late registrant misses the in-flight notification", func() {
			So(late.count(), ShouldEqual, 0)

			Convey("But receives the next one", func() {
				_, _ = h.Notify(ctx, "u1", wicket("second"))
				So(late.count(), ShouldEqual, 1)
				So(late.got[0].Message, ShouldEqual, "second")
			})
		})
	})

	Convey("Given a subscriber that removes a later one during delivery", t, func() {
		ctx := context.Background()
		h := notify.New()
		victim := &recorder{}
		var victimID notify.SubscriptionID
		h.Subscribe(func(context.Context, model.Notification) error {
			h.Unsubscribe(victimID)
			return nil
		})
		victimID = h.Subscribe(victim.fn)

		_, _ = h.Notify(ctx, "u1", wicket("x"))
		So(victim.count(), ShouldEqual, 0)
	})
}

func TestRetentionAndListing(t *testing.T) {
	Convey("Given a hub retaining three notifications per user", t, func() {
		ctx := context.Background()
		clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		h := notify.New(notify.WithRetention(3), notify.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))

		for i := 1; i <= 5; i++ {
			_, _ = h.Notify(ctx, "u1", model.Event{Type: model.NotificationUpdate, Message: fmt.Sprintf("n%d", i)})
		}
		_, _ = h.Notify(ctx, "u2", model.Event{Type: model.NotificationAlert, Message: "other"})

		Convey("Only the newest survive, newest first", func() {
			list := h.ListFor(ctx, "u1", 10)
			So(len(list), ShouldEqual, 3)
			So(list[0].Message, ShouldEqual, "n5")
			So(list[2].Message, ShouldEqual, "n3")
			So(list[0].Timestamp.After(list[1].Timestamp), ShouldBeTrue)
		})

		Convey("Limit truncates and users are isolated", func() {
			So(len(h.ListFor(ctx, "u1", 2)), ShouldEqual, 2)
			So(len(h.ListFor(ctx, "u2", 0)), ShouldEqual, 1)
			So(h.ListFor(ctx, "nobody", 5), ShouldBeEmpty)
		})

		Convey("MarkRead flips one notification and ignores unknown ids", func() {
			id := h.ListFor(ctx, "u1", 1)[0].ID
			So(h.Unread(ctx, "u1"), ShouldEqual, 3)
			So(h.MarkRead(ctx, "u1", id), ShouldBeTrue)
			So(h.MarkRead(ctx, "u1", "missing"), ShouldBeFalse)
			So(h.MarkRead(ctx, "nobody", id), ShouldBeFalse)
			So(h.ListFor(ctx, "u1", 1)[0].Read, ShouldBeTrue)
			So(h.Unread(ctx, "u1"), ShouldEqual, 2)
		})

		Convey("Clear empties one user's history", func() {
			h.Clear(ctx, "u1")
			So(h.ListFor(ctx, "u1", 10), ShouldBeEmpty)
			So(len(h.ListFor(ctx, "u2", 10)), ShouldEqual, 1)
		})

		Convey("Unknown types are stored as updates", func() {
			n, _ := h.Notify(ctx, "u3", model.Event{Type: "boundary"})
			So(n.Type, ShouldEqual, model.NotificationUpdate)
		})
	})
}

func TestDuplicateEvents(t *testing.T) {
	Convey("Given a keyed event", t, func() {
		ctx := context.Background()
		h := notify.New()
		r := &recorder{}
		h.Subscribe(r.fn)
		ev := wicket("Cummins strikes")
		ev.Key = "match_001:wicket:pat-cummins:3"

		_, err := h.Notify(ctx, "u1", ev)
		So(err, ShouldBeNil)

		Convey("Repeating it for the same user is suppressed", func() {
			_, err := h.Notify(ctx, "u1", ev)
			So(errors.Is(err, notify.ErrDuplicateEvent), ShouldBeTrue)
			So(r.count(), ShouldEqual, 1)
			So(len(h.ListFor(ctx, "u1", 0)), ShouldEqual, 1)
		})

		Convey("Another user still receives it", func() {
			_, err := h.Notify(ctx, "u2", ev)
			So(err, ShouldBeNil)
			So(r.count(), ShouldEqual, 2)
		})

		Convey("Clearing the user allows it again", func() {
			h.Clear(ctx, "u1")
			_, err := h.Notify(ctx, "u1", ev)
			So(err, ShouldBeNil)
		})
	})
}

func TestPushDispatch(t *testing.T) {
	Convey("Given a hub with a dispatcher", t, func() {
		ctx := context.Background()
		d := &fakeDispatcher{accept: true}
		h := notify.New(notify.WithDispatcher(d), notify.WithIDGenerator(func() string { return "n-1" }))

		Convey("Each notification is offered for push", func() {
			_, _ = h.Notify(ctx, "u1", wicket("Cummins strikes"))
			So(len(d.got), ShouldEqual, 1)
			So(d.got[0].NotificationID, ShouldEqual, "n-1")
			So(d.got[0].UserID, ShouldEqual, "u1")
			So(d.got[0].Payload.Body, ShouldEqual, "Cummins strikes")
			So(d.got[0].Payload.Tag, ShouldEqual, "wicket")
		})

		Convey("A full queue drops the push but keeps the notification", func() {
			d.accept = false
			_, err := h.Notify(ctx, "u1", wicket("x"))
			So(err, ShouldBeNil)
			So(len(h.ListFor(ctx, "u1", 0)), ShouldEqual, 1)
		})
	})
}

func TestConcurrentNotify(t *testing.T) {
	Convey("Concurrent notifies and subscription churn stay consistent", t, func() {
		ctx := context.Background()
		h := notify.New(notify.WithRetention(1000))
		r := &recorder{}
		h.Subscribe(r.fn)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, _ = h.Notify(ctx, "u1", model.Event{Message: fmt.Sprint(i)})
			}(i)
			go func() {
				defer wg.Done()
				id := h.Subscribe(func(context.Context, model.Notification) error { return nil })
				h.Unsubscribe(id)
			}()
		}
		wg.Wait()
		So(r.count(), ShouldEqual, 100)
		So(len(h.ListFor(ctx, "u1", 1000)), ShouldEqual, 100)
	})
}
