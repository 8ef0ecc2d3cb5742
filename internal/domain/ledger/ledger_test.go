package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crease/internal/adapters/repository"
	"github.com/okian/crease/internal/domain/ledger"
	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

type eventLog struct {
	mu     sync.Mutex
	events []model.ScoreEvent
}

func (e *eventLog) listen(_ context.Context, ev model.ScoreEvent) {
	e.mu.Lock()
	e.events = append(e.events, ev)
	e.mu.Unlock()
}

func (e *eventLog) all() []model.ScoreEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.ScoreEvent(nil), e.events...)
}

func TestUpsert(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		ctx := context.Background()
		events := &eventLog{}
		l := ledger.New(repository.NewMemoryStore(), ledger.WithListener(events.listen))

		Convey("Creating a record computes its strike rate", func() {
			rec, err := l.Upsert(ctx, "m1", "p1", model.ScoreFields{
				PlayerName: model.StringPtr("Rohit Sharma"), Team: model.StringPtr("India"),
				Runs: model.IntPtr(50), BallsFaced: model.IntPtr(40),
			})
			So(err, ShouldBeNil)
			So(rec.ID, ShouldNotBeEmpty)
			So(*rec.StrikeRate, ShouldEqual, 125.0)
			So(rec.EconomyRate, ShouldBeNil)
			So(rec.CreatedAt.IsZero(), ShouldBeFalse)

			Convey("And a later update recomputes from the merged counters", func() {
				upd, err := l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(60), BallsFaced: model.IntPtr(60)})
				So(err, ShouldBeNil)
				So(*upd.StrikeRate, ShouldEqual, 100.0)
				So(upd.ID, ShouldEqual, rec.ID)
				So(upd.CreatedAt, ShouldEqual, rec.CreatedAt)
				So(upd.PlayerName, ShouldEqual, "Rohit Sharma")

				got, err := l.Get(ctx, "m1", "p1")
				So(err, ShouldBeNil)
				So(*got.StrikeRate, ShouldEqual, 100.0)

				evs := events.all()
				So(len(evs), ShouldEqual, 2)
				So(evs[0].Previous, ShouldBeNil)
				So(evs[1].Previous, ShouldNotBeNil)
				So(*evs[1].Previous.Runs, ShouldEqual, 50)
				So(*evs[1].Record.Runs, ShouldEqual, 60)
			})
		})

		Convey("Updating only runs recomputes with the stored balls", func() {
			_, _ = l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(10), BallsFaced: model.IntPtr(20)})
			rec, _ := l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(30)})
			So(*rec.StrikeRate, ShouldEqual, 150.0)
		})

		Convey("Zero balls faced leaves strike rate absent", func() {
			rec, err := l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(0), BallsFaced: model.IntPtr(0)})
			So(err, ShouldBeNil)
			So(rec.StrikeRate, ShouldBeNil)
		})

		Convey("Silent writes do not reach listeners", func() {
			_, err := l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(1)}, ledger.Silent())
			So(err, ShouldBeNil)
			So(events.all(), ShouldBeEmpty)
		})

		Convey("MustExist refuses to create", func() {
			_, err := l.Upsert(ctx, "m1", "ghost", model.ScoreFields{Runs: model.IntPtr(1)}, ledger.MustExist())
			So(errors.Is(err, ledger.ErrNotFound), ShouldBeTrue)
			_, err = l.Get(ctx, "m1", "ghost")
			So(errors.Is(err, ledger.ErrNotFound), ShouldBeTrue)
		})

		Convey("An empty key is rejected", func() {
			_, err := l.Upsert(ctx, "", "p1", model.ScoreFields{})
			So(errors.Is(err, repository.ErrInvalidKey), ShouldBeTrue)
		})
	})
}

func TestDisjointUpsertsCommute(t *testing.T) {
	Convey("Upserts of disjoint fields produce the same record in either order", t, func() {
		ctx := context.Background()
		batting := model.ScoreFields{Runs: model.IntPtr(40), BallsFaced: model.IntPtr(32)}
		bowling := model.ScoreFields{Wickets: model.IntPtr(2), RunsConceded: model.IntPtr(30), OversBowled: model.FloatPtr(5)}

		a := ledger.New(repository.NewMemoryStore())
		_, _ = a.Upsert(ctx, "m1", "p1", batting)
		recA, _ := a.Upsert(ctx, "m1", "p1", bowling)

		b := ledger.New(repository.NewMemoryStore())
		_, _ = b.Upsert(ctx, "m1", "p1", bowling)
		recB, _ := b.Upsert(ctx, "m1", "p1", batting)

		for _, rec := range []model.ScoreRecord{recA, recB} {
			So(*rec.Runs, ShouldEqual, 40)
			So(*rec.BallsFaced, ShouldEqual, 32)
			So(*rec.Wickets, ShouldEqual, 2)
			So(*rec.StrikeRate, ShouldEqual, 125.0)
			So(*rec.EconomyRate, ShouldEqual, 6.0)
		}
	})
}

func TestQueryAndRemove(t *testing.T) {
	Convey("Given records across two matches", t, func() {
		ctx := context.Background()
		events := &eventLog{}
		l := ledger.New(repository.NewMemoryStore(), ledger.WithListener(events.listen))
		_, _ = l.Upsert(ctx, "m1", "p1", model.ScoreFields{Team: model.StringPtr("India")})
		_, _ = l.Upsert(ctx, "m1", "p2", model.ScoreFields{Team: model.StringPtr("Australia")})
		_, _ = l.Upsert(ctx, "m2", "p1", model.ScoreFields{Team: model.StringPtr("India")})

		Convey("Query filters case-insensitively by team", func() {
			recs, err := l.Query(ctx, model.ScoreFilter{Team: "india"})
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 2)
		})

		Convey("Remove deletes once and emits a removed event", func() {
			ok, err := l.Remove(ctx, "m1", "p2")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			ok, err = l.Remove(ctx, "m1", "p2")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			evs := events.all()
			last := evs[len(evs)-1]
			So(last.Kind, ShouldEqual, model.ScoreRemoved)
			So(last.Record.PlayerID, ShouldEqual, "p2")

			n, err := l.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})
}

func TestConcurrentUpserts(t *testing.T) {
	Convey("Concurrent writers on one key never lose the record and touch other keys freely", t, func() {
		ctx := context.Background()
		l := ledger.New(repository.NewMemoryStore())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, _ = l.Upsert(ctx, "m1", "shared", model.ScoreFields{Runs: model.IntPtr(i), BallsFaced: model.IntPtr(i + 1)})
			}(i)
			go func(i int) {
				defer wg.Done()
				_, _ = l.Upsert(ctx, "m1", fmt.Sprintf("p%d", i), model.ScoreFields{Wickets: model.IntPtr(i)})
			}(i)
		}
		wg.Wait()

		rec, err := l.Get(ctx, "m1", "shared")
		So(err, ShouldBeNil)
		// derived value must match whichever write landed last
		So(*rec.StrikeRate, ShouldEqual, float64(*rec.Runs)/float64(*rec.BallsFaced)*100)
		n, _ := l.Count(ctx)
		So(n, ShouldEqual, 51)
	})
}

func TestIDsWithSeparators(t *testing.T) {
	Convey("Pairs that would join to the same string stay separate records", t, func() {
		ctx := context.Background()
		l := ledger.New(repository.NewMemoryStore())

		first, err := l.Upsert(ctx, "a/b", "c", model.ScoreFields{Runs: model.IntPtr(10)})
		So(err, ShouldBeNil)
		second, err := l.Upsert(ctx, "a", "b/c", model.ScoreFields{BallsFaced: model.IntPtr(5)})
		So(err, ShouldBeNil)

		So(second.MatchID, ShouldEqual, "a")
		So(second.PlayerID, ShouldEqual, "b/c")
		So(second.Runs, ShouldBeNil)
		So(second.ID, ShouldNotEqual, first.ID)

		n, err := l.Count(ctx)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 2)
	})
}

func TestApplyReportsPrevious(t *testing.T) {
	Convey("Apply returns the replaced version read under the key lock", t, func() {
		ctx := context.Background()
		l := ledger.New(repository.NewMemoryStore())

		ev, err := l.Apply(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(95)}, ledger.Silent())
		So(err, ShouldBeNil)
		So(ev.Previous, ShouldBeNil)
		So(ev.Silent, ShouldBeTrue)

		ev, err = l.Apply(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(101)})
		So(err, ShouldBeNil)
		So(ev.Kind, ShouldEqual, model.ScoreUpserted)
		So(*ev.Previous.Runs, ShouldEqual, 95)
		So(*ev.Record.Runs, ShouldEqual, 101)

		_, err = l.Apply(ctx, "m1", "p9", model.ScoreFields{}, ledger.MustExist())
		So(errors.Is(err, ledger.ErrNotFound), ShouldBeTrue)
	})
}

func TestEventsFollowWriteOrder(t *testing.T) {
	Convey("Events for one key are delivered in the order the writes were stored", t, func() {
		ctx := context.Background()
		events := &eventLog{}
		l := ledger.New(repository.NewMemoryStore(), ledger.WithListener(events.listen))

		var wg sync.WaitGroup
		for i := 1; i <= 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = l.Upsert(ctx, "m1", "p1", model.ScoreFields{Runs: model.IntPtr(i)})
			}(i)
		}
		wg.Wait()

		evs := events.all()
		So(len(evs), ShouldEqual, 100)
		So(evs[0].Previous, ShouldBeNil)
		for i := 1; i < len(evs); i++ {
			So(*evs[i].Previous.Runs, ShouldEqual, *evs[i-1].Record.Runs)
		}
		final, err := l.Get(ctx, "m1", "p1")
		So(err, ShouldBeNil)
		So(*final.Runs, ShouldEqual, *evs[len(evs)-1].Record.Runs)
	})
}

func TestClockAndIDs(t *testing.T) {
	Convey("Injected clock and id generator are used", t, func() {
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		l := ledger.New(repository.NewMemoryStore(),
			ledger.WithClock(func() time.Time { return fixed }),
			ledger.WithIDGenerator(func() string { return "score-1" }),
			ledger.WithLogger(logger.Nop()))
		rec, err := l.Upsert(context.Background(), "m1", "p1", model.ScoreFields{})
		So(err, ShouldBeNil)
		So(rec.ID, ShouldEqual, "score-1")
		So(rec.UpdatedAt, ShouldEqual, fixed)
	})
}
