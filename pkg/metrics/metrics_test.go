package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("poller"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.pollTicks.WithLabelValues(TickChanged).Inc()

			Convey("Then metrics are registered under the chosen names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_poller_poll_ticks_total"], ShouldBeTrue)
				So(testutil.ToFloat64(m.pollTicks.WithLabelValues(TickChanged)), ShouldEqual, 1)
			})
		})

		Convey("When registering twice on the same registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Recording ticks increments the matching series", func() {
			before := testutil.ToFloat64(globalManager.pollTicks.WithLabelValues(TickUnchanged))
			RecordTick(TickUnchanged)
			RecordTick(TickUnchanged)
			So(testutil.ToFloat64(globalManager.pollTicks.WithLabelValues(TickUnchanged)), ShouldEqual, before+2)
		})

		Convey("Gauges hold the last value", func() {
			UpdateActiveSubscriptions(3)
			UpdateLedgerRecords(12)
			UpdateQueueSize(5)
			So(testutil.ToFloat64(globalManager.activeSubscriptions), ShouldEqual, 3)
			So(testutil.ToFloat64(globalManager.ledgerRecords), ShouldEqual, 12)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 5)
		})

		Convey("Remaining recorders do not panic", func() {
			So(func() {
				RecordFetchLatency(12)
				RecordApplyError()
				RecordLedgerWrite("upsert", 0.3)
				RecordNotification("wicket")
				RecordNotificationDuplicate()
				RecordSubscriberFailure()
				UpdateHubSubscribers(2)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.5)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordPushDelivery("ok", 4)
				UpdateWorkerCount(2)
				RecordHTTPRequest("/api/scores", "GET", "200")
				RecordHTTPRequestDuration("/api/scores", "GET", "200", 1.5)
				UpdateWebSocketClients(1)
				UpdateWebSocketClients(-1)
				RecordErrorByComponent("poller", "upstream")
				RecordErrorByEndpoint("/api/scores", "POST", "bad_request")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
