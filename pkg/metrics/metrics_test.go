package metrics

import (
	"strings"
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
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.betsProposed.Inc()

			Convey("Then its collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_bets_proposed_total")
				So(testutil.ToFloat64(m.betsProposed), ShouldEqual, 1)
			})
		})

		Convey("When registering the same manager twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording ledger events", func() {
			before := testutil.ToFloat64(globalManager.betsProposed)
			refusedBefore := testutil.ToFloat64(globalManager.betsRefused.WithLabelValues("negative_ev"))
			wonBefore := testutil.ToFloat64(globalManager.betsResolved.WithLabelValues("WIN"))
			evictedBefore := testutil.ToFloat64(globalManager.evictedSessions)

			RecordBetProposed()
			RecordBetRefused("negative_ev")
			RecordBetResolved("WIN")
			UpdateActiveSessions(3)
			RecordSessionsEvicted(2)

			Convey("Then the collectors move", func() {
				So(testutil.ToFloat64(globalManager.betsProposed), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.betsRefused.WithLabelValues("negative_ev")), ShouldEqual, refusedBefore+1)
				So(testutil.ToFloat64(globalManager.betsResolved.WithLabelValues("WIN")), ShouldEqual, wonBefore+1)
				So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.evictedSessions), ShouldEqual, evictedBefore+2)
			})
		})

		Convey("When updating feed stats", func() {
			UpdateFeedStats("results", 12, 2)

			Convey("Then both gauges hold the last load", func() {
				So(testutil.ToFloat64(globalManager.feedRecords.WithLabelValues("results")), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.feedDroppedBlocks.WithLabelValues("results")), ShouldEqual, 2)
			})
		})

		Convey("When recording latencies and HTTP requests", func() {
			So(func() {
				RecordStoreLatency("memory", "load", 0.2)
				RecordReplayLatency("compound", 1.5)
				RecordHTTPRequest("/history", "GET", "200")
				RecordHTTPRequestDuration("/history", "GET", "200", 3)
				RecordLedgerLoadError()
				RecordLedgerPersistError()
				RecordFeedFetchError("signals")
				RecordStateViolation("resolve")
				RecordErrorByComponent("app", "persist")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(7)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 7)

			Convey("Then the registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if strings.HasSuffix(f.GetName(), "http_requests_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}
