package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "trendhub")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "trendhub")
				So(manager.subsystem, ShouldEqual, "core")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording source fetches", func() {
			before := testutil.ToFloat64(globalManager.sourceFetches.WithLabelValues("github", "trends", OutcomeSuccess))
			RecordSourceFetch("github", "trends", OutcomeSuccess)
			RecordSourceLatency("github", "trends", 12)
			RecordSourceRecords("github", "trends", 5)

			Convey("Then the counters should move", func() {
				after := testutil.ToFloat64(globalManager.sourceFetches.WithLabelValues("github", "trends", OutcomeSuccess))
				So(after-before, ShouldEqual, 1.0)
			})
		})

		Convey("When recording cache activity", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheSet()
			RecordCacheEvictions(2)
			UpdateCacheSize(7)

			Convey("Then the gauges and counters should reflect it", func() {
				So(testutil.ToFloat64(globalManager.cacheHits)-hits, ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.cacheSize), ShouldEqual, 7.0)
			})
		})

		Convey("When recording a partial collection", func() {
			before := testutil.ToFloat64(globalManager.collections.WithLabelValues("deals", "true"))
			RecordCollection("deals", 12, 1)

			Convey("Then it should be labelled partial", func() {
				So(testutil.ToFloat64(globalManager.collections.WithLabelValues("deals", "true"))-before, ShouldEqual, 1.0)
			})
		})

		Convey("When recording the remaining helpers", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordFanout("trends", 100)
					RecordFanoutFailure("newsapi", "trends", OutcomeTimeout)
					RecordDedupeMerged(3)
					RecordDedupeDropped(1)
					RecordMomentumScore(72, "peak")
					UpdateRefreshQueueSize(1)
					UpdateRefreshQueueCapacity(16)
					RecordRefreshJob("trends", OutcomeSuccess, 40)
					UpdateRefreshWorkers(2)
					RecordHTTPRequest("trends", "GET", "200")
					RecordHTTPRequestDuration("trends", "GET", "200", 3)
					RecordErrorByComponent("source", "fetch_error")
					RecordErrorByEndpoint("trends", "GET", "server_error")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it should expose trendhub metrics", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
