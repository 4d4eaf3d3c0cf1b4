package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))
			m.contoursKept.Inc()

			Convey("Then collectors use the despeckle namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "despeckle_purge_"), ShouldBeTrue)
				}
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)
			m.contoursKept.Inc()

			Convey("Then the names follow the options", func() {
				n, err := testutil.GatherAndCount(registry, "test_unit_contours_kept_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				So(m.histogramBuckets, ShouldResemble, []float64{1, 2, 3})
			})
		})

		Convey("When passing empty option values", func() {
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "despeckle")
				So(m.subsystem, ShouldEqual, "purge")
				So(m.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording node outcomes", func() {
			before := testutil.ToFloat64(globalManager.nodesProcessed.WithLabelValues(OutcomeRemoved))
			RecordNode(OutcomeRemoved)
			RecordNode(OutcomeRemoved)

			Convey("Then the labelled counter grows", func() {
				after := testutil.ToFloat64(globalManager.nodesProcessed.WithLabelValues(OutcomeRemoved))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording contour counts", func() {
			kept := testutil.ToFloat64(globalManager.contoursKept)
			dropped := testutil.ToFloat64(globalManager.contoursDropped)
			RecordContours(3, 5)

			Convey("Then both counters grow", func() {
				So(testutil.ToFloat64(globalManager.contoursKept)-kept, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.contoursDropped)-dropped, ShouldEqual, 5)
			})
		})

		Convey("When setting queue gauges", func() {
			UpdateQueueCapacity(64)
			UpdateQueueSize(7)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			})
		})

		Convey("When recording everything else", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordDegenerateCurves(1)
					RecordFilterLatency(0.3)
					RecordDocument()
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueBackpressure()
					UpdateWorkerActiveCount(4)
					RecordWorkerProcessingLatency(1.5)
					RecordHTTPRequest("/v1/paths", "POST", "200")
					RecordHTTPRequestDuration("/v1/paths", "POST", "200", 2.0)
					RecordErrorByComponent("worker", "unsupported_command")
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the shared registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it exposes the recorded families", func() {
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueue)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.queueEnqueue)-before, ShouldEqual, 1000)
		})
	})
}
