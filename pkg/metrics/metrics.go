// Package metrics holds the Prometheus collectors for room and clash
// detection. Each Registry owns its own prometheus.Registry; nothing is
// registered globally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the application.
type Registry struct {
	registry *prometheus.Registry

	// Clash metrics
	ClashRunsTotal       *prometheus.CounterVec
	ClashRunDuration     prometheus.Histogram
	ClashesFoundTotal    *prometheus.CounterVec
	ClashElementsChecked prometheus.Counter
	ClashElementsSkipped prometheus.Counter

	// Room metrics
	RoomDetectionsTotal prometheus.Counter
	RoomsDetected       prometheus.Gauge
}

// NewRegistry creates a Registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initClashMetrics()
	r.initRoomMetrics()
	return r
}

func (r *Registry) initClashMetrics() {
	r.ClashRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "plinth_clash_runs_total",
			Help: "Clash detection runs by outcome",
		},
		[]string{"status"},
	)

	r.ClashRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plinth_clash_run_duration_seconds",
			Help:    "Clash detection run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	r.ClashesFoundTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "plinth_clashes_found_total",
			Help: "Clashes found by rule and severity",
		},
		[]string{"rule", "severity"},
	)

	r.ClashElementsChecked = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "plinth_clash_elements_checked_total",
			Help: "Elements whose bounding box was computed",
		},
	)

	r.ClashElementsSkipped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "plinth_clash_elements_skipped_total",
			Help: "Elements skipped because geometry extraction failed",
		},
	)
}

func (r *Registry) initRoomMetrics() {
	r.RoomDetectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "plinth_room_detections_total",
			Help: "Room detection passes",
		},
	)

	r.RoomsDetected = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "plinth_rooms_detected",
			Help: "Rooms found by the most recent detection pass",
		},
	)
}

// Gatherer exposes the underlying registry for scraping or tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordClashRun records one detection run. A nil Registry is a no-op so
// callers may leave metrics unset.
func (r *Registry) RecordClashRun(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ClashRunsTotal.WithLabelValues(status).Inc()
	r.ClashRunDuration.Observe(duration.Seconds())
}

// RecordClash counts one clash found by rule.
func (r *Registry) RecordClash(rule, severity string) {
	if r == nil {
		return
	}
	r.ClashesFoundTotal.WithLabelValues(rule, severity).Inc()
}

// RecordElement counts an element box computation; skipped marks a failure.
func (r *Registry) RecordElement(skipped bool) {
	if r == nil {
		return
	}
	if skipped {
		r.ClashElementsSkipped.Inc()
		return
	}
	r.ClashElementsChecked.Inc()
}

// RecordRooms records a room detection pass.
func (r *Registry) RecordRooms(count int) {
	if r == nil {
		return
	}
	r.RoomDetectionsTotal.Inc()
	r.RoomsDetected.Set(float64(count))
}
