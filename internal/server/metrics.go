package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/kinboard/pkg/observability"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

const namespace = "kinboard"

// Metrics implements the observability hooks with Prometheus collectors.
type Metrics struct {
	// gestures counts started gestures.
	// Labels: mode (panning, dragging, connecting)
	gestures *prometheus.CounterVec

	// gestureResults counts finished gestures.
	// Labels: mode, result (committed, noop, error)
	gestureResults *prometheus.CounterVec

	// projections measures render-model projection time.
	projections prometheus.Histogram

	// projectedNodes tracks the size of the last projected tree.
	projectedNodes prometheus.Gauge

	// storeOps measures store call latency.
	// Labels: backend, op, status (ok, error)
	storeOps *prometheus.HistogramVec

	// requests measures HTTP request latency.
	// Labels: method, route, code
	requests *prometheus.HistogramVec

	// sessions tracks open canvas sessions.
	sessions prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gestures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "gestures_total",
			Help:      "Pointer gestures started, by mode",
		}, []string{"mode"}),
		gestureResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "gesture_results_total",
			Help:      "Pointer gestures finished, by mode and result",
		}, []string{"mode", "result"}),
		projections: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "projection_seconds",
			Help:      "Render model projection time in seconds",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
		projectedNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "projected_nodes",
			Help:      "Members in the most recent projection",
		}),
		storeOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "op_duration_seconds",
			Help:      "Store operation latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"backend", "op", "status"}),
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "canvas",
			Name:      "sessions",
			Help:      "Open live canvas sessions",
		}),
	}
}

// Install registers m as the process-wide canvas, store and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetCanvasHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnGestureStart(mode string) {
	m.gestures.WithLabelValues(mode).Inc()
}

func (m *Metrics) OnGestureEnd(mode string, committed bool, err error) {
	result := "noop"
	switch {
	case err != nil:
		result = "error"
	case committed:
		result = "committed"
	}
	m.gestureResults.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) OnProject(nodes, edges int, d time.Duration) {
	m.projections.Observe(d.Seconds())
	m.projectedNodes.Set(float64(nodes))
}

func (m *Metrics) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeOps.WithLabelValues(backend, op, status).Observe(d.Seconds())
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}

func (m *Metrics) OnSession(open bool) {
	if open {
		m.sessions.Inc()
		return
	}
	m.sessions.Dec()
}

var (
	_ observability.CanvasHooks = (*Metrics)(nil)
	_ observability.StoreHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
