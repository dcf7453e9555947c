package thumbnail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	reasonNilAsset    = "nil_asset"
	reasonInvalidSize = "invalid_size"
	reasonNotStarted  = "not_started"
)

// Metrics holds the Prometheus collectors of a Service.
type Metrics struct {
	Submitted     *prometheus.CounterVec
	Completed     *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
	QueueDepth    prometheus.Gauge
	SceneActive   prometheus.Gauge
	ScenesCreated prometheus.Counter
	RenderSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thumbnail_requests_submitted_total",
				Help: "Accepted thumbnail requests",
			},
			[]string{"kind"},
		),

		Completed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thumbnail_requests_completed_total",
				Help: "Thumbnail requests that reached the completed state",
			},
			[]string{"kind"},
		),

		Rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thumbnail_requests_rejected_total",
				Help: "Submissions rejected before queueing",
			},
			[]string{"reason"},
		),

		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "thumbnail_queue_depth",
				Help: "Requests waiting in the queue",
			},
		),

		SceneActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "thumbnail_scene_active",
				Help: "1 while a preview scene exists",
			},
		),

		ScenesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "thumbnail_scenes_created_total",
				Help: "Preview scenes created",
			},
		),

		RenderSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "thumbnail_render_seconds",
				Help:    "Time from submission to completion",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}
