package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts gesture and capture activity on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PinchSessions prometheus.Counter
	Zoom          prometheus.Gauge
	Captures      *prometheus.CounterVec
	CaptureErrors *prometheus.CounterVec
	GalleryItems  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PinchSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zoomcam_pinch_sessions_total",
			Help: "Pinch gestures started",
		}),
		Zoom: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zoomcam_zoom_factor",
			Help: "Current preview zoom factor",
		}),
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoomcam_captures_total",
			Help: "Media items saved to the gallery",
		}, []string{"type"}),
		CaptureErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoomcam_capture_errors_total",
			Help: "Failed captures",
		}, []string{"type"}),
		GalleryItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zoomcam_gallery_items",
			Help: "Items currently stored in the gallery",
		}),
	}

	m.registry.MustRegister(
		m.PinchSessions,
		m.Zoom,
		m.Captures,
		m.CaptureErrors,
		m.GalleryItems,
	)

	return m
}

// Captured records the outcome of a capture of the given media type.
func (m *Metrics) Captured(typ string, err error) {
	if err != nil {
		m.CaptureErrors.WithLabelValues(typ).Inc()
		return
	}
	m.Captures.WithLabelValues(typ).Inc()
}

type Counter interface {
	Count() (int, error)
}

// SyncGallery sets the gallery gauge to the number of stored items. Items
// can be removed by other processes, so the store is the source of truth.
func (m *Metrics) SyncGallery(c Counter) error {
	n, err := c.Count()
	if err != nil {
		return err
	}
	m.GalleryItems.Set(float64(n))
	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
