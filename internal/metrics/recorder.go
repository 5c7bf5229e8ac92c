// Package metrics records preview server telemetry with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every series when none is configured.
const DefaultNamespace = "showcase"

// Render kinds observed by ObserveRender.
const (
	KindPage  = "page"
	KindMedia = "media"
)

// Recorder is nil safe: every method on a nil *Recorder is a no-op.
type Recorder struct {
	registry          *prom.Registry
	requests          *prom.CounterVec
	renderDuration    *prom.HistogramVec
	materialized      *prom.CounterVec
	shortcodeDuration *prom.HistogramVec
	shortcodeErrors   *prom.CounterVec
}

// NewRecorder registers the showcase series on reg, or on a fresh registry
// when reg is nil.
func NewRecorder(reg *prom.Registry, namespace string) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}

	r := &Recorder{registry: reg}
	r.requests = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "status"})
	r.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Duration of preview renders by kind",
		Buckets:   prom.DefBuckets,
	}, []string{"kind"})
	r.materialized = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "materialized_total",
		Help:      "Catalog records processed by kind and outcome",
	}, []string{"kind", "outcome"})
	r.shortcodeDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "shortcode_render_duration_seconds",
		Help:      "Duration of shortcode renders",
		Buckets:   prom.DefBuckets,
	}, []string{"shortcode"})
	r.shortcodeErrors = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "shortcode_render_errors_total",
		Help:      "Shortcode render failures",
	}, []string{"shortcode"})

	reg.MustRegister(r.requests, r.renderDuration, r.materialized, r.shortcodeDuration, r.shortcodeErrors)
	return r
}

// Registry returns the registry the series live in.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry with OpenMetrics enabled.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) IncRequest(route string, status int) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, statusLabel(status)).Inc()
}

func (r *Recorder) ObserveRender(kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveMaterialized counts one catalog record outcome.
func (r *Recorder) ObserveMaterialized(kind, outcome string) {
	if r == nil {
		return
	}
	r.materialized.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) ObserveRenderDuration(shortcode string, d time.Duration) {
	if r == nil {
		return
	}
	r.shortcodeDuration.WithLabelValues(shortcode).Observe(d.Seconds())
}

func (r *Recorder) IncrementRenderError(shortcode string) {
	if r == nil {
		return
	}
	r.shortcodeErrors.WithLabelValues(shortcode).Inc()
}

func statusLabel(status int) string {
	if status <= 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}
