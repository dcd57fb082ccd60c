package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Safety pipeline metrics
	SafetyFilterTotal     *prometheus.CounterVec
	StoryValidationsTotal *prometheus.CounterVec
	EffectsDroppedTotal   *prometheus.CounterVec

	// Drawing analysis metrics
	DrawingAnalysesTotal    *prometheus.CounterVec
	DrawingAnalysisDuration *prometheus.HistogramVec

	// Story generation metrics
	StoriesGeneratedTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Telegram metrics
	TelegramMessagesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		SafetyFilterTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safety_filter_total",
				Help: "Content filter runs by final stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		StoryValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_validations_total",
				Help: "Story validations by result",
			},
			[]string{"result"},
		),
		EffectsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "effects_dropped_total",
				Help: "Sound effects and animations removed by the validator",
			},
			[]string{"kind"},
		),

		DrawingAnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drawing_analyses_total",
				Help: "Drawing analyses by detector backend and status",
			},
			[]string{"backend", "status"},
		),
		DrawingAnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drawing_analysis_duration_seconds",
				Help:    "Duration of drawing analyses in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),

		StoriesGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stories_generated_total",
				Help: "Stories generated by generator and status",
			},
			[]string{"generator", "status"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		TelegramMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_messages_total",
				Help: "Telegram messages by direction",
			},
			[]string{"direction"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.SafetyFilterTotal)
	m.registry.MustRegister(m.StoryValidationsTotal)
	m.registry.MustRegister(m.EffectsDroppedTotal)

	m.registry.MustRegister(m.DrawingAnalysesTotal)
	m.registry.MustRegister(m.DrawingAnalysisDuration)

	m.registry.MustRegister(m.StoriesGeneratedTotal)

	m.registry.MustRegister(m.HTTPRequestsTotal)
	m.registry.MustRegister(m.HTTPRequestDuration)

	m.registry.MustRegister(m.TelegramMessagesTotal)
}

// FilterResult records the stage a content filter run ended at.
func (m *Metrics) FilterResult(stage string, passed bool) {
	m.SafetyFilterTotal.WithLabelValues(stage, outcome(passed, "passed", "fallback")).Inc()
}

func (m *Metrics) StoryValidated(safe bool) {
	m.StoryValidationsTotal.WithLabelValues(outcome(safe, "safe", "fallback")).Inc()
}

func (m *Metrics) EffectDropped(kind string) {
	m.EffectsDroppedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) DrawingAnalyzed(backend string, err error, d time.Duration) {
	m.DrawingAnalysesTotal.WithLabelValues(backend, outcome(err == nil, "ok", "error")).Inc()
	m.DrawingAnalysisDuration.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) StoryGenerated(generator string, err error) {
	m.StoriesGeneratedTotal.WithLabelValues(generator, outcome(err == nil, "ok", "error")).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) TelegramMessage(direction string) {
	m.TelegramMessagesTotal.WithLabelValues(direction).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
