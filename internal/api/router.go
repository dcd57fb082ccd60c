// Package api assembles the HTTP surface of the storytelling service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nikhilbhutani/sketchstories/internal/api/handlers"
	"github.com/nikhilbhutani/sketchstories/internal/api/middleware"
	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/guardrails"
	"github.com/nikhilbhutani/sketchstories/internal/metrics"
)

// Deps are the services the router exposes. Queue may be nil when no
// worker is deployed.
type Deps struct {
	Log            zerolog.Logger
	Metrics        *metrics.Metrics
	Auth           *auth.JWTMiddleware
	Health         map[string]handlers.Pinger
	Drawings       handlers.Drawings
	Teller         handlers.Teller
	Queue          handlers.Enqueuer
	Analyzer       handlers.Analyzer
	Stories        handlers.StoryCreator
	Filter         *guardrails.ContentFilter
	Validator      *guardrails.StoryValidator
	DefaultAge     guardrails.AgeGroup
	AllowedOrigins []string
	RateLimit      config.RateLimitConfig
}

type Router struct {
	mux     *chi.Mux
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		deps:    deps,
		limiter: middleware.NewRateLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst),
	}
}

// Close stops the rate limiter's background cleanup.
func (rt *Router) Close() {
	rt.limiter.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	d := rt.deps

	var observer middleware.RequestObserver
	if d.Metrics != nil {
		observer = d.Metrics
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(d.Log, observer))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	health := handlers.NewHealthHandler(d.Health)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.limiter.Limit)
		r.Use(d.Auth.Authenticate)

		drawingH := handlers.NewDrawingHandler(d.Drawings, d.Queue, d.DefaultAge)
		storyH := handlers.NewStoryHandler(d.Drawings, d.Teller, d.Queue)
		r.Route("/drawings", func(r chi.Router) {
			r.Post("/", drawingH.Create)
			r.Get("/", drawingH.List)
			r.Get("/{id}", drawingH.Get)
			r.Patch("/{id}", drawingH.Update)
			r.Delete("/{id}", drawingH.Delete)
			r.Post("/{id}/stories", storyH.Create)
			r.Get("/{id}/stories", storyH.List)
		})

		processH := handlers.NewProcessHandler(d.Analyzer, d.Stories, d.DefaultAge)
		r.Post("/process-drawing", processH.ProcessDrawing)
		r.Post("/generate-story", processH.GenerateStory)

		safetyH := handlers.NewSafetyHandler(d.Filter, d.Validator, d.DefaultAge)
		r.Route("/safety", func(r chi.Router) {
			r.Post("/filter", safetyH.Filter)
			r.Post("/validate", safetyH.Validate)
		})
	})

	return r
}
