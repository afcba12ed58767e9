package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/handout-assistant/internal/core/ports"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/handout-assistant/internal/observability/metrics"
)

const serviceName = "api"

// BreakerReporter exposes upstream circuit breaker states on /healthz.
type BreakerReporter interface {
	BreakerStates() []resilience.BreakerState
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64
	Breakers       BreakerReporter
}

type Router struct {
	handouts ports.HandoutService
	metrics  *metrics.HTTPServerMetrics
	opts     Options
}

// NewRouter wires the handout API. metrics may be nil.
func NewRouter(handouts ports.HandoutService, httpMetrics *metrics.HTTPServerMetrics, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Router{
		handouts: handouts,
		metrics:  httpMetrics,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	r.Route("/v1/handouts", func(r chi.Router) {
		r.Post("/", rt.uploadHandout)
		r.Route("/{handoutID}", func(r chi.Router) {
			r.Get("/", rt.getHandout)
			r.Post("/questions", rt.askQuestion)
			r.Get("/questions", rt.listQuestions)
			r.Get("/questions/export", rt.exportQuestions)
			r.Post("/highlights", rt.requestHighlight)
			r.Get("/highlighted", rt.downloadHighlighted)
		})
	})

	var handler http.Handler = r
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return handler
}

// healthz reports "degraded" while any upstream breaker is open; the API
// itself still answers 200.
func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	var breakers []resilience.BreakerState
	if rt.opts.Breakers != nil {
		breakers = rt.opts.Breakers.BreakerStates()
	}
	for _, breaker := range breakers {
		if breaker.State == "open" {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "breakers": breakers})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	})
}
