package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carry the transport settings that are not handler state.
type RouterOptions struct {
	AllowedOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	// Health
	r.Get("/", h.ping)
	r.Get("/healthz", h.healthz)

	// ===== Pipelines =====
	r.Route("/pipelines", func(r chi.Router) {
		r.Post("/parse", h.parsePipeline)
		if h.src != nil {
			r.Get("/{id}", h.getPipeline)
		}
	})

	// ===== Admin =====
	if h.audit != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Get("/check/global-cycles", h.checkGlobalCycles)
			r.Get("/audit/last", h.lastAudit)
		})
	}

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	return r
}
