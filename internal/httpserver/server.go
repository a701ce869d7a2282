package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gestfact/payments/internal/config"
	"github.com/gestfact/payments/internal/konnect"
	"github.com/gestfact/payments/internal/logger"
	"github.com/gestfact/payments/internal/metrics"
	"github.com/gestfact/payments/internal/ratelimit"
	"github.com/gestfact/payments/internal/storage"
	"github.com/gestfact/payments/internal/webhook"
)

var serverStartTime = time.Now()

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg       *config.Config
	store     storage.Store
	limiter   ratelimit.Limiter // per-IP limiter for the webhook endpoint
	gateway   *konnect.Client
	processor *webhook.Processor
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New builds the HTTP server with configured router.
func New(cfg *config.Config, store storage.Store, limiter ratelimit.Limiter, gateway *konnect.Client, processor *webhook.Processor, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:       cfg,
			store:     store,
			limiter:   limiter,
			gateway:   gateway,
			processor: processor,
			metrics:   metricsCollector,
			logger:    appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	s.configureRouter(router)

	return s
}

// configureRouter attaches middleware and routes.
func (h *handlers) configureRouter(router chi.Router) {
	// The gateway calls the webhook endpoint cross-origin, so CORS headers go
	// on every response, error responses included.
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	router.Use(securityHeadersMiddleware)

	// Logging middleware before RequestID so the request-scoped logger is in
	// context for everything downstream.
	router.Use(logger.Middleware(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(h.recoverer)

	router.Use(ratelimit.GlobalLimiter(ratelimit.Config{
		GlobalEnabled: h.cfg.RateLimit.GlobalEnabled,
		GlobalLimit:   h.cfg.RateLimit.GlobalLimit,
		GlobalWindow:  h.cfg.RateLimit.GlobalWindow.Duration,
	}))

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/healthz", h.health)
		r.Handle("/metrics", promhttp.Handler())
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// The webhook route accepts all methods and rejects non-POST itself:
		// the gateway expects a JSON 405 with CORS headers, not chi's default.
		r.HandleFunc("/webhook/konnect", h.konnectWebhook)

		r.Post("/api/v1/payments/init", h.initPayment)
		r.Get("/api/v1/payments/{paymentRef}", h.getPayment)
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
