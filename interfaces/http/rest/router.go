package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mindgraph/application/ports"
	"mindgraph/application/services"
	"mindgraph/interfaces/http/rest/handlers"
	"mindgraph/interfaces/http/rest/middleware"
	"mindgraph/pkg/auth"
	pkgerrors "mindgraph/pkg/errors"
	"mindgraph/pkg/observability"
)

// APIPrefix is the mount point of the versioned API
const APIPrefix = "/api/v1"

// Options carries the optional parts of the router
type Options struct {
	Validator      *auth.JWTValidator
	TrustGateway   bool
	Limiter        auth.RateLimiter
	AllowedOrigins []string
	EnableCORS     bool
	EnableMetrics  bool
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	store       *services.DocumentStore
	connections *services.ConnectionService
	health      ports.HealthChecker
	metrics     *observability.Collector
	opts        Options
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	store *services.DocumentStore,
	connections *services.ConnectionService,
	health ports.HealthChecker,
	metrics *observability.Collector,
	opts Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:       store,
		connections: connections,
		health:      health,
		metrics:     metrics,
		opts:        opts,
		errors:      pkgerrors.NewErrorHandler(logger, opts.Debug),
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}
	router.Use(rt.errors.Middleware)

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Location"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	documents := handlers.NewDocumentHandler(rt.store, rt.errors, rt.logger)
	analysis := handlers.NewAnalysisHandler(rt.store, rt.connections, rt.errors, rt.logger)
	transfer := handlers.NewTransferHandler(rt.store, rt.errors, rt.logger)

	router.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{
			Validator:    rt.opts.Validator,
			TrustGateway: rt.opts.TrustGateway,
			Errors:       rt.errors,
			Logger:       rt.logger,
		}))
		if rt.opts.Limiter != nil {
			r.Use(middleware.RateLimit(rt.opts.Limiter, rt.errors))
		}

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documents.CreateDocument)
			r.Get("/", documents.ListDocuments)
			r.Delete("/", documents.ClearDocuments)

			r.Route("/{documentID}", func(r chi.Router) {
				r.Get("/", documents.GetDocument)
				r.Patch("/", documents.UpdateDocument)
				r.Delete("/", documents.DeleteDocument)
				r.Get("/connected", analysis.Connected)
				r.Get("/flow", analysis.Flow)
			})
		})

		r.Get("/search", documents.Search)
		r.Get("/stats", documents.Stats)
		r.Get("/keywords", analysis.Keywords)
		r.Get("/network", analysis.Network)
		r.Get("/connections", analysis.Connections)
		r.Post("/score", analysis.Score)
		r.Get("/export", transfer.Export)
		r.Post("/import", transfer.Import)
	})

	return router
}

// healthCheck reports that the process is serving
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck pings the storage medium
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.HandleStatus(w, req, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
