package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/services"
	"github.com/ashwini-1013/org-workspace/internal/worker"
)

// Recommender answers prompts.
type Recommender interface {
	Recommend(ctx context.Context, prompt string) (services.Recommendation, error)
}

// StatsProvider summarizes the catalog.
type StatsProvider interface {
	Stats(ctx context.Context) (services.CatalogStats, error)
}

// JobQueue accepts background ingestion jobs.
type JobQueue interface {
	Submit(path string) (worker.Job, error)
	Get(id string) (worker.Job, error)
}

// Options configures the router.
type Options struct {
	// RateLimit requests per RateLimitWindow per client IP on /api/recommend.
	// Zero disables throttling.
	RateLimit       int
	RateLimitWindow time.Duration
	// DefaultCatalogPath is ingested when POST /api/ingest names no path.
	DefaultCatalogPath string
	// CatalogDir confines client-supplied ingestion paths. When empty, only
	// DefaultCatalogPath can be ingested.
	CatalogDir string
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	recommender Recommender
	stats       StatsProvider
	jobs        JobQueue
	opts        Options
	validate    *validator.Validate
	logger      zerolog.Logger
	router      chi.Router
}

// NewHandler initializes the HTTP adapter and sets up routes. jobs may be
// nil, in which case the ingestion endpoints are not mounted.
func NewHandler(recommender Recommender, stats StatsProvider, jobs JobQueue, opts Options, logger zerolog.Logger) *Handler {
	h := &Handler{
		recommender: recommender,
		stats:       stats,
		jobs:        jobs,
		opts:        opts,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With().Str("component", "http").Logger(),
		router:      chi.NewRouter(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.router
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.opts.RateLimit > 0 {
				window := h.opts.RateLimitWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(httprate.LimitByIP(h.opts.RateLimit, window))
			}
			r.Post("/recommend", h.Recommend)
		})
		r.Get("/stats", h.Stats)
		if h.jobs != nil {
			r.Post("/ingest", h.SubmitIngest)
			r.Get("/ingest/{id}", h.GetIngest)
		}
	})
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "SongSense is live 🎶"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}
