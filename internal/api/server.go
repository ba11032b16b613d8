package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/twoLoop-40/hwp-transformer/internal/config"
	"github.com/twoLoop-40/hwp-transformer/internal/metrics"
	"github.com/twoLoop-40/hwp-transformer/internal/pipeline"
)

// Server is the HTTP API server for the transcription service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	metrics      metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, m metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(MetricsMiddleware(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.NewMetricsHandler(s.metrics, s.log))

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/transcribe", s.handleTranscribe)
		r.Get("/api/transcribe/{jobID}/status", s.handleTranscribeStatus)
		r.Get("/api/transcribe/{jobID}/document", s.handleDownload)
		r.Delete("/api/transcribe/{jobID}", s.handleDeleteJob)
		r.Get("/api/stats/queue", s.handleQueueStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
