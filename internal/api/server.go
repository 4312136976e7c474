// Package api serves the analysis engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/codescope/internal/analysis"
	"github.com/QTest-hq/codescope/internal/config"
	"github.com/QTest-hq/codescope/internal/github"
	"github.com/QTest-hq/codescope/pkg/model"
)

// maxBodyBytes bounds JSON and multipart request bodies
const maxBodyBytes = 64 << 20

// ReportStore persists repository reports
type ReportStore interface {
	SaveReport(ctx context.Context, report *model.RepositoryReport, repoURL, commitSHA string) error
	GetReport(ctx context.Context, id uuid.UUID) (*model.RepositoryReport, error)
	Ping(ctx context.Context) error
}

// RepoFetcher resolves a repository URL into source files
type RepoFetcher interface {
	Fetch(ctx context.Context, rawURL string, overrides *config.ProjectConfig) (*github.Checkout, error)
}

// Dependencies are the optional collaborators of a Server. A nil Store
// disables persistence and a nil Fetcher disables repository URLs.
type Dependencies struct {
	Analyzer *analysis.Analyzer
	Store    ReportStore
	Fetcher  RepoFetcher
}

// Server represents the API server
type Server struct {
	cfg      *config.Config
	router   *chi.Mux
	analyzer *analysis.Analyzer
	store    ReportStore
	fetcher  RepoFetcher
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.New(cfg.Analysis)
	}
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		analyzer: deps.Analyzer,
		store:    deps.Store,
		fetcher:  deps.Fetcher,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	timeout := 120 * time.Second
	if s.cfg != nil && s.cfg.RequestTimeout > 0 {
		timeout = s.cfg.RequestTimeout
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
	s.router.Use(middleware.Timeout(timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ready", s.readyCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/parse-code", s.parseCode)
		r.Post("/upload-file", s.uploadFile)
		r.Post("/code-analysis", s.analyzeCode)
		r.Post("/parse-swagger", s.parseSwagger)
		r.Get("/supported-languages", s.supportedLanguages)
		r.Get("/reports/{reportID}", s.getReport)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("readiness check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
