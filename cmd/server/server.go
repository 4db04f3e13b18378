package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-cmis/pkg/cmis/api"
	"github.com/tendant/simple-cmis/pkg/cmis/config"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// HTTPServer exposes the CMIS service over HTTP.
type HTTPServer struct {
	service *service.Service
	config  *config.ServerConfig
	logger  *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(svc *service.Service, cfg *config.ServerConfig, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{service: svc, config: cfg, logger: logger}
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status       string   `json:"status"`
	Environment  string   `json:"environment"`
	Storage      string   `json:"storage"`
	Repositories []string `json:"repositories"`
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	if s.config.Environment == "development" {
		r.Use(cors)
	}

	r.Get("/health", s.handleHealth)
	if s.config.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	handler := api.NewHandler(s.service,
		api.WithJWTSecret(s.config.JWTSecret),
		api.WithLogger(s.logger))
	r.Mount("/repositories", handler.Routes())

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	infos := s.service.RepositoryInfos(r.Context())
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	render.JSON(w, r, HealthResponse{
		Status:       "healthy",
		Environment:  s.config.Environment,
		Storage:      s.config.Storage.Type,
		Repositories: ids,
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+api.UserHeader+", "+api.FileNameHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
