package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"grammarbridge/internal/core/app"
	"grammarbridge/internal/core/errors"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ObservabilityServer struct {
	addr          string
	app           *app.App
	healthService *app.HealthService
	server        *http.Server
}

func NewObservabilityServer(addr string, a *app.App) *ObservabilityServer {
	return &ObservabilityServer{
		addr:          addr,
		app:           a,
		healthService: app.NewHealthService(a),
	}
}

type exportsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler returns the mux serving /metrics, /health and /exports.
func (s *ObservabilityServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.healthService.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	// Export table of the bound module; Externals are described, never dereferenced.
	mux.HandleFunc("/exports", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		exports, err := s.app.Load()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(exportsError{Code: string(errors.CodeOf(err)), Message: err.Error()})
			return
		}
		json.NewEncoder(w).Encode(app.Describe(exports))
	})
	return mux
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
