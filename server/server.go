package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"apppulse/models"
	"apppulse/services"
	"apppulse/utils"
)

// DatasetLoader supplies the dataset for every request.
type DatasetLoader interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

type Server struct {
	loader   DatasetLoader
	insights *services.InsightService
	logger   *utils.Logger
}

func NewServer(loader DatasetLoader, insights *services.InsightService, logger *utils.Logger) *Server {
	return &Server{
		loader:   loader,
		insights: insights,
		logger:   logger.With("http"),
	}
}

// SetupRoutes returns the dashboard handler with request logging applied.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.Dashboard)
	mux.HandleFunc("GET /api/dashboard", s.DashboardJSON)
	mux.HandleFunc("GET /api/categories", s.Categories)
	mux.HandleFunc("GET /export.csv", s.ExportCSV)
	mux.HandleFunc("GET /export.xlsx", s.ExportXLSX)
	mux.HandleFunc("GET /health", s.HealthCheck)

	return s.withRequestID(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Dashboard listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.logger.Info("Dashboard stopped")
		return nil
	}
}

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{"status": "ok"}

	ds, err := s.loader.Load(r.Context())
	if err != nil {
		response["dataset"] = "unavailable"
	} else {
		response["dataset"] = ds.Source
		response["apps"] = ds.Len()
	}
	s.writeJSON(w, http.StatusOK, response)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags each request with an X-Request-ID and logs its outcome.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		line := "%s %s %s -> %d (%v)"
		args := []any{id, r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Millisecond)}
		switch {
		case rec.status >= 500:
			s.logger.Error(line, args...)
		case rec.status >= 400:
			s.logger.Warn(line, args...)
		default:
			s.logger.Debug(line, args...)
		}
	})
}

// writeJSON encodes data before sending any header, so an encoding failure
// becomes a 500 instead of an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		s.logger.Error("encode response: %v", err)
		buf.Reset()
		buf.WriteString(`{"error": "internal error"}` + "\n")
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Failed to send response: %v", err)
	}
}
