package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportProvider exposes the outcome of the most recent successful run.
type ReportProvider interface {
	LastReport() (domain.Report, bool)
}

// Status is the checker and report source behind the server, typically the pipeline.
type Status interface {
	sharedobs.ReadinessChecker
	ReportProvider
}

// WithDependencies extends a Status so readiness also requires every extra
// checker (databases, brokers) to pass. Checks run in order; the first
// failure is reported.
func WithDependencies(status Status, deps ...sharedobs.ReadinessChecker) Status {
	if len(deps) == 0 {
		return status
	}
	return dependentStatus{Status: status, deps: deps}
}

type dependentStatus struct {
	Status
	deps []sharedobs.ReadinessChecker
}

func (d dependentStatus) CheckReadiness(ctx context.Context) error {
	if err := d.Status.CheckReadiness(ctx); err != nil {
		return err
	}
	for _, dep := range d.deps {
		if err := dep.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes health, readiness, metrics and the latest run summary over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and /summary routes.
func NewServer(addr string, status Status, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(status))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /summary", handleSummary(status))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type summaryResponse struct {
	RunID       string          `json:"run_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	GeneratedAt time.Time       `json:"generated_at"`
	Pairs       int             `json:"pairs"`
	Summary     *domain.Summary `json:"summary"`
	Lines       []string        `json:"lines"`
}

// handleSummary reports the statistics of the last run without the pair list.
// A run that found no pairs returns "summary": null rather than zeros.
func handleSummary(reports ReportProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		r, ok := reports.LastReport()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed run"})
			return
		}
		writeJSON(w, http.StatusOK, summaryResponse{
			RunID:       r.RunID,
			StartDate:   r.Range.StartDate(),
			EndDate:     r.Range.EndDate(),
			GeneratedAt: r.GeneratedAt,
			Pairs:       len(r.Pairs),
			Summary:     r.Summary,
			Lines:       r.SummaryLines(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
