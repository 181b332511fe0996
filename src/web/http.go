// Package web is the dashboard's HTTP surface: it stands in for the browser
// page, accepting filter changes and serving chart images and exports.
package web

import (
	"context"
	"encoding/json"
	"image"
	"net/http"

	"github.com/iafilius/JobAnalytics/src/bootstrap"
	"github.com/iafilius/JobAnalytics/src/charts"
	"github.com/iafilius/JobAnalytics/src/metrics"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/types"
)

// Controller is the refresh side used by the filter handlers.
type Controller interface {
	Refresh(ctx context.Context, f types.FilterState) (refresh.Outcome, error)
	Reset(ctx context.Context) (refresh.Outcome, error)
	Filters() types.FilterState
	Last() (types.Payload, bool)
}

// ChartReader is the read side of the chart registry.
type ChartReader interface {
	Snapshots() []charts.ChartState
	Surface(s charts.Slot) image.Image
}

// StatusReader exposes spinner visibility and notices.
type StatusReader interface {
	Snapshot() refresh.StatusSnapshot
}

// Deps bundles everything the handlers need.
type Deps struct {
	Controller Controller
	Charts     ChartReader
	Status     StatusReader
	Options    bootstrap.FilterOptions
	Metrics    *metrics.Metrics
}

// Server wires HTTP routes for the dashboard.
type Server struct {
	deps Deps
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	m := s.deps.Metrics
	mux.HandleFunc("GET /healthz", MetricsMiddleware(m, "healthz", s.handleHealth))
	mux.HandleFunc("GET /charts", MetricsMiddleware(m, "charts", s.handleCharts))
	mux.HandleFunc("GET /charts/{file}", MetricsMiddleware(m, "chart_png", s.handleChartPNG))
	mux.HandleFunc("GET /filters", MetricsMiddleware(m, "filters", s.handleGetFilters))
	mux.HandleFunc("POST /filters", MetricsMiddleware(m, "filters_change", s.handleFilterChange))
	mux.HandleFunc("POST /reset", MetricsMiddleware(m, "reset", s.handleReset))
	mux.HandleFunc("GET /status", MetricsMiddleware(m, "status", s.handleStatus))
	mux.HandleFunc("GET /export.png", MetricsMiddleware(m, "export_png", s.handleExportPNG))
	mux.HandleFunc("GET /export.xlsx", MetricsMiddleware(m, "export_xlsx", s.handleExportXLSX))
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
