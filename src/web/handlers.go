package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iafilius/JobAnalytics/src/bootstrap"
	"github.com/iafilius/JobAnalytics/src/charts"
	"github.com/iafilius/JobAnalytics/src/export"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/types"
)

var errNoData = errors.New("no analytics data has been applied yet")

type filtersResponse struct {
	Filters types.FilterState       `json:"filters"`
	Options bootstrap.FilterOptions `json:"options"`
}

type refreshResponse struct {
	Outcome refresh.Outcome   `json:"outcome"`
	Filters types.FilterState `json:"filters"`
	Warning string            `json:"warning,omitempty"`
}

func (s *Server) handleCharts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Charts.Snapshots())
}

// handleChartPNG serves /charts/{slot}.png.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("unknown chart %q", r.PathValue("file")))
		return
	}
	slot, ok := charts.ParseSlot(name)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("unknown chart %q", name))
		return
	}
	img := s.deps.Charts.Surface(slot)
	if img == nil {
		writeError(w, http.StatusNotFound, "not_rendered", fmt.Errorf("chart %q is not rendered", name))
		return
	}
	var buf bytes.Buffer
	if err := export.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGetFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, filtersResponse{
		Filters: s.deps.Controller.Filters(),
		Options: s.deps.Options,
	})
}

// handleFilterChange reads city and type from the query or form body and runs
// one synchronous refresh. A missing field means "no filter".
func (s *Server) handleFilterChange(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	f := types.FilterState{
		City: strings.TrimSpace(r.Form.Get("city")),
		Type: strings.TrimSpace(r.Form.Get("type")),
	}
	outcome, err := s.deps.Controller.Refresh(r.Context(), f)
	s.writeOutcome(w, f, outcome, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.deps.Controller.Reset(r.Context())
	s.writeOutcome(w, types.FilterState{}, outcome, err)
}

func (s *Server) writeOutcome(w http.ResponseWriter, f types.FilterState, outcome refresh.Outcome, err error) {
	if err != nil {
		writeError(w, http.StatusBadGateway, "refresh_failed", err)
		return
	}
	resp := refreshResponse{Outcome: outcome, Filters: f}
	if outcome == refresh.OutcomeEmpty {
		resp.Warning = refresh.NoMatchMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Status == nil {
		writeJSON(w, http.StatusOK, refresh.StatusSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Status.Snapshot())
}

func (s *Server) handleExportPNG(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, export.Composite(s.deps.Charts)); err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", err)
		return
	}
	s.deps.Metrics.RecordExport("png")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.Filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, _ *http.Request) {
	p, ok := s.deps.Controller.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no_data", errNoData)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, p); err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", err)
		return
	}
	s.deps.Metrics.RecordExport("xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.WorkbookFilename))
	_, _ = w.Write(buf.Bytes())
}
