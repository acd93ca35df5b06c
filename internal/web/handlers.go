package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/web/templates"
)

// handleDashboard renders the workbench page for the caller's session.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)

	state, err := s.service.State(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data := templates.DashboardData{
		SessionID:             id,
		State:                 state,
		NumericStrategies:     core.NumericStrategies,
		CategoricalStrategies: core.CategoricalStrategies,
	}

	if rep, pending, err := s.service.PendingReport(id); err == nil && pending {
		data.Pending = &rep
	}
	if state.Initialized {
		// The page still renders if the session disappears between calls.
		if page, err := s.service.GetTableData(id, 1, core.DefaultPageSize); err == nil {
			data.Page = page
		}
		if history, err := s.service.History(id); err == nil {
			data.History = history
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Dashboard(data).Render(r.Context(), w)
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status   string             `json:"status"`
	Sessions int                `json:"sessions"`
	Loads    core.LimiterStatus `json:"loads"`
}

// handleHealth reports liveness and load limiter usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Loads:    s.service.LimiterStatus(),
	})
}

// respondState answers a session mutation: HTMX clients get the refreshed
// dataset panel, everyone else the new state as JSON.
func (s *Server) respondState(w http.ResponseWriter, r *http.Request, state core.State) {
	if !isHTMX(r) {
		writeJSON(w, state)
		return
	}
	page, err := s.service.GetTableData(sessionID(r), parseIntParam(r, "page", 1), core.DefaultPageSize)
	if err != nil && !errors.Is(err, core.ErrNoDataset) {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.DatasetPanel(state, page).Render(r.Context(), w)
}
