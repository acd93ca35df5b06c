package web

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/JonMunkholm/eda/internal/core"
)

// DatasetResponse is the state of a session together with one page of rows.
type DatasetResponse struct {
	State   core.State      `json:"state"`
	Pending bool            `json:"pending"`
	Data    *core.TablePage `json:"data,omitempty"`
}

// handleGetDataset returns the session state and a page of the visible table.
// A session without a dataset answers with its state alone.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	state, err := s.service.State(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, pending, err := s.service.PendingReport(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := DatasetResponse{State: state, Pending: pending}
	if state.Initialized {
		page := parseIntParam(r, "page", 1)
		pageSize := parseIntParam(r, "page_size", core.DefaultPageSize)
		resp.Data, err = s.service.GetTableData(id, page, pageSize)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, resp)
}

// handleHistory returns the undo history, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.History(sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, history)
}

// handleExport downloads the visible table as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), sessionID(r), &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	writeAttachment(w, buf.Bytes(), exportName(r.URL.Query().Get("name")), "text/csv")
}

// exportName builds a download file name from an optional base name.
func exportName(base string) string {
	base = strings.TrimSuffix(path.Base(strings.TrimSpace(base)), ".csv")
	if base == "" || base == "." || base == "/" {
		base = "dataset"
	}
	return fmt.Sprintf("%s_%s.csv", base, time.Now().Format("20060102_150405"))
}
