package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eda/internal/core"
)

// FilterRequest is the body of /api/dataset/filter.
type FilterRequest struct {
	Filters core.FilterSpec `json:"filters"`
	Sort    *core.SortSpec  `json:"sort,omitempty"`
}

// handleFilter re-derives the visible table from the filter base.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Sort != nil {
		if req.Sort.Column == "" {
			req.Sort = nil
		} else {
			req.Sort.Direction = core.ParseDirection(string(req.Sort.Direction))
		}
	}

	state, err := s.service.ApplyFilterSort(r.Context(), sessionID(r), req.Filters, req.Sort)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondState(w, r, state)
}

// handleResetFilters returns to the unfiltered dataset.
func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.ResetFilters(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondState(w, r, state)
}

// handleUndo steps back one snapshot.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Undo(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondState(w, r, state)
}

// handleDeleteColumn removes a column from the dataset.
func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	column, err := url.PathUnescape(chi.URLParam(r, "column"))
	if err != nil || column == "" {
		writeError(w, http.StatusBadRequest, "missing column name")
		return
	}

	state, err := s.service.DeleteColumn(r.Context(), sessionID(r), column)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondState(w, r, state)
}

// handleEditCell changes a single cell of the visible table.
func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var edit core.CellEdit
	if !decodeJSON(w, r, &edit) {
		return
	}
	if edit.Column == "" {
		writeError(w, http.StatusBadRequest, "missing column name")
		return
	}

	res, err := s.service.EditCell(r.Context(), sessionID(r), edit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}
