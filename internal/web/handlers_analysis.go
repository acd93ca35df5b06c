package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eda/internal/chart"
	"github.com/JonMunkholm/eda/internal/stats"
)

// handleStats returns descriptive statistics for ?cols= (default: all numeric).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Describe(sessionID(r), parseColumns(r, "cols"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleOutliers returns IQR outlier reports keyed by column.
func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Outliers(sessionID(r), parseColumns(r, "cols"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleCorrelations returns the correlation matrix for ?method=.
func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Correlate(sessionID(r), r.URL.Query().Get("method"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handlePivot builds a pivot table.
func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	var req stats.PivotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.service.Pivot(sessionID(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleChart returns a Plotly-compatible figure.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := chart.Request{
		Kind:  chart.Kind(chi.URLParam(r, "kind")),
		X:     q.Get("x"),
		Y:     q.Get("y"),
		Ys:    parseColumns(r, "ys"),
		Color: q.Get("color"),
		Title: q.Get("title"),
	}
	if bins := q.Get("bins"); bins != "" {
		n, err := strconv.Atoi(bins)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bins must be a positive integer")
			return
		}
		req.Bins = n
	}

	fig, err := s.service.Chart(sessionID(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, fig)
}
