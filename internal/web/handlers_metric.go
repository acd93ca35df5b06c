package web

import (
	"net/http"

	"github.com/JonMunkholm/eda/internal/metric"
)

// MetricRequest is the body of /api/metric.
type MetricRequest struct {
	Expression string `json:"expression"`
}

// handleMetric evaluates a custom metric against the visible table. With
// ?download=1 the result is sent as a file instead of JSON.
func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	var req MetricRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.service.EvaluateMetric(r.Context(), sessionID(r), req.Expression)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("download") == "1" {
		data, filename, contentType := metric.Export(res)
		writeAttachment(w, data, filename, contentType)
		return
	}
	writeJSON(w, res)
}
