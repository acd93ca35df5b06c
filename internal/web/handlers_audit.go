package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/eda/internal/core"
)

const auditPageSize = 50

// handleAuditLog lists the caller's audit entries, newest first.
//
// Query parameters: action, from (YYYY-MM-DD or RFC 3339), page, limit.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", auditPageSize), core.DefaultAuditLimit)
	page := parseIntParam(r, "page", 1)

	filter := core.AuditFilter{
		Action: core.AuditAction(r.URL.Query().Get("action")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if from := r.URL.Query().Get("from"); from != "" {
		since, err := parseSince(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		filter.Since = since
	}

	entries, err := s.service.QueryAuditLog(r.Context(), sessionID(r), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, entries)
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
