package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Formatted appropriately based on request type (HTMX, JSON, or HTML)
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls fail(w, r, err), which picks the status with statusFor
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request and session IDs
//  5. User message is rendered in appropriate format for the client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/eda/internal/chart"
	"github.com/JonMunkholm/eda/internal/core"
	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/stats"
	"github.com/JonMunkholm/eda/internal/table"
	"github.com/JonMunkholm/eda/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// fail responds to a service error with the status statusFor picks.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		loadErr *table.LoadError
		evalErr *metric.EvaluationError
	)
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, chart.ErrUnknownColumn):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoDataset),
		errors.Is(err, core.ErrNoHistory),
		errors.Is(err, core.ErrNoPendingLoad):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmptyResult),
		errors.Is(err, core.ErrUnknownStrategy),
		errors.Is(err, table.ErrInvalidCell),
		errors.Is(err, table.ErrRowOutOfRange),
		errors.Is(err, stats.ErrTooFewColumns),
		errors.Is(err, stats.ErrUnknownMethod),
		errors.Is(err, stats.ErrInvalidPivot),
		errors.Is(err, stats.ErrUnknownAgg),
		errors.Is(err, chart.ErrNotNumeric),
		errors.Is(err, chart.ErrUnknownKind),
		errors.As(err, &loadErr),
		errors.As(err, &evalErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, statusCode)
	} else if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode, userDetail(err))
	} else {
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Detail:  detail,
	})
}

// userDetail returns the technical text of errors caused by the caller's
// own input, which is safe and useful to show: metric faults and CSV
// parse failures.
func userDetail(err error) string {
	var (
		evalErr *metric.EvaluationError
		loadErr *table.LoadError
	)
	switch {
	case errors.As(err, &evalErr):
		return evalErr.Error()
	case errors.As(err, &loadErr):
		return loadErr.Error()
	default:
		return ""
	}
}

// respondErrorHTML writes a plain HTML error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
