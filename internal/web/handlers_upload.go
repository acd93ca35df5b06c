package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/eda/internal/core"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 32 << 20

// handleUpload loads a CSV file into the caller's session. Files without
// missing cells initialize the session at once; otherwise the response
// carries the missing-value report and the client follows up with
// /api/dataset/missing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if maxSize := s.cfg.Upload.MaxFileSize; maxSize > 0 {
		// Leave room for the multipart envelope; the service enforces the
		// exact limit on the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, core.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	result, err := s.service.Upload(r.Context(), sessionID(r), header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if result.Initialized && isHTMX(r) {
		state, err := s.service.State(sessionID(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.respondState(w, r, state)
		return
	}
	writeJSON(w, result)
}

// ResolveMissingRequest selects the missing-value strategies for a pending upload.
type ResolveMissingRequest struct {
	Numeric     core.NumericStrategy     `json:"numeric"`
	Categorical core.CategoricalStrategy `json:"categorical"`
}

// handleResolveMissing applies the chosen strategies to the pending upload.
// Omitted strategies default to leaving cells missing.
func (s *Server) handleResolveMissing(w http.ResponseWriter, r *http.Request) {
	var req ResolveMissingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Numeric == "" {
		req.Numeric = core.NumericLeave
	}
	if req.Categorical == "" {
		req.Categorical = core.CategoricalLeave
	}

	state, err := s.service.ResolveMissing(r.Context(), sessionID(r), req.Numeric, req.Categorical)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondState(w, r, state)
}
