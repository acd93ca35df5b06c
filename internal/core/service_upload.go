package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/table"
)

// Upload parses a CSV into session id. A file without missing cells
// initializes the session immediately; otherwise it is held as a pending load
// until ResolveMissing. The previously loaded dataset stays visible until then.
//
// Returns ErrTooManyUploads if no load slot frees up within the wait limit.
func (s *Service) Upload(ctx context.Context, id, fileName string, r io.Reader) (UploadResult, error) {
	h, err := s.lookup(id)
	if err != nil {
		return UploadResult{}, err
	}
	if r == nil {
		return UploadResult{}, ErrNoFile
	}

	// Acquire load slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return UploadResult{}, err
	}
	defer s.limiter.Release()

	logger := logging.ForSession(ctx, id, "file", fileName)
	start := time.Now()

	src := r
	if s.cfg.MaxFileSize > 0 {
		src = io.LimitReader(r, s.cfg.MaxFileSize+1)
	}
	counter := table.NewCountingReader(src)
	tbl, report, err := table.Load(counter, s.cfg.Load)
	if s.cfg.MaxFileSize > 0 && counter.BytesRead() > s.cfg.MaxFileSize {
		err = fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if err != nil {
		entry := NewAuditEntry(ctx, ActionLoadFailed, id)
		entry.Detail = fileName + ": " + err.Error()
		s.record(ctx, entry)
		logger.Warn("load failed", "error", err)
		return UploadResult{}, err
	}

	res := UploadResult{
		SessionID: id,
		FileName:  fileName,
		Rows:      tbl.NumRows(),
		Columns:   tbl.NumCols(),
		Bytes:     counter.BytesRead(),
		Report:    report,
	}

	h.mu.Lock()
	if report.TotalMissing == 0 {
		h.pending = nil
	} else {
		h.pending = &pendingLoad{table: tbl, report: report, fileName: fileName}
	}
	h.mu.Unlock()

	if report.TotalMissing == 0 {
		if err := h.data.Initialize(tbl); err != nil {
			return UploadResult{}, err
		}
		res.Initialized = true
	}
	res.Duration = time.Since(start)

	entry := NewAuditEntry(ctx, ActionLoad, id)
	entry.Rows, entry.Columns = res.Rows, res.Columns
	entry.Detail = fmt.Sprintf("%s (%d missing cells)", fileName, report.TotalMissing)
	s.record(ctx, entry)

	logger.Info("dataset loaded",
		slog.Int("rows", res.Rows),
		slog.Int("columns", res.Columns),
		slog.Int("missing", report.TotalMissing),
		slog.Bool("initialized", res.Initialized),
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
	)
	return res, nil
}

// PendingReport returns the missing-value report of the upload awaiting a
// decision, if any.
func (s *Service) PendingReport(id string) (table.MissingReport, bool, error) {
	h, err := s.lookup(id)
	if err != nil {
		return table.MissingReport{}, false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return table.MissingReport{}, false, nil
	}
	return h.pending.report, true, nil
}

// ResolveMissing applies the chosen strategies to the pending upload and
// initializes the session with the result.
func (s *Service) ResolveMissing(ctx context.Context, id string, num NumericStrategy, cat CategoricalStrategy) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}

	h.mu.Lock()
	p := h.pending
	h.mu.Unlock()
	if p == nil {
		return State{}, ErrNoPendingLoad
	}

	resolved, err := ResolveMissing(p.table, p.report, num, cat)
	if err != nil {
		return State{}, err
	}
	if err := h.data.Initialize(resolved); err != nil {
		return State{}, err
	}

	h.mu.Lock()
	if h.pending == p {
		h.pending = nil
	}
	h.mu.Unlock()

	entry := NewAuditEntry(ctx, ActionResolveMissing, id)
	entry.Rows, entry.Columns = resolved.NumRows(), resolved.NumCols()
	entry.Detail = fmt.Sprintf("numeric=%s categorical=%s", num, cat)
	s.record(ctx, entry)

	logging.ForSession(ctx, id).Info("missing values resolved",
		"numeric", num,
		"categorical", cat,
		"rows", resolved.NumRows(),
		"dropped", p.table.NumRows()-resolved.NumRows(),
	)
	return h.data.State(), nil
}
