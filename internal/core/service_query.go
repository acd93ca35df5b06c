package core

import (
	"context"
	"errors"
	"io"

	"github.com/JonMunkholm/eda/internal/chart"
	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/metric"
	"github.com/JonMunkholm/eda/internal/stats"
	"github.com/JonMunkholm/eda/internal/table"
)

// State returns the bookkeeping of session id.
func (s *Service) State(id string) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	return h.data.State(), nil
}

// History returns the snapshot history of session id.
func (s *Service) History(id string) ([]HistoryEntry, error) {
	h, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if h.data.Current() == nil {
		return nil, ErrNoDataset
	}
	return h.data.History(), nil
}

// Current returns the visible table of session id.
func (s *Service) Current(id string) (*table.Table, error) {
	h, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	t := h.data.Current()
	if t == nil {
		return nil, ErrNoDataset
	}
	return t, nil
}

// GetTableData returns one page of the visible table. Pages are 1-based and
// clamped to the available range.
func (s *Service) GetTableData(id string, page, pageSize int) (*TablePage, error) {
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return Paginate(t, page, pageSize), nil
}

// Paginate slices t into a page of JSON-ready rows.
func Paginate(t *table.Table, page, pageSize int) *TablePage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	totalRows := t.NumRows()
	totalPages := max((totalRows+pageSize-1)/pageSize, 1)
	page = min(max(page, 1), totalPages)
	offset := (page - 1) * pageSize
	end := min(offset+pageSize, totalRows)

	cols := t.Columns()
	res := &TablePage{
		Columns:    t.ColumnNames(),
		Kinds:      make([]table.Kind, len(cols)),
		Rows:       make([][]any, 0, end-offset),
		Page:       page,
		PageSize:   pageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
	for j, c := range cols {
		res.Kinds[j] = c.Kind()
	}
	for i := offset; i < end; i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			switch {
			case c.IsNull(i):
			case c.IsNumeric():
				v, _ := c.Float(i)
				row[j] = table.Float(v)
			default:
				row[j], _ = c.Str(i)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Export writes the visible table of session id as CSV.
func (s *Service) Export(ctx context.Context, id string, w io.Writer) error {
	t, err := s.Current(id)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(w, t); err != nil {
		return err
	}
	entry := NewAuditEntry(ctx, ActionExport, id)
	entry.Rows, entry.Columns = t.NumRows(), t.NumCols()
	s.record(ctx, entry)
	return nil
}

// Describe computes descriptive statistics; nil cols means every numeric column.
func (s *Service) Describe(id string, cols []string) ([]stats.ColumnStats, error) {
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return stats.Describe(t, cols), nil
}

// Outliers flags IQR outliers per numeric column.
func (s *Service) Outliers(id string, cols []string) (map[string]stats.OutlierReport, error) {
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return stats.Outliers(t, cols), nil
}

// Correlate computes a correlation matrix. An empty method means pearson.
func (s *Service) Correlate(id, method string) (*stats.CorrMatrix, error) {
	m, err := stats.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return stats.Correlate(t, m)
}

// Pivot builds a pivot table from the visible table.
func (s *Service) Pivot(id string, req stats.PivotRequest) (*stats.PivotTable, error) {
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return stats.Pivot(t, req)
}

// Chart builds a figure from the visible table.
func (s *Service) Chart(id string, req chart.Request) (*chart.Figure, error) {
	t, err := s.Current(id)
	if err != nil {
		return nil, err
	}
	return chart.Build(t, req)
}

// EvaluateMetric runs a metric program against the visible table. Evaluation
// errors are recorded and returned; the dataset is never changed.
func (s *Service) EvaluateMetric(ctx context.Context, id, source string) (metric.Result, error) {
	t, err := s.Current(id)
	if err != nil {
		return metric.Result{}, err
	}

	res, err := s.evaluator.Evaluate(ctx, t, source)

	entry := NewAuditEntry(ctx, ActionMetric, id)
	entry.Rows, entry.Columns = t.NumRows(), t.NumCols()
	var evalErr *metric.EvaluationError
	switch {
	case errors.As(err, &evalErr):
		entry.Detail = evalErr.Error()
	case err != nil:
		return metric.Result{}, err
	default:
		entry.Detail = string(res.Kind)
	}
	s.record(ctx, entry)

	if err != nil {
		logging.ForSession(ctx, id).Info("metric failed", "error", err)
		return metric.Result{}, err
	}
	return res, nil
}

// AuditLog returns recent audit entries for session id, newest first.
func (s *Service) AuditLog(ctx context.Context, id string, limit int) ([]AuditEntry, error) {
	return s.QueryAuditLog(ctx, id, AuditFilter{Limit: limit})
}

// QueryAuditLog lists audit entries of session id matching f. The session
// in f is always replaced by id, so callers only see their own trail.
func (s *Service) QueryAuditLog(ctx context.Context, id string, f AuditFilter) ([]AuditEntry, error) {
	if _, err := s.lookup(id); err != nil {
		return nil, err
	}
	f.SessionID = id
	return s.audit.List(ctx, f)
}
