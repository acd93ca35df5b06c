package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/eda/internal/logging"
	"github.com/JonMunkholm/eda/internal/table"
)

// ApplyFilterSort filters and sorts the dataset of session id. A filter that
// removes every row is recorded as rejected and returns ErrEmptyResult.
func (s *Service) ApplyFilterSort(ctx context.Context, id string, filters FilterSpec, sortBy *SortSpec) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	logger := logging.ForSession(ctx, id)

	if err := h.data.ApplyFilterSort(filters, sortBy); err != nil {
		if errors.Is(err, ErrEmptyResult) {
			entry := NewAuditEntry(ctx, ActionFilterRejected, id)
			entry.Detail = describeFilter(filters, sortBy)
			s.record(ctx, entry)
			logger.Info("filter rejected", "reason", err)
		}
		return State{}, err
	}

	st := h.data.State()
	entry := NewAuditEntry(ctx, ActionFilter, id)
	entry.Rows, entry.Columns = st.Rows, len(st.Columns)
	entry.Detail = describeFilter(filters, sortBy)
	s.record(ctx, entry)
	logger.Debug("filter applied", "rows", st.Rows, "filters", len(filters))
	return st, nil
}

// DeleteColumn removes a column from the dataset of session id.
func (s *Service) DeleteColumn(ctx context.Context, id, column string) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if err := h.data.DeleteColumn(column); err != nil {
		return State{}, err
	}

	st := h.data.State()
	entry := NewAuditEntry(ctx, ActionDeleteColumn, id)
	entry.Column = column
	entry.Rows, entry.Columns = st.Rows, len(st.Columns)
	s.record(ctx, entry)
	logging.ForSession(ctx, id).Info("column deleted", "column", column)
	return st, nil
}

// EditCell changes one cell of the visible table. An edit that leaves the
// value unchanged adds no history.
func (s *Service) EditCell(ctx context.Context, id string, edit CellEdit) (EditResult, error) {
	h, err := s.lookup(id)
	if err != nil {
		return EditResult{}, err
	}
	change, err := h.data.EditCell(edit.Row, edit.Column, edit.Value)
	if err != nil {
		return EditResult{}, err
	}
	res := EditResult{
		Changed:  change.Changed,
		OldValue: change.Old,
		NewValue: change.New,
		State:    h.data.State(),
	}
	if !change.Changed {
		return res, nil
	}

	entry := NewAuditEntry(ctx, ActionCellEdit, id)
	entry.Column = edit.Column
	entry.OldValue, entry.NewValue = res.OldValue, res.NewValue
	entry.Detail = fmt.Sprintf("row %d", edit.Row)
	s.record(ctx, entry)
	logging.ForSession(ctx, id).Debug("cell edited",
		"row", edit.Row,
		"column", edit.Column,
	)
	return res, nil
}

// Commit makes t the visible table of session id.
func (s *Service) Commit(ctx context.Context, id string, t *table.Table) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if err := h.data.Commit(t); err != nil {
		return State{}, err
	}
	st := h.data.State()
	entry := NewAuditEntry(ctx, ActionCommit, id)
	entry.Rows, entry.Columns = st.Rows, len(st.Columns)
	s.record(ctx, entry)
	return st, nil
}

// describeFilter renders a filter for audit details.
func describeFilter(filters FilterSpec, sortBy *SortSpec) string {
	out := fmt.Sprintf("%d filter(s)", len(filters))
	if sortBy != nil && sortBy.Column != "" {
		out += fmt.Sprintf(", sort %s %s", sortBy.Column, sortBy.Direction)
	}
	return out
}
