package core

import (
	"context"

	"github.com/JonMunkholm/eda/internal/logging"
)

// Undo steps the dataset of session id back one snapshot.
func (s *Service) Undo(ctx context.Context, id string) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	if err := h.data.Undo(); err != nil {
		return State{}, err
	}

	st := h.data.State()
	entry := NewAuditEntry(ctx, ActionUndo, id)
	entry.Rows, entry.Columns = st.Rows, len(st.Columns)
	s.record(ctx, entry)
	logging.ForSession(ctx, id).Debug("undo", "cursor", st.Cursor)
	return st, nil
}

// ResetFilters restores the unfiltered table and discards the history of
// session id.
func (s *Service) ResetFilters(ctx context.Context, id string) (State, error) {
	h, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	discarded := len(h.data.History())
	if err := h.data.ResetFilters(); err != nil {
		return State{}, err
	}

	st := h.data.State()
	entry := NewAuditEntry(ctx, ActionReset, id)
	entry.Rows, entry.Columns = st.Rows, len(st.Columns)
	s.record(ctx, entry)
	logging.ForSession(ctx, id).Info("filters reset", "discarded_snapshots", discarded)
	return st, nil
}
