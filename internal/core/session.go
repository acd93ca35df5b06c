package core

// session.go holds the in-memory dataset state machine.
//
// A DatasetSession owns:
//   - original: the filter base, replaced only by a load or a column deletion
//   - history: full table snapshots, one per committed mutation, each with the
//     filter and sort that derived it from the base
//   - cursor: the visible snapshot, always 0 <= cursor < len(history)
//
// Committing after an undo discards the undone snapshots; there is no redo.
// Every failed operation leaves the session exactly as it was.

import (
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/eda/internal/table"
)

// History action labels.
const (
	LabelInitial      = "initial"
	LabelCommit       = "commit"
	LabelFilter       = "filter"
	LabelReset        = "reset"
	LabelDeleteColumn = "delete_column"
	LabelEdit         = "edit"
)

// HistoryEntry describes one snapshot in the undo history.
type HistoryEntry struct {
	Index   int       `json:"index"`
	Action  string    `json:"action"`
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	At      time.Time `json:"at"`
	Current bool      `json:"current"`
}

// State is a point-in-time copy of the session bookkeeping.
type State struct {
	Initialized    bool       `json:"initialized"`
	Cursor         int        `json:"cursor"`
	HistoryLen     int        `json:"history_len"`
	FiltersApplied bool       `json:"filters_applied"`
	ActiveFilters  FilterSpec `json:"active_filters,omitempty"`
	ActiveSort     *SortSpec  `json:"active_sort,omitempty"`
	Rows           int        `json:"rows"`
	Columns        []string   `json:"columns"`
}

type snapshot struct {
	table  *table.Table
	action string
	at     time.Time
	view   *filterView // nil unless table derives from a filter or sort
}

// filterView is the filter and sort a snapshot was derived with. Edits of a
// filtered table inherit it.
type filterView struct {
	filters FilterSpec
	sort    *SortSpec
}

// DatasetSession is the dataset state of one user. All methods are safe for
// concurrent use; mutations are serialized by a single mutex and tables handed
// out by Current are immutable.
type DatasetSession struct {
	mu sync.RWMutex

	original *table.Table
	history  []snapshot
	cursor   int

	now func() time.Time
}

// NewDatasetSession returns an empty session.
func NewDatasetSession() *DatasetSession {
	return &DatasetSession{now: time.Now}
}

// Initialize starts a fresh history with t as both the filter base and the
// only snapshot. Filters and sort are cleared.
func (s *DatasetSession) Initialize(t *table.Table) error {
	if t == nil {
		return ErrNoDataset
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.original = t
	s.history = []snapshot{{table: t, action: LabelInitial, at: s.now()}}
	s.cursor = 0
	return nil
}

// Commit appends t as the new visible snapshot, discarding any snapshots after
// the cursor. t may not introduce columns the visible table does not have.
func (s *DatasetSession) Commit(t *table.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if err := s.checkSchema(t); err != nil {
		return err
	}
	s.commitLocked(t, LabelCommit, s.history[s.cursor].view)
	return nil
}

// Undo moves the cursor back one snapshot, restoring the filter state it was
// taken with. At the first snapshot it returns ErrNoHistory and changes nothing.
func (s *DatasetSession) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if s.cursor == 0 {
		return ErrNoHistory
	}
	s.cursor--
	return nil
}

// DeleteColumn drops name from the visible table and commits the result. The
// result also becomes the filter base, so later filters run against the
// visible rows and no filter or sort stays active.
func (s *DatasetSession) DeleteColumn(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return err
	}

	cur := s.history[s.cursor].table
	if !cur.HasColumn(name) {
		return &ColumnNotFoundError{Column: name}
	}
	next, err := cur.DropColumn(name)
	if err != nil {
		return err
	}
	s.original = next
	s.commitLocked(next, LabelDeleteColumn, nil)
	return nil
}

// EditCells commits t when it differs by value from the visible table.
// changed reports whether a snapshot was added.
func (s *DatasetSession) EditCells(t *table.Table) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return false, err
	}
	if t == nil || t.Equal(s.history[s.cursor].table) {
		return false, nil
	}
	if err := s.checkSchema(t); err != nil {
		return false, err
	}
	s.commitLocked(t, LabelEdit, s.history[s.cursor].view)
	return true, nil
}

// CellChange is the outcome of EditCell. Old and New are the formatted cell
// before and after the edit.
type CellChange struct {
	Old     string
	New     string
	Changed bool
}

// EditCell sets one cell of the visible table and commits the result when the
// value actually changes.
func (s *DatasetSession) EditCell(row int, column, raw string) (CellChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return CellChange{}, err
	}
	cur := s.history[s.cursor].table
	col, ok := cur.Column(column)
	if !ok {
		return CellChange{}, &ColumnNotFoundError{Column: column}
	}
	next, err := cur.SetCell(row, column, raw)
	if err != nil {
		return CellChange{}, err
	}
	change := CellChange{Old: col.Format(row)}
	if next.Equal(cur) {
		change.New = change.Old
		return change, nil
	}
	if c, ok := next.Column(column); ok {
		change.New = c.Format(row)
	}
	change.Changed = true
	s.commitLocked(next, LabelEdit, s.history[s.cursor].view)
	return change, nil
}

// ApplyFilterSort derives a table from the filter base and commits it. When
// the result has no rows it returns ErrEmptyResult and changes nothing.
func (s *DatasetSession) ApplyFilterSort(filters FilterSpec, sortBy *SortSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return err
	}

	result := ApplyFilterSort(s.original, filters, sortBy)
	if result.NumRows() == 0 {
		return ErrEmptyResult
	}
	s.commitLocked(result, LabelFilter, &filterView{filters: filters.Clone(), sort: sortBy.Clone()})
	return nil
}

// ResetFilters makes the filter base the only snapshot. This is a hard
// boundary: earlier history cannot be undone into.
func (s *DatasetSession) ResetFilters() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(); err != nil {
		return err
	}
	s.history = []snapshot{{table: s.original, action: LabelReset, at: s.now()}}
	s.cursor = 0
	return nil
}

// Current returns the visible table, or nil before Initialize.
func (s *DatasetSession) Current() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.original == nil {
		return nil
	}
	return s.history[s.cursor].table
}

// Original returns the filter base, or nil before Initialize.
func (s *DatasetSession) Original() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original
}

// History describes every snapshot, oldest first.
func (s *DatasetSession) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoryEntry, len(s.history))
	for i, snap := range s.history {
		out[i] = HistoryEntry{
			Index:   i,
			Action:  snap.action,
			Rows:    snap.table.NumRows(),
			Columns: snap.table.NumCols(),
			At:      snap.at,
			Current: i == s.cursor,
		}
	}
	return out
}

// State returns a copy of the session bookkeeping.
func (s *DatasetSession) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Initialized: s.original != nil,
		Cursor:      s.cursor,
		HistoryLen:  len(s.history),
		Columns:     []string{},
	}
	if !st.Initialized {
		return st
	}
	snap := s.history[s.cursor]
	st.Rows = snap.table.NumRows()
	st.Columns = snap.table.ColumnNames()
	if snap.view != nil {
		st.FiltersApplied = true
		st.ActiveFilters = snap.view.filters.Clone()
		st.ActiveSort = snap.view.sort.Clone()
	}
	return st
}

func (s *DatasetSession) requireLoaded() error {
	if s.original == nil {
		return ErrNoDataset
	}
	return nil
}

// checkSchema rejects tables with columns the visible table does not have.
func (s *DatasetSession) checkSchema(t *table.Table) error {
	if t == nil {
		return fmt.Errorf("commit: %w", ErrNoDataset)
	}
	cur := s.history[s.cursor].table
	for _, name := range t.ColumnNames() {
		if !cur.HasColumn(name) {
			return &ColumnNotFoundError{Column: name}
		}
	}
	return nil
}

func (s *DatasetSession) commitLocked(t *table.Table, action string, view *filterView) {
	s.history = append(s.history[:s.cursor+1:s.cursor+1], snapshot{table: t, action: action, at: s.now(), view: view})
	s.cursor = len(s.history) - 1
}
