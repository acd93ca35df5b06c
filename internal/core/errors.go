package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/eda/internal/table"
)

var (
	// ErrNoDataset is returned by session operations before a table is loaded.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrNoHistory is returned by Undo when the cursor is already at the first snapshot.
	ErrNoHistory = errors.New("nothing to undo")

	// ErrEmptyResult is returned when a filter eliminates every row.
	// The session is left unchanged.
	ErrEmptyResult = errors.New("filter produced an empty result")

	// ErrUnknownStrategy is returned for an unrecognized missing-value strategy.
	ErrUnknownStrategy = errors.New("unknown missing-value strategy")

	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoPendingLoad is returned by ResolveMissing when no upload awaits a decision.
	ErrNoPendingLoad = errors.New("no upload awaiting missing-value handling")

	// ErrTooManySessions is returned when the session cap is reached.
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an upload request carries no file.
	ErrNoFile = errors.New("no file provided")
)

// ColumnNotFoundError reports a column reference that does not exist in the
// table it was applied to. It matches table.ErrColumnNotFound with errors.Is.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %q", e.Column)
}

// Is lets callers test against the table package sentinel.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == table.ErrColumnNotFound
}
