package core

import (
	"time"

	"github.com/JonMunkholm/eda/internal/table"
)

// DefaultPageSize is the page size used when a caller passes zero.
const DefaultPageSize = 50

// MaxPageSize caps a single page of rows.
const MaxPageSize = 1000

// UploadResult describes a parsed upload.
//
// When the file has missing cells the table is held back until
// ResolveMissing is called; Initialized is false in that case.
type UploadResult struct {
	SessionID   string              `json:"session_id"`
	FileName    string              `json:"file_name"`
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	Bytes       int64               `json:"bytes"`
	Report      table.MissingReport `json:"report"`
	Initialized bool                `json:"initialized"`
	Duration    time.Duration       `json:"duration_ns"`
}

// TablePage is one page of the visible table.
type TablePage struct {
	Columns    []string     `json:"columns"`
	Kinds      []table.Kind `json:"kinds"`
	Rows       [][]any      `json:"rows"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalRows  int          `json:"total_rows"`
	TotalPages int          `json:"total_pages"`
}

// CellEdit is a single-cell change request.
type CellEdit struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// EditResult reports the outcome of a cell edit.
type EditResult struct {
	Changed  bool   `json:"changed"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	State    State  `json:"state"`
}

// SessionInfo summarizes one hosted session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
	Pending   bool      `json:"pending"`
	State     State     `json:"state"`
}
