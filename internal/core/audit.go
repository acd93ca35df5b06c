package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionLoad           AuditAction = "load"
	ActionLoadFailed     AuditAction = "load_failed"
	ActionResolveMissing AuditAction = "resolve_missing"
	ActionFilter         AuditAction = "filter"
	ActionFilterRejected AuditAction = "filter_rejected"
	ActionReset          AuditAction = "reset"
	ActionUndo           AuditAction = "undo"
	ActionDeleteColumn   AuditAction = "delete_column"
	ActionCellEdit       AuditAction = "cell_edit"
	ActionCommit         AuditAction = "commit"
	ActionMetric         AuditAction = "metric"
	ActionExport         AuditAction = "export"
	ActionSessionExpired AuditAction = "session_expired"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string        `json:"id"`
	Action    AuditAction   `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	SessionID string        `json:"sessionId"`
	Column    string        `json:"column,omitempty"`
	OldValue  string        `json:"oldValue,omitempty"`
	NewValue  string        `json:"newValue,omitempty"`
	Rows      int           `json:"rows,omitempty"`
	Columns   int           `json:"columns,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AuditFilter selects audit entries. Zero fields do not filter.
// Results are newest first.
type AuditFilter struct {
	SessionID string
	Action    AuditAction
	Since     time.Time
	Limit     int
	Offset    int
}

// DefaultAuditLimit caps audit queries without an explicit limit.
const DefaultAuditLimit = 100

// AuditStore persists audit entries.
type AuditStore interface {
	Insert(ctx context.Context, e AuditEntry) error
	List(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionLoad, ActionResolveMissing, ActionDeleteColumn:
		return SeverityHigh
	case ActionReset, ActionSessionExpired:
		return SeverityCritical
	case ActionFilter, ActionUndo, ActionExport, ActionMetric:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// NewAuditEntry fills in the ID, severity, timestamp and the client details
// carried by ctx.
func NewAuditEntry(ctx context.Context, action AuditAction, sessionID string) AuditEntry {
	client := ClientInfoFromContext(ctx)
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Severity:  determineSeverity(action),
		SessionID: sessionID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
}

// MemoryAuditStore keeps the most recent entries in a fixed-size ring.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []AuditEntry
	next    int
	full    bool
}

// DefaultAuditCapacity is used when NewMemoryAuditStore gets a non-positive size.
const DefaultAuditCapacity = 10000

// NewMemoryAuditStore returns a store holding at most capacity entries.
func NewMemoryAuditStore(capacity int) *MemoryAuditStore {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &MemoryAuditStore{entries: make([]AuditEntry, capacity)}
}

// Insert stores e, overwriting the oldest entry when the ring is full.
func (m *MemoryAuditStore) Insert(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// List returns matching entries, newest first.
func (m *MemoryAuditStore) List(_ context.Context, f AuditFilter) ([]AuditEntry, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AuditEntry
	skipped := 0
	m.newestFirst(func(e AuditEntry) bool {
		if !f.matches(e) {
			return true
		}
		if skipped < f.Offset {
			skipped++
			return true
		}
		out = append(out, e)
		return len(out) < f.Limit
	})
	return out, nil
}

// Purge drops entries created before olderThan and returns how many went.
func (m *MemoryAuditStore) Purge(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []AuditEntry
	m.newestFirst(func(e AuditEntry) bool {
		if !e.CreatedAt.Before(olderThan) {
			kept = append(kept, e)
		}
		return true
	})
	purged := int64(m.len() - len(kept))

	entries := make([]AuditEntry, len(m.entries))
	for i := range kept {
		entries[i] = kept[len(kept)-1-i]
	}
	m.entries = entries
	m.next = len(kept) % len(entries)
	m.full = len(kept) == len(entries)
	return purged, nil
}

// Len returns the number of stored entries.
func (m *MemoryAuditStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.len()
}

func (m *MemoryAuditStore) len() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}

// newestFirst calls fn for each stored entry from newest to oldest until fn
// returns false.
func (m *MemoryAuditStore) newestFirst(fn func(AuditEntry) bool) {
	n := m.len()
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		if !fn(m.entries[idx]) {
			return
		}
	}
}

func (f AuditFilter) matches(e AuditEntry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
