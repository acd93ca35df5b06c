package database

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/eda/internal/core"
)

// AuditStore is a core.AuditStore backed by the audit_log table.
type AuditStore struct {
	db DBTX
}

var _ core.AuditStore = (*AuditStore)(nil)

// NewAuditStore wraps db. Call Migrate first on a fresh database.
func NewAuditStore(db DBTX) *AuditStore {
	return &AuditStore{db: db}
}

const insertAuditLog = `INSERT INTO audit_log (
	id, action, severity, session_id, column_name, old_value, new_value,
	rows_count, cols_count, detail, ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()))`

const selectAuditLog = `SELECT id, action, severity, session_id, column_name, old_value,
	new_value, rows_count, cols_count, detail, ip_address, user_agent, created_at
	FROM audit_log`

// Insert stores one entry.
func (s *AuditStore) Insert(ctx context.Context, e core.AuditEntry) error {
	_, err := s.db.Exec(ctx, insertAuditLog,
		ToPgUUID(e.ID),
		string(e.Action),
		string(e.Severity),
		e.SessionID,
		ToPgText(e.Column),
		ToPgText(e.OldValue),
		ToPgText(e.NewValue),
		ToPgInt4(e.Rows),
		ToPgInt4(e.Columns),
		ToPgText(e.Detail),
		ToInet(e.IPAddress),
		ToPgText(e.UserAgent),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: !e.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *AuditStore) List(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	if f.Limit <= 0 {
		f.Limit = core.DefaultAuditLimit
	}

	wb := NewWhereBuilder()
	wb.Add("session_id", f.SessionID)
	wb.Add("action", string(f.Action))
	wb.AddSince("created_at", f.Since)
	whereClause, args := wb.Build()

	query := selectAuditLog + whereClause + " ORDER BY created_at DESC LIMIT $" +
		fmt.Sprintf("%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, max(f.Offset, 0))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]core.AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Purge deletes entries created before olderThan.
func (s *AuditStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM audit_log WHERE created_at < $1", olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanAuditRow scans a single row from audit_log into an AuditEntry.
func scanAuditRow(row pgx.Row) (core.AuditEntry, error) {
	var (
		id         pgtype.UUID
		action     string
		severity   string
		sessionID  string
		columnName pgtype.Text
		oldValue   pgtype.Text
		newValue   pgtype.Text
		rowsCount  pgtype.Int4
		colsCount  pgtype.Int4
		detail     pgtype.Text
		ipAddress  *netip.Addr
		userAgent  pgtype.Text
		createdAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &action, &severity, &sessionID,
		&columnName, &oldValue, &newValue, &rowsCount, &colsCount,
		&detail, &ipAddress, &userAgent, &createdAt,
	)
	if err != nil {
		return core.AuditEntry{}, fmt.Errorf("scan audit entry: %w", err)
	}

	entry := core.AuditEntry{
		ID:        PgUUIDToString(id),
		Action:    core.AuditAction(action),
		Severity:  core.AuditSeverity(severity),
		SessionID: sessionID,
		Column:    textOrEmpty(columnName),
		OldValue:  textOrEmpty(oldValue),
		NewValue:  textOrEmpty(newValue),
		Rows:      intOrZero(rowsCount),
		Columns:   intOrZero(colsCount),
		Detail:    textOrEmpty(detail),
		UserAgent: textOrEmpty(userAgent),
		CreatedAt: createdAt.Time,
	}
	if ipAddress != nil {
		entry.IPAddress = ipAddress.String()
	}
	return entry, nil
}
