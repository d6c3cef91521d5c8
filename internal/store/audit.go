package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type (
	// AuditEntry is an immutable record of one security-relevant event.
	// Rows are only ever inserted; there is no update or delete path.
	AuditEntry struct {
		ID        int64
		UserID    sql.NullInt64
		Action    string
		TableName string
		RecordID  sql.NullInt64
		OldValues sql.NullString
		NewValues sql.NullString
		IPAddress string
		UserAgent string
		CreatedAt time.Time
	}

	// AuditActivity is the dashboard projection of an audit entry.
	AuditActivity struct {
		Action    string
		Username  sql.NullString
		CreatedAt time.Time
	}
)

func (s *Store) InsertAuditEntry(ctx context.Context, e AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log (user_id, action, table_name, record_id, old_values, new_values, ip_address, user_agent, created_at)
		 values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Action, e.TableName, e.RecordID, e.OldValues, e.NewValues, e.IPAddress, e.UserAgent, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("unable to insert audit entry, cause %w", err)
	}
	return nil
}

func (s *Store) ListRecentAuditEntries(ctx context.Context, limit int) ([]AuditActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`select al.action, u.username, al.created_at
		 from audit_log al
		 left join users u on u.id = al.user_id
		 order by al.created_at desc, al.id desc limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to list audit entries, cause %w", err)
	}
	defer rows.Close()
	var out []AuditActivity
	for rows.Next() {
		var a AuditActivity
		if err := rows.Scan(&a.Action, &a.Username, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan audit entry, cause %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountAuditEntries exists for tests that need to assert an event was
// (or was not) recorded.
func (s *Store) CountAuditEntries(ctx context.Context, action string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(1) from audit_log where action = ?`, action).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unable to count audit entries, cause %w", err)
	}
	return n, nil
}
