package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	Action    string
	Actor     string
	Target    string
	Decision  string
	Details   map[string]string
}

// AuditFilter specifies criteria for querying audit entries.
type AuditFilter struct {
	Action string
	Actor  string
	Since  time.Time
	Limit  int
}

// InsertAuditEntry adds a new audit log entry to the database.
func (s *Store) InsertAuditEntry(ctx context.Context, entry *AuditEntry) (int64, error) {
	var detailsJSON sql.NullString
	if len(entry.Details) > 0 {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal details: %w", err)
		}
		detailsJSON.String = string(data)
		detailsJSON.Valid = true
	}

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, action, actor, target, decision, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.Unix(),
		entry.Action,
		entry.Actor,
		entry.Target,
		entry.Decision,
		detailsJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// QueryAuditEntries retrieves audit entries matching the given filter,
// newest first.
func (s *Store) QueryAuditEntries(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}

	if filter.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, filter.Actor)
	}

	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.Unix())
	}

	query := `SELECT id, timestamp, action, COALESCE(actor, ''), COALESCE(target, ''),
	          COALESCE(decision, ''), details FROM audit_log`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanAuditEntry(row scanner) (*AuditEntry, error) {
	var entry AuditEntry
	var timestamp int64
	var detailsJSON sql.NullString

	err := row.Scan(&entry.ID, &timestamp, &entry.Action, &entry.Actor, &entry.Target, &entry.Decision, &detailsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	entry.Timestamp = time.Unix(timestamp, 0)

	if detailsJSON.Valid && detailsJSON.String != "" {
		entry.Details = make(map[string]string)
		if err := json.Unmarshal([]byte(detailsJSON.String), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details: %w", err)
		}
	}

	return &entry, nil
}
