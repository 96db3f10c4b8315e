package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/mailbridge/internal/domain/model"
	"github.com/ericfisherdev/mailbridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuditStore = (*AuditRepo)(nil)

// AuditRepo is the SQLite implementation of the AuditStore port interface.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new AuditRepo backed by the given DB.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends one audit entry. OccurredAt defaults to now when zero.
func (r *AuditRepo) Record(ctx context.Context, entry model.AuditEntry) error {
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	const query = `
		INSERT INTO audit_log (operation, message_id, detail, occurred_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.Writer.ExecContext(ctx, query,
		entry.Operation, entry.MessageID, entry.Detail, occurredAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert audit entry for %s: %w", entry.Operation, err)
	}

	return nil
}

// List returns the most recent audit entries, newest first, up to limit.
func (r *AuditRepo) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	const query = `
		SELECT id, operation, message_id, detail, occurred_at
		FROM audit_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAuditEntry(s scanner) (*model.AuditEntry, error) {
	var entry model.AuditEntry
	var occurredAt string

	err := s.Scan(&entry.ID, &entry.Operation, &entry.MessageID, &entry.Detail, &occurredAt)
	if err != nil {
		return nil, err
	}

	entry.OccurredAt, err = parseTime(occurredAt)
	if err != nil {
		return nil, fmt.Errorf("parse occurred_at: %w", err)
	}

	return &entry, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
