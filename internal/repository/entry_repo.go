package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/rapport/internal/db"
	"github.com/andy/rapport/internal/domain"
)

const entryColumns = `id, client_id, entry_date, duration_minutes, topic, cost,
	is_paid, payment_method, created_at, updated_at`

// EntryRepo is a SQLite implementation of TimeEntryRepository
type EntryRepo struct {
	db *db.DB
}

// NewEntryRepo creates a new EntryRepo
func NewEntryRepo(database *db.DB) *EntryRepo {
	return &EntryRepo{db: database}
}

// Create inserts a new time entry into the database
func (r *EntryRepo) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}

	query := `
		INSERT INTO time_entries (
			client_id, entry_date, duration_minutes, topic, cost,
			is_paid, payment_method, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.ClientID,
		entry.Date.Format(domain.DateLayout),
		entry.DurationMinutes,
		entry.Topic,
		entry.Cost,
		entry.IsPaid,
		nullString(entry.PaymentMethod),
		entry.CreatedAt.Format(timeLayout),
		entry.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return dbError(err, "create time entry")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return dbError(err, "get time entry ID")
	}

	entry.ID = id
	return nil
}

// GetByID retrieves a time entry by ID
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("time entry", id)
		}
		return nil, dbError(err, "get time entry")
	}
	return entry, nil
}

// Update updates an existing time entry. Last write wins.
func (r *EntryRepo) Update(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}

	query := `
		UPDATE time_entries
		SET client_id = ?, entry_date = ?, duration_minutes = ?, topic = ?, cost = ?,
		    is_paid = ?, payment_method = ?, updated_at = ?
		WHERE id = ?
	`

	entry.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		entry.ClientID,
		entry.Date.Format(domain.DateLayout),
		entry.DurationMinutes,
		entry.Topic,
		entry.Cost,
		entry.IsPaid,
		nullString(entry.PaymentMethod),
		entry.UpdatedAt.Format(timeLayout),
		entry.ID,
	)
	if err != nil {
		return dbError(err, "update time entry")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, "get rows affected")
	}
	if rows == 0 {
		return notFound("time entry", entry.ID)
	}

	return nil
}

// List returns entries matching the filter, newest first
func (r *EntryRepo) List(ctx context.Context, filter EntryFilter) ([]*domain.TimeEntry, error) {
	var conds []string
	var args []any

	if filter.ClientID != nil {
		conds = append(conds, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.From != nil {
		conds = append(conds, "entry_date >= ?")
		args = append(args, filter.From.Format(domain.DateLayout))
	}
	if filter.To != nil {
		conds = append(conds, "entry_date <= ?")
		args = append(args, filter.To.Format(domain.DateLayout))
	}
	if filter.Paid != nil {
		conds = append(conds, "is_paid = ?")
		args = append(args, *filter.Paid)
	}

	query := `SELECT ` + entryColumns + ` FROM time_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY entry_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "list time entries")
	}
	defer rows.Close()

	var entries []*domain.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, dbError(err, "scan time entry")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterate time entries")
	}

	return entries, nil
}

func scanEntry(row rowScanner) (*domain.TimeEntry, error) {
	entry := &domain.TimeEntry{}
	var entryDate, createdAt, updatedAt string
	var method sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.ClientID,
		&entryDate,
		&entry.DurationMinutes,
		&entry.Topic,
		&entry.Cost,
		&entry.IsPaid,
		&method,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.PaymentMethod = method.String
	if entry.Date, err = parseDate(entryDate); err != nil {
		return nil, fmt.Errorf("failed to parse entry_date: %w", err)
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return entry, nil
}
