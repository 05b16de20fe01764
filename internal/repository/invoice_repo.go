package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/db"
	"github.com/andy/rapport/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
	// mu serializes allocation within this process; other processes are
	// serialized by the immediate transaction and the unique index.
	mu sync.Mutex
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

// Create allocates the next number of the invoice's creation day and inserts
// the invoice with its entry references in a single transaction.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "begin transaction")
	}
	defer tx.Rollback()

	number, err := allocateNumber(ctx, tx, invoice.CreatedAt)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, client_id, amount, created_at)
		VALUES (?, ?, ?, ?)
	`,
		number,
		invoice.ClientID,
		invoice.Amount.StringFixed(2),
		invoice.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return dbError(err, "create invoice")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return dbError(err, "get invoice ID")
	}

	for pos, entryID := range invoice.EntryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_entries (invoice_id, entry_id, position) VALUES (?, ?, ?)`,
			id, entryID, pos,
		); err != nil {
			return dbError(err, "link invoice entry")
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "commit invoice")
	}

	invoice.ID = id
	invoice.InvoiceNumber = number
	return nil
}

// allocateNumber bumps the per-day counter. The counter is seeded from the
// highest number already stored for the day so that invoices issued before
// the counter table existed are never reused.
func allocateNumber(ctx context.Context, tx *sql.Tx, createdAt time.Time) (string, error) {
	prefix := billing.DatePrefix(createdAt)
	day := createdAt.Format(domain.DateLayout)

	var highest int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(substr(invoice_number, ?) AS INTEGER)), 0)
		FROM invoices WHERE invoice_number LIKE ?
	`, len(prefix)+1, prefix+"%").Scan(&highest)
	if err != nil {
		return "", dbError(err, "read invoice sequence")
	}

	now := time.Now().Format(timeLayout)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoice_sequences (day, last_value, updated_at) VALUES (?, ? + 1, ?)
		ON CONFLICT(day) DO UPDATE
		SET last_value = MAX(invoice_sequences.last_value, excluded.last_value - 1) + 1,
		    updated_at = excluded.updated_at
	`, day, highest, now)
	if err != nil {
		return "", dbError(err, "bump invoice sequence")
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT last_value FROM invoice_sequences WHERE day = ?`, day,
	).Scan(&seq); err != nil {
		return "", dbError(err, "read invoice sequence")
	}

	return billing.FormatInvoiceNumber(createdAt, seq)
}

// GetByID retrieves an invoice with its entry references
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByNumber retrieves an invoice by its number
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return r.getOne(ctx, "invoice_number = ?", number)
}

func (r *InvoiceRepo) getOne(ctx context.Context, cond string, arg any) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, invoice_number, client_id, amount, created_at FROM invoices WHERE `+cond, arg)
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", arg)
		}
		return nil, dbError(err, "get invoice")
	}
	if err := r.loadEntryIDs(ctx, []*domain.Invoice{invoice}); err != nil {
		return nil, err
	}
	return invoice, nil
}

// List returns invoices newest first, optionally for one client
func (r *InvoiceRepo) List(ctx context.Context, clientID *int64) ([]*domain.Invoice, error) {
	query := `SELECT id, invoice_number, client_id, amount, created_at FROM invoices`
	var args []any
	if clientID != nil {
		query += ` WHERE client_id = ?`
		args = append(args, *clientID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, args...)
}

// ListByEntry returns the invoices issued for an entry
func (r *InvoiceRepo) ListByEntry(ctx context.Context, entryID int64) ([]*domain.Invoice, error) {
	return r.list(ctx, `
		SELECT i.id, i.invoice_number, i.client_id, i.amount, i.created_at
		FROM invoices i JOIN invoice_entries ie ON ie.invoice_id = i.id
		WHERE ie.entry_id = ?
		ORDER BY i.id
	`, entryID)
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "list invoices")
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, dbError(err, "scan invoice")
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterate invoices")
	}

	if err := r.loadEntryIDs(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepo) loadEntryIDs(ctx context.Context, invoices []*domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Invoice, len(invoices))
	placeholders := make([]string, 0, len(invoices))
	args := make([]any, 0, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
		placeholders = append(placeholders, "?")
		args = append(args, inv.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT invoice_id, entry_id FROM invoice_entries
		WHERE invoice_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY invoice_id, position
	`, args...)
	if err != nil {
		return dbError(err, "load invoice entries")
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID, entryID int64
		if err := rows.Scan(&invoiceID, &entryID); err != nil {
			return dbError(err, "scan invoice entry")
		}
		inv := byID[invoiceID]
		inv.EntryIDs = append(inv.EntryIDs, entryID)
	}
	return dbError(rows.Err(), "iterate invoice entries")
}

// CountForDate counts invoices whose number carries the given day
func (r *InvoiceRepo) CountForDate(ctx context.Context, day time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE ?`,
		billing.DatePrefix(day)+"%",
	).Scan(&n)
	if err != nil {
		return 0, dbError(err, "count invoices")
	}
	return n, nil
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var createdAt string
	if err := row.Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.ClientID, &invoice.Amount, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return invoice, nil
}
