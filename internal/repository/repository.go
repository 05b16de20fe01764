package repository

import (
	"context"
	"time"

	"github.com/andy/rapport/internal/domain"
)

// ClientRepository manages client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
}

// LoginRepository manages per-client device credentials
type LoginRepository interface {
	Create(ctx context.Context, login *domain.DeviceLogin) error
	GetByID(ctx context.Context, id int64) (*domain.DeviceLogin, error)
	ListByClient(ctx context.Context, clientID int64) ([]*domain.DeviceLogin, error)
	Update(ctx context.Context, login *domain.DeviceLogin) error
}

// EntryFilter narrows entry listings. Nil fields do not filter.
type EntryFilter struct {
	ClientID *int64
	From     *time.Time
	To       *time.Time
	Paid     *bool
}

// TimeEntryRepository manages time entry persistence
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error)
	Update(ctx context.Context, entry *domain.TimeEntry) error
	// List returns matching entries, newest date first.
	List(ctx context.Context, filter EntryFilter) ([]*domain.TimeEntry, error)
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	// Create allocates the next invoice number for the invoice's creation
	// day and inserts the invoice in one transaction. A number collision is
	// reported as a conflict error and nothing is written.
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, clientID *int64) ([]*domain.Invoice, error)
	ListByEntry(ctx context.Context, entryID int64) ([]*domain.Invoice, error)
	CountForDate(ctx context.Context, day time.Time) (int, error)
}

// ResetScope selects what Reset deletes.
type ResetScope string

const (
	ResetEntries ResetScope = "entries"
	ResetAll     ResetScope = "all"
)

// MaintenanceRepository wipes data for the reset command.
type MaintenanceRepository interface {
	Reset(ctx context.Context, scope ResetScope) error
}
