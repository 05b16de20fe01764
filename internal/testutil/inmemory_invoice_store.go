package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
)

// InMemoryInvoiceStore implements repository.InvoiceRepository. Numbers are
// allocated under the store lock from a per-day counter.
type InMemoryInvoiceStore struct {
	mu        sync.RWMutex
	nextID    int64
	items     map[int64]domain.Invoice
	sequences map[string]int

	// FailCreates makes the next n calls to Create return a conflict.
	FailCreates int
	// CreateCalls counts calls to Create, including failed ones.
	CreateCalls int
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		items:     make(map[int64]domain.Invoice),
		sequences: make(map[string]int),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *domain.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CreateCalls++
	if s.FailCreates > 0 {
		s.FailCreates--
		return ierr.NewError("UNIQUE constraint failed: invoices.invoice_number").Mark(ierr.ErrConflict)
	}

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	day := billing.DatePrefix(inv.CreatedAt)
	number, err := billing.FormatInvoiceNumber(inv.CreatedAt, s.sequences[day]+1)
	if err != nil {
		return err
	}
	s.sequences[day]++

	s.nextID++
	inv.ID = s.nextID
	inv.InvoiceNumber = number
	stored := *inv
	stored.EntryIDs = append([]int64(nil), inv.EntryIDs...)
	s.items[inv.ID] = stored
	return nil
}

func (s *InMemoryInvoiceStore) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.items[id]
	if !ok {
		return nil, notFound("invoice", id)
	}
	return &inv, nil
}

func (s *InMemoryInvoiceStore) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.items {
		if inv.InvoiceNumber == number {
			inv := inv
			return &inv, nil
		}
	}
	return nil, notFound("invoice", number)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, clientID *int64) ([]*domain.Invoice, error) {
	return s.filter(func(inv domain.Invoice) bool {
		return clientID == nil || inv.ClientID == *clientID
	}), nil
}

func (s *InMemoryInvoiceStore) ListByEntry(ctx context.Context, entryID int64) ([]*domain.Invoice, error) {
	return s.filter(func(inv domain.Invoice) bool {
		for _, id := range inv.EntryIDs {
			if id == entryID {
				return true
			}
		}
		return false
	}), nil
}

func (s *InMemoryInvoiceStore) CountForDate(ctx context.Context, day time.Time) (int, error) {
	prefix := billing.DatePrefix(day)
	return len(s.filter(func(inv domain.Invoice) bool {
		return strings.HasPrefix(inv.InvoiceNumber, prefix)
	})), nil
}

func (s *InMemoryInvoiceStore) filter(keep func(domain.Invoice) bool) []*domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Invoice
	for _, inv := range s.items {
		if keep(inv) {
			inv := inv
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
