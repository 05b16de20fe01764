package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/logger"
	"github.com/andy/rapport/internal/repository"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// maxAllocationRetries bounds how often a number collision is retried.
const maxAllocationRetries = 5

// PaymentOption is either a payment payload or nothing. Paid entries get
// no payment slip.
type PaymentOption struct {
	payload *billing.PaymentPayload
}

func SomePayment(p *billing.PaymentPayload) PaymentOption { return PaymentOption{payload: p} }

func NoPayment() PaymentOption { return PaymentOption{} }

// Get returns the payload and whether there is one.
func (o PaymentOption) Get() (*billing.PaymentPayload, bool) {
	return o.payload, o.payload != nil
}

// InvoiceResult is the outcome of issuing an invoice.
type InvoiceResult struct {
	Invoice *domain.Invoice
	Client  *domain.Client
	Entries []*domain.TimeEntry
	Payment PaymentOption
}

// IssuedInvoice is an invoice together with its rendered document.
type IssuedInvoice struct {
	InvoiceResult
	PDF []byte
	// SlipErr is set when the document was produced without payment slip.
	SlipErr error
}

// InvoiceService issues invoices for time entries
type InvoiceService interface {
	// CreateForEntry persists an invoice for a billable entry and returns it
	// with the payment payload, absent when the entry is already paid.
	CreateForEntry(ctx context.Context, entryID int64) (*InvoiceResult, error)

	// Issue creates the invoice and renders its PDF. A payment slip failure
	// does not fail the call; it is reported in SlipErr.
	Issue(ctx context.Context, entryID int64) (*IssuedInvoice, error)

	// Document renders an existing invoice again.
	Document(ctx context.Context, invoiceID int64) (*IssuedInvoice, error)

	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, clientID *int64) ([]*domain.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	entryRepo   repository.TimeEntryRepository
	clientRepo  repository.ClientRepository
	payee       domain.PayeeProfile
	docs        *document.Generator
	log         zerolog.Logger

	now        func() time.Time
	newBackOff func() backoff.BackOff
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	entryRepo repository.TimeEntryRepository,
	clientRepo repository.ClientRepository,
	payee domain.PayeeProfile,
	docs *document.Generator,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		entryRepo:   entryRepo,
		clientRepo:  clientRepo,
		payee:       payee,
		docs:        docs,
		log:         logger.WithComponent("invoice-service"),
		now:         time.Now,
		newBackOff:  defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

func (s *invoiceService) CreateForEntry(ctx context.Context, entryID int64) (*InvoiceResult, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, entry.ClientID)
	if err != nil {
		return nil, err
	}

	if !entry.IsBillable() {
		return nil, ierr.NewErrorf("entry %d has no positive cost", entry.ID).
			WithHint("Zeiteintrag hat keine Kosten, Rechnung nicht möglich").
			WithReportableDetails(map[string]any{"entry_id": entry.ID}).
			Mark(ierr.ErrValidation)
	}
	if s.payee.CompactIBAN() == "" {
		return nil, ierr.NewError("payee IBAN is not configured").
			WithHint("Bitte payee.iban in der Konfiguration setzen").
			Mark(ierr.ErrConfiguration)
	}

	invoice := domain.NewInvoice(client.ID, entry.Cost.Decimal, entry.ID)
	invoice.CreatedAt = s.now()
	if err := s.persist(ctx, invoice); err != nil {
		return nil, err
	}

	result := &InvoiceResult{
		Invoice: invoice,
		Client:  client,
		Entries: []*domain.TimeEntry{entry},
		Payment: NoPayment(),
	}
	if !entry.IsPaid {
		payload, err := billing.BuildPaymentPayload(invoice.Amount, client, invoice.InvoiceNumber, s.payee)
		if err != nil {
			return nil, fmt.Errorf("failed to build payment payload for %s: %w", invoice.InvoiceNumber, err)
		}
		result.Payment = SomePayment(payload)
	}

	s.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Int64("entry_id", entry.ID).
		Int64("client_id", client.ID).
		Str("amount", invoice.Amount.StringFixed(2)).
		Bool("paid", entry.IsPaid).
		Msg("invoice created")

	return result, nil
}

// persist inserts the invoice, retrying number collisions with backoff.
func (s *invoiceService) persist(ctx context.Context, invoice *domain.Invoice) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.invoiceRepo.Create(ctx, invoice)
		if err == nil {
			return nil
		}
		if ierr.IsConflict(err) {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("invoice number conflict, retrying")
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), maxAllocationRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		if ierr.IsConflict(err) {
			return ierr.WithError(err).
				WithHint("Rechnungsnummer konnte nicht vergeben werden, bitte erneut versuchen").
				Mark(ierr.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *invoiceService) Issue(ctx context.Context, entryID int64) (*IssuedInvoice, error) {
	result, err := s.CreateForEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return s.render(result)
}

func (s *invoiceService) Document(ctx context.Context, invoiceID int64) (*IssuedInvoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return nil, err
	}
	entries := make([]*domain.TimeEntry, 0, len(invoice.EntryIDs))
	for _, id := range invoice.EntryIDs {
		entry, err := s.entryRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	result := &InvoiceResult{Invoice: invoice, Client: client, Entries: entries, Payment: NoPayment()}
	allPaid := lo.EveryBy(entries, func(e *domain.TimeEntry) bool { return e.IsPaid })
	if !allPaid {
		payload, err := billing.BuildPaymentPayload(invoice.Amount, client, invoice.InvoiceNumber, s.payee)
		if err != nil {
			return nil, err
		}
		result.Payment = SomePayment(payload)
	}
	return s.render(result)
}

func (s *invoiceService) render(result *InvoiceResult) (*IssuedInvoice, error) {
	payload, _ := result.Payment.Get()
	out, err := s.docs.InvoicePDF(document.InvoiceDocument{
		Invoice: result.Invoice,
		Client:  result.Client,
		Entries: result.Entries,
		Payload: payload,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Rechnung %s wurde gespeichert, PDF konnte nicht erstellt werden", result.Invoice.InvoiceNumber).
			Mark(ierr.ErrSystem)
	}
	return &IssuedInvoice{InvoiceResult: *result, PDF: out.PDF, SlipErr: out.SlipErr}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) ListInvoices(ctx context.Context, clientID *int64) ([]*domain.Invoice, error) {
	return s.invoiceRepo.List(ctx, clientID)
}
