package service

import (
	"context"
	"strings"
	"time"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/validator"
	"github.com/shopspring/decimal"
)

// EntryInput carries the editable entry fields. A blank CostOverride means
// the cost is computed from the client's hourly rate.
type EntryInput struct {
	ClientID        int64     `json:"client_id" validate:"required,gt=0"`
	Date            time.Time `json:"date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gt=0"`
	Topic           string    `json:"topic" validate:"required"`
	CostOverride    string    `json:"cost"`
	Paid            bool      `json:"paid"`
	PaymentMethod   string    `json:"payment_method" validate:"required_if=Paid true"`
}

// EntryService manages time entries and their cost
type EntryService interface {
	Create(ctx context.Context, in EntryInput) (*domain.TimeEntry, error)
	// Update replaces all fields and recomputes the cost unless overridden.
	Update(ctx context.Context, id int64, in EntryInput) (*domain.TimeEntry, error)
	Get(ctx context.Context, id int64) (*domain.TimeEntry, error)
	MarkPaid(ctx context.Context, id int64, method string) (*domain.TimeEntry, error)
}

type entryService struct {
	entryRepo  repository.TimeEntryRepository
	clientRepo repository.ClientRepository
	rounding   billing.Rounding
}

// NewEntryService creates a new entry service
func NewEntryService(
	entryRepo repository.TimeEntryRepository,
	clientRepo repository.ClientRepository,
	rounding billing.Rounding,
) EntryService {
	return &entryService{
		entryRepo:  entryRepo,
		clientRepo: clientRepo,
		rounding:   rounding,
	}
}

func (s *entryService) Create(ctx context.Context, in EntryInput) (*domain.TimeEntry, error) {
	cost, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	entry := domain.NewTimeEntry(in.ClientID, dateOnly(in.Date), in.DurationMinutes, in.Topic)
	entry.Cost = decimal.NewNullDecimal(cost)
	if in.Paid {
		entry.MarkPaid(in.PaymentMethod)
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *entryService) Update(ctx context.Context, id int64, in EntryInput) (*domain.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cost, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	entry.ClientID = in.ClientID
	entry.Date = dateOnly(in.Date)
	entry.DurationMinutes = in.DurationMinutes
	entry.Topic = strings.TrimSpace(in.Topic)
	entry.Cost = decimal.NewNullDecimal(cost)
	entry.IsPaid = in.Paid
	entry.PaymentMethod = ""
	if in.Paid {
		entry.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	}

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// prepare validates the input and returns the entry cost.
func (s *entryService) prepare(ctx context.Context, in EntryInput) (decimal.Decimal, error) {
	if err := validator.ValidateRequest(in); err != nil {
		return decimal.Zero, err
	}
	client, err := s.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return decimal.Zero, err
	}
	override, err := billing.ParseOverride(in.CostOverride)
	if err != nil {
		return decimal.Zero, err
	}
	return billing.ComputeCost(in.DurationMinutes, client.HourlyRate, override, s.rounding), nil
}

func (s *entryService) Get(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	return s.entryRepo.GetByID(ctx, id)
}

func (s *entryService) MarkPaid(ctx context.Context, id int64, method string) (*domain.TimeEntry, error) {
	if strings.TrimSpace(method) == "" {
		return nil, ierr.NewError("payment method is required").
			WithHint("Zahlungsart ist erforderlich").
			Mark(ierr.ErrValidation)
	}
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.MarkPaid(method)
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
