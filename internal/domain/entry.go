package domain

import (
	"strings"
	"time"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
)

// DateLayout is the storage and CLI format of entry dates.
const DateLayout = "2006-01-02"

type TimeEntry struct {
	ID              int64
	ClientID        int64
	Date            time.Time
	DurationMinutes int
	Topic           string
	Cost            decimal.NullDecimal // invalid until computed
	IsPaid          bool
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewTimeEntry creates a new unpaid time entry
func NewTimeEntry(clientID int64, date time.Time, minutes int, topic string) *TimeEntry {
	now := time.Now()
	return &TimeEntry{
		ClientID:        clientID,
		Date:            date,
		DurationMinutes: minutes,
		Topic:           strings.TrimSpace(topic),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CostOrZero returns the cost, or zero while it has not been computed.
func (e *TimeEntry) CostOrZero() decimal.Decimal {
	if !e.Cost.Valid {
		return decimal.Zero
	}
	return e.Cost.Decimal
}

// IsBillable reports whether an invoice can be issued for the entry.
func (e *TimeEntry) IsBillable() bool {
	return e.Cost.Valid && e.Cost.Decimal.IsPositive()
}

// MarkPaid sets the paid flag together with the payment method.
func (e *TimeEntry) MarkPaid(method string) {
	e.IsPaid = true
	e.PaymentMethod = strings.TrimSpace(method)
	e.UpdatedAt = time.Now()
}

// Validate returns an error if the entry is invalid
func (e *TimeEntry) Validate() error {
	if e.ClientID <= 0 {
		return invalid("client ID is required", "Kunde ist erforderlich")
	}
	if e.Date.IsZero() {
		return invalid("date is required", "Datum ist erforderlich")
	}
	if e.DurationMinutes <= 0 {
		return invalid("duration must be greater than zero", "Dauer muss grösser als 0 sein")
	}
	if strings.TrimSpace(e.Topic) == "" {
		return invalid("topic is required", "Thema ist erforderlich")
	}
	if e.Cost.Valid && e.Cost.Decimal.IsNegative() {
		return invalid("cost cannot be negative", "Kosten dürfen nicht negativ sein")
	}
	if e.IsPaid && strings.TrimSpace(e.PaymentMethod) == "" {
		return invalid("payment method is required for paid entries", "Zahlungsart ist erforderlich")
	}
	return nil
}

func invalid(msg, hint string) error {
	return ierr.NewError(msg).WithHint(hint).Mark(ierr.ErrValidation)
}
