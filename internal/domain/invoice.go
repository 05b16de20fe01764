package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is issued for billable entries. It is never modified after creation.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	ClientID      int64
	Amount        decimal.Decimal
	EntryIDs      []int64 // ordered, currently exactly one
	CreatedAt     time.Time
}

// NewInvoice creates an invoice for a single entry. The number is assigned
// when the invoice is persisted.
func NewInvoice(clientID int64, amount decimal.Decimal, entryIDs ...int64) *Invoice {
	return &Invoice{
		ClientID:  clientID,
		Amount:    amount,
		EntryIDs:  entryIDs,
		CreatedAt: time.Now(),
	}
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.ClientID <= 0 {
		return invalid("client ID is required", "Kunde ist erforderlich")
	}
	if !i.Amount.IsPositive() {
		return invalid("invoice amount must be positive", "Rechnungsbetrag muss grösser als 0 sein")
	}
	if len(i.EntryIDs) == 0 {
		return invalid("invoice must reference at least one entry", "Rechnung ohne Zeiteintrag")
	}
	return nil
}
