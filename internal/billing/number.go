package billing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ierr "github.com/andy/rapport/internal/errors"
)

const (
	invoicePrefix = "RE-"
	maxSequence   = 99999
)

var invoiceNumberPattern = regexp.MustCompile(`^RE-(\d{8})-(\d{5})$`)

// DatePrefix returns the part of an invoice number shared by all invoices of
// the given calendar day, e.g. "RE-20240115-".
func DatePrefix(day time.Time) string {
	return invoicePrefix + day.Format("20060102") + "-"
}

// FormatInvoiceNumber renders the number for the seq-th invoice of a day.
func FormatInvoiceNumber(day time.Time, seq int) (string, error) {
	if seq < 1 || seq > maxSequence {
		return "", ierr.NewErrorf("invoice sequence %d out of range", seq).
			WithHint("Tageslimit für Rechnungsnummern erreicht").
			Mark(ierr.ErrConflict)
	}
	return fmt.Sprintf("%s%05d", DatePrefix(day), seq), nil
}

// NextInvoiceNumber returns the number following existingCount invoices
// already issued on day.
func NextInvoiceNumber(day time.Time, existingCount int) (string, error) {
	return FormatInvoiceNumber(day, existingCount+1)
}

// ParseInvoiceNumber splits a number into its day and sequence.
func ParseInvoiceNumber(number string) (time.Time, int, error) {
	m := invoiceNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return time.Time{}, 0, ierr.NewErrorf("malformed invoice number %q", number).
			Mark(ierr.ErrValidation)
	}
	day, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, 0, ierr.WithError(err).Mark(ierr.ErrValidation)
	}
	seq, _ := strconv.Atoi(m[2])
	return day, seq, nil
}
