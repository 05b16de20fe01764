// Package billing holds the pure money and numbering rules: cost of a time
// entry, invoice numbers and the payment payload handed to the slip renderer.
package billing

import (
	"strings"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
)

// Rounding selects how computed costs are rounded to two decimals.
type Rounding string

const (
	RoundHalfUp   Rounding = "half_up"
	RoundHalfEven Rounding = "half_even"
)

// ParseRounding accepts the config values; empty selects half-up.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	}
	return "", ierr.NewErrorf("unknown rounding mode %q", s).
		WithHint("billing.rounding muss half_up oder half_even sein").
		Mark(ierr.ErrConfiguration)
}

// ComputeCost returns the cost of an entry. A present override is returned
// unchanged; otherwise minutes/60*rate is rounded to two decimals.
func ComputeCost(minutes int, rate decimal.Decimal, override decimal.NullDecimal, mode Rounding) decimal.Decimal {
	if override.Valid {
		return override.Decimal
	}
	raw := decimal.NewFromInt(int64(minutes)).Mul(rate).Div(decimal.NewFromInt(60))
	if mode == RoundHalfEven {
		return raw.RoundBank(2)
	}
	return raw.Round(2)
}

// ParseOverride reads a manually entered cost. Blank input means no override.
// A decimal comma is accepted.
func ParseOverride(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.NullDecimal{}, ierr.WithError(err).
			WithHintf("Ungültiger Betrag: %s", s).
			Mark(ierr.ErrValidation)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, ierr.NewError("cost override cannot be negative").
			WithHint("Kosten dürfen nicht negativ sein").
			Mark(ierr.ErrValidation)
	}
	return decimal.NewNullDecimal(d), nil
}
