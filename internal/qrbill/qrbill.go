// Package qrbill encodes payment payloads as Swiss QR-bill codes.
package qrbill

import (
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andy/rapport/internal/billing"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
)

const (
	header      = "SPC"
	version     = "0200"
	codingType  = "1"
	addressType = "S"
	currency    = "CHF"
	refNone     = "NON"
	trailer     = "EPD"

	maxNameLen    = 70
	maxStreetLen  = 70
	maxPostalLen  = 16
	maxCityLen    = 35
	maxMessageLen = 140
)

var (
	minAmount = decimal.RequireFromString("0.01")
	maxAmount = decimal.RequireFromString("999999999.99")
)

// Slip is a rendered payment slip: the encoded text and its QR code.
type Slip struct {
	Text string
	Code barcode.Barcode
}

// Renderer turns payment payloads into QR codes.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render validates and encodes the payload. All failures are marked as
// rendering errors so callers can degrade instead of aborting.
func (r *Renderer) Render(p *billing.PaymentPayload) (*Slip, error) {
	text, err := Encode(p)
	if err != nil {
		return nil, err
	}
	code, err := qr.Encode(text, qr.M, qr.Unicode)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("QR-Code konnte nicht erzeugt werden").
			Mark(ierr.ErrRendering)
	}
	return &Slip{Text: text, Code: code}, nil
}

// Encode builds the Swiss Payments Code text for the payload.
func Encode(p *billing.PaymentPayload) (string, error) {
	if p == nil {
		return "", renderingError("no payment payload")
	}
	if err := ValidateIBAN(p.Account); err != nil {
		return "", err
	}
	if isQRIBAN(p.Account) {
		return "", renderingError("QR-IBAN requires a QR reference")
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return "", ierr.WithError(err).WithHint("Ungültiger Betrag").Mark(ierr.ErrRendering)
	}
	if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
		return "", renderingError("amount " + p.Amount + " out of range")
	}
	if p.Currency != "" && p.Currency != currency {
		return "", renderingError("unsupported currency " + p.Currency)
	}

	lines := []string{header, version, codingType, p.Account}

	creditor, err := addressLines(p.Creditor.Name, "", p.Creditor.PostalCode, p.Creditor.City, p.Creditor.Country, "creditor")
	if err != nil {
		return "", err
	}
	lines = append(lines, creditor...)
	// ultimate creditor, reserved
	lines = append(lines, "", "", "", "", "", "", "")

	lines = append(lines, amount.StringFixed(2), currency)

	if d := p.Debtor; d != nil {
		street := ""
		if d.Street != nil {
			street = *d.Street
		}
		debtor, err := addressLines(d.Name, street, d.PostalCode, d.City, d.Country, "debtor")
		if err != nil {
			return "", err
		}
		lines = append(lines, debtor...)
	} else {
		lines = append(lines, "", "", "", "", "", "", "")
	}

	if utf8.RuneCountInString(p.Reference) > maxMessageLen {
		return "", renderingError("message too long")
	}
	lines = append(lines, refNone, "", p.Reference, trailer)

	return strings.Join(lines, "\n"), nil
}

func addressLines(name, street, pcode, city, country, role string) ([]string, error) {
	checks := []struct {
		field string
		value string
		max   int
		req   bool
	}{
		{"name", name, maxNameLen, true},
		{"street", street, maxStreetLen, false},
		{"postal code", pcode, maxPostalLen, true},
		{"city", city, maxCityLen, true},
	}
	for _, c := range checks {
		n := utf8.RuneCountInString(c.value)
		if c.req && n == 0 {
			return nil, renderingError(role + " " + c.field + " is required")
		}
		if n > c.max {
			return nil, renderingError(role + " " + c.field + " exceeds " + strconv.Itoa(c.max) + " characters")
		}
	}
	if len(country) != 2 {
		return nil, renderingError(role + " country must be a two letter code")
	}
	return []string{addressType, name, street, "", pcode, city, strings.ToUpper(country)}, nil
}

// ValidateIBAN checks a compact Swiss or Liechtenstein IBAN.
func ValidateIBAN(iban string) error {
	if len(iban) != 21 {
		return renderingError("IBAN must have 21 characters")
	}
	if cc := iban[:2]; cc != "CH" && cc != "LI" {
		return renderingError("only CH and LI accounts are supported")
	}
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
		default:
			return renderingError("IBAN contains invalid characters")
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok || new(big.Int).Mod(n, big.NewInt(97)).Int64() != 1 {
		return renderingError("IBAN checksum mismatch")
	}
	return nil
}

// isQRIBAN reports whether the institution id is in the QR-IID range.
func isQRIBAN(iban string) bool {
	iid, err := strconv.Atoi(iban[4:9])
	return err == nil && iid >= 30000 && iid <= 31999
}

func renderingError(msg string) error {
	return ierr.NewError(msg).
		WithHintf("Einzahlungsschein nicht erstellt: %s", msg).
		Mark(ierr.ErrRendering)
}
