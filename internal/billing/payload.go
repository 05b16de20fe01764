package billing

import (
	"strings"

	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	// SlipLocale is the language of the rendered payment slip.
	SlipLocale = "de"

	defaultCreditorPostalCode = "8000"
	defaultCreditorCity       = "Zürich"
	referencePrefix           = "Rechnung Nr. "
)

type Creditor struct {
	Name       string `json:"name"`
	PostalCode string `json:"pcode"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// Debtor is the payer block. Street is nil when the client has no street.
type Debtor struct {
	Name       string  `json:"name"`
	Street     *string `json:"street"`
	PostalCode string  `json:"pcode"`
	City       string  `json:"city"`
	Country    string  `json:"country"`
}

// PaymentPayload is the input of the payment slip renderer.
type PaymentPayload struct {
	Account   string   `json:"account"`
	Creditor  Creditor `json:"creditor"`
	Debtor    *Debtor  `json:"debtor,omitempty"`
	Amount    string   `json:"amount"`
	Currency  string   `json:"currency"`
	Reference string   `json:"additional_information"`
	Locale    string   `json:"language"`
}

// BuildPaymentPayload assembles the slip data for an invoice. It fails with a
// configuration error when the payee has no IBAN. The result depends only on
// its inputs.
func BuildPaymentPayload(amount decimal.Decimal, client *domain.Client, invoiceNumber string, payee domain.PayeeProfile) (*PaymentPayload, error) {
	iban := payee.CompactIBAN()
	if iban == "" {
		return nil, ierr.NewError("payee IBAN is not configured").
			WithHint("Bitte payee.iban in der Konfiguration setzen").
			Mark(ierr.ErrConfiguration)
	}
	if !amount.IsPositive() {
		return nil, ierr.NewErrorf("payment amount %s must be positive", amount.String()).
			WithHint("Rechnungsbetrag muss grösser als 0 sein").
			Mark(ierr.ErrValidation)
	}

	pcode, city := splitPostalCity(payee.AddressLine2)
	payload := &PaymentPayload{
		Account: iban,
		Creditor: Creditor{
			Name:       payee.LegalName,
			PostalCode: pcode,
			City:       city,
			Country:    payee.Country(),
		},
		Amount:    amount.StringFixed(2),
		Currency:  "CHF",
		Reference: referencePrefix + invoiceNumber,
		Locale:    SlipLocale,
	}
	if client != nil {
		payload.Debtor = buildDebtor(client)
	}
	return payload, nil
}

func buildDebtor(client *domain.Client) *Debtor {
	addr := client.EffectiveAddress()
	name := strings.TrimSpace(client.Name)
	pcode := strings.TrimSpace(addr.PostalCode)
	city := strings.TrimSpace(addr.City)
	if name == "" || pcode == "" || city == "" {
		return nil
	}

	d := &Debtor{
		Name:       name,
		PostalCode: pcode,
		City:       city,
		Country:    "CH",
	}
	if street := addr.StreetLine(); street != "" {
		d.Street = &street
	}
	return d
}

// splitPostalCity splits "8001 Zürich" on the first whitespace run. Lines with
// fewer than two tokens fall back to the default creditor location.
func splitPostalCity(line string) (string, string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return defaultCreditorPostalCode, defaultCreditorCity
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	return fields[0], rest
}
