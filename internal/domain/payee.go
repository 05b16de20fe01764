package domain

import "strings"

// PayeeProfile describes the business issuing invoices. It is loaded from the
// config file and checked only where it is used.
type PayeeProfile struct {
	LegalName    string `yaml:"legal_name"`
	IBAN         string `yaml:"iban"`
	BankName     string `yaml:"bank_name"`
	BIC          string `yaml:"bic"`
	DisplayName  string `yaml:"display_name"`
	AddressLine1 string `yaml:"address_line1"`
	AddressLine2 string `yaml:"address_line2"`
	CountryCode  string `yaml:"country_code"`
}

// CompactIBAN returns the IBAN without spaces, upper-cased.
func (p PayeeProfile) CompactIBAN() string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p.IBAN), " ", ""))
}

// Country returns the configured country code, CH when unset.
func (p PayeeProfile) Country() string {
	if c := strings.TrimSpace(p.CountryCode); c != "" {
		return strings.ToUpper(c)
	}
	return "CH"
}

// Name returns the display name, falling back to the legal name.
func (p PayeeProfile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.LegalName
}
