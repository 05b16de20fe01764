package domain

import (
	"strings"
	"time"

	"github.com/andy/rapport/internal/address"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
)

// DefaultHourlyRate applies when a client is created without a rate.
var DefaultHourlyRate = decimal.NewFromInt(120)

type Client struct {
	ID               int64
	Name             string
	Email            string
	Phone            string
	ITInfrastructure string
	HourlyRate       decimal.Decimal
	Address          address.Structured
	// LegacyAddress is the free-text address of records created before the
	// structured fields existed. It is only read as migration input.
	LegacyAddress *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewClient creates a new client with required fields
func NewClient(name string, hourlyRate decimal.Decimal) *Client {
	now := time.Now()
	return &Client{
		Name:       strings.TrimSpace(name),
		HourlyRate: hourlyRate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetAddress stores src as the structured address. Raw text is parsed once.
func (c *Client) SetAddress(src address.Source) {
	c.Address = src.Resolve()
}

// NeedsAddressMigration is true for clients with legacy text but no
// structured fields.
func (c *Client) NeedsAddressMigration() bool {
	return c.Address.IsEmpty() && c.LegacyAddress != nil && strings.TrimSpace(*c.LegacyAddress) != ""
}

// EffectiveAddress returns the structured address, deriving it from the
// legacy text when the structured fields were never filled in.
func (c *Client) EffectiveAddress() address.Structured {
	if c.NeedsAddressMigration() {
		return address.Raw(*c.LegacyAddress).Resolve()
	}
	return c.Address
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ierr.NewError("client name is required").
			WithHint("Name ist erforderlich").
			Mark(ierr.ErrValidation)
	}
	if c.HourlyRate.IsNegative() {
		return ierr.NewError("hourly rate cannot be negative").
			WithHint("Stundenansatz darf nicht negativ sein").
			Mark(ierr.ErrValidation)
	}
	return nil
}
