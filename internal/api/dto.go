package api

import (
	"net/http"
	"time"

	"github.com/andy/rapport/internal/address"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/service"
	"github.com/samber/lo"
)

type clientRequest struct {
	service.ClientInput
}

// Bind satisfies render.Binder. Field rules are checked by the service.
func (cr *clientRequest) Bind(r *http.Request) error {
	return nil
}

type loginRequest struct {
	service.LoginInput
}

func (lr *loginRequest) Bind(r *http.Request) error {
	return nil
}

type entryRequest struct {
	ClientID        int64  `json:"client_id"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
	Topic           string `json:"topic"`
	Cost            string `json:"cost"`
	Paid            bool   `json:"paid"`
	PaymentMethod   string `json:"payment_method"`

	date time.Time
}

func (er *entryRequest) Bind(r *http.Request) error {
	if er.Date == "" {
		er.date = time.Now()
		return nil
	}
	d, err := time.ParseInLocation(domain.DateLayout, er.Date, time.Local)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Ungültiges Datum: %s (YYYY-MM-DD)", er.Date).
			WithReportableDetails(map[string]any{"date": "format"}).
			Mark(ierr.ErrValidation)
	}
	er.date = d
	return nil
}

func (er *entryRequest) input() service.EntryInput {
	return service.EntryInput{
		ClientID:        er.ClientID,
		Date:            er.date,
		DurationMinutes: er.DurationMinutes,
		Topic:           er.Topic,
		CostOverride:    er.Cost,
		Paid:            er.Paid,
		PaymentMethod:   er.PaymentMethod,
	}
}

type clientResponse struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Email            string             `json:"email,omitempty"`
	Phone            string             `json:"phone,omitempty"`
	ITInfrastructure string             `json:"it_infrastructure,omitempty"`
	HourlyRate       string             `json:"hourly_rate"`
	Address          address.Structured `json:"address"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newClientResponse(c *domain.Client) clientResponse {
	return clientResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		ITInfrastructure: c.ITInfrastructure,
		HourlyRate:       c.HourlyRate.StringFixed(2),
		Address:          c.EffectiveAddress(),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type loginResponse struct {
	ID          int64  `json:"id"`
	ClientID    int64  `json:"client_id"`
	DeviceType  string `json:"device_type"`
	Description string `json:"description,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
}

func newLoginResponse(l *domain.DeviceLogin) loginResponse {
	return loginResponse{
		ID:          l.ID,
		ClientID:    l.ClientID,
		DeviceType:  l.DeviceType,
		Description: l.Description,
		Username:    l.Username,
		Password:    l.Password,
	}
}

type entryResponse struct {
	ID              int64  `json:"id"`
	ClientID        int64  `json:"client_id"`
	Client          string `json:"client,omitempty"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
	Topic           string `json:"topic"`
	Cost            string `json:"cost"`
	Paid            bool   `json:"paid"`
	PaymentMethod   string `json:"payment_method,omitempty"`
}

func newEntryResponse(e *domain.TimeEntry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		ClientID:        e.ClientID,
		Date:            e.Date.Format(domain.DateLayout),
		DurationMinutes: e.DurationMinutes,
		Topic:           e.Topic,
		Cost:            e.CostOrZero().StringFixed(2),
		Paid:            e.IsPaid,
		PaymentMethod:   e.PaymentMethod,
	}
}

type reportResponse struct {
	Entries  []entryResponse `json:"entries"`
	Minutes  int             `json:"total_minutes"`
	Cost     string          `json:"total_cost"`
	OpenCost string          `json:"open_cost"`
}

func newReportResponse(rep *service.Report) reportResponse {
	return reportResponse{
		Entries: lo.Map(rep.Rows, func(row document.ReportRow, _ int) entryResponse {
			return entryResponse{
				ID:              row.EntryID,
				Client:          row.Client,
				Date:            row.Date.Format(domain.DateLayout),
				DurationMinutes: row.Minutes,
				Topic:           row.Topic,
				Cost:            row.CostOrZero().StringFixed(2),
				Paid:            row.Paid,
				PaymentMethod:   row.PaymentMethod,
			}
		}),
		Minutes:  rep.Totals.Minutes,
		Cost:     rep.Totals.Cost.StringFixed(2),
		OpenCost: rep.Totals.OpenCost.StringFixed(2),
	}
}

type invoiceResponse struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      int64     `json:"client_id"`
	Amount        string    `json:"amount"`
	EntryIDs      []int64   `json:"entry_ids"`
	CreatedAt     time.Time `json:"created_at"`
}

func newInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		Amount:        inv.Amount.StringFixed(2),
		EntryIDs:      inv.EntryIDs,
		CreatedAt:     inv.CreatedAt,
	}
}
