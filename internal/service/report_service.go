package service

import (
	"context"
	"io"
	"strings"

	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
	"github.com/samber/lo"
)

// Report is a filtered entry listing with totals.
type Report struct {
	Filter repository.EntryFilter
	Rows   []document.ReportRow
	Totals document.ReportTotals
}

// ReportService lists and exports entries
type ReportService interface {
	List(ctx context.Context, filter repository.EntryFilter) (*Report, error)
	ExportCSV(ctx context.Context, w io.Writer, filter repository.EntryFilter) error
	ExportPDF(ctx context.Context, w io.Writer, filter repository.EntryFilter) error
}

type reportService struct {
	entryRepo  repository.TimeEntryRepository
	clientRepo repository.ClientRepository
	docs       *document.Generator
}

// NewReportService creates a new report service
func NewReportService(
	entryRepo repository.TimeEntryRepository,
	clientRepo repository.ClientRepository,
	docs *document.Generator,
) ReportService {
	return &reportService{
		entryRepo:  entryRepo,
		clientRepo: clientRepo,
		docs:       docs,
	}
}

func (s *reportService) List(ctx context.Context, filter repository.EntryFilter) (*Report, error) {
	entries, err := s.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	names := lo.SliceToMap(clients, func(c *domain.Client) (int64, string) {
		return c.ID, c.Name
	})

	rows := lo.Map(entries, func(e *domain.TimeEntry, _ int) document.ReportRow {
		return document.ReportRow{
			EntryID:       e.ID,
			Date:          e.Date,
			Client:        names[e.ClientID],
			Topic:         e.Topic,
			Minutes:       e.DurationMinutes,
			Cost:          e.Cost,
			Paid:          e.IsPaid,
			PaymentMethod: e.PaymentMethod,
		}
	})

	return &Report{
		Filter: filter,
		Rows:   rows,
		Totals: document.Totals(rows),
	}, nil
}

func (s *reportService) ExportCSV(ctx context.Context, w io.Writer, filter repository.EntryFilter) error {
	report, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	return document.WriteCSV(w, report.Rows)
}

func (s *reportService) ExportPDF(ctx context.Context, w io.Writer, filter repository.EntryFilter) error {
	report, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	return s.docs.ReportPDF(w, report.Rows, document.ReportPeriod{From: filter.From, To: filter.To})
}

// ParsePaidFilter reads the paid filter: blank for any, 1/ja/yes/true for
// paid, 0/nein/no/false for open entries.
func ParsePaidFilter(s string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "alle":
		return nil, nil
	case "1", "ja", "yes", "true", "paid":
		return lo.ToPtr(true), nil
	case "0", "nein", "no", "false", "open", "offen":
		return lo.ToPtr(false), nil
	}
	return nil, ierr.NewErrorf("invalid paid filter %q", s).
		WithHint("Filter bezahlt muss 1 oder 0 sein").
		Mark(ierr.ErrValidation)
}
