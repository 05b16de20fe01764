package document

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const reportTopicLen = 30

var csvHeader = []string{"Datum", "Kunde", "Thema", "Dauer (Min)", "Kosten (CHF)", "Bezahlt", "Zahlungsart"}

// ReportRow is one entry in a report, with the client name resolved.
type ReportRow struct {
	EntryID       int64
	Date          time.Time
	Client        string
	Topic         string
	Minutes       int
	Cost          decimal.NullDecimal
	Paid          bool
	PaymentMethod string
}

// CostOrZero returns the cost, zero while not computed.
func (r ReportRow) CostOrZero() decimal.Decimal {
	if !r.Cost.Valid {
		return decimal.Zero
	}
	return r.Cost.Decimal
}

// ReportPeriod describes the date filter printed on the report.
type ReportPeriod struct {
	From *time.Time
	To   *time.Time
}

// WriteCSV writes rows as semicolon separated values with Swiss dates.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format(chDateLayout),
			r.Client,
			r.Topic,
			fmt.Sprint(r.Minutes),
			r.CostOrZero().StringFixed(2),
			lo.Ternary(r.Paid, "Ja", "Nein"),
			r.PaymentMethod,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportPDF writes an A4 table of rows with a total line.
func (g *Generator) ReportPDF(w io.Writer, rows []ReportRow, period ReportPeriod) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Rapporte Übersicht"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if info := filterInfo(period); info != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, info)
		pdf.Ln(8)
	}

	widths := []float64{25, 35, 60, 15, 20, 25}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, h := range []string{"Datum", "Kunde", "Thema", "Min", "CHF", "Status"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(245, 245, 220)
	for _, r := range rows {
		cells := []string{
			r.Date.Format(chDateLayout),
			truncate(r.Client, 18),
			truncate(r.Topic, reportTopicLen),
			fmt.Sprint(r.Minutes),
			r.CostOrZero().StringFixed(2),
			status(r),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, tr(c), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(211, 211, 211)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 7, "", "", 0, "L", true, 0, "")
	pdf.CellFormat(widths[4]+widths[5], 7, "Total: "+Totals(rows).Cost.StringFixed(2), "", 1, "L", true, 0, "")

	return pdf.Output(w)
}

func status(r ReportRow) string {
	if !r.Paid {
		return "Offen"
	}
	return strings.TrimSpace("Bezahlt " + r.PaymentMethod)
}

func filterInfo(p ReportPeriod) string {
	var parts []string
	if p.From != nil {
		parts = append(parts, "Von: "+p.From.Format(chDateLayout))
	}
	if p.To != nil {
		parts = append(parts, "Bis: "+p.To.Format(chDateLayout))
	}
	return strings.Join(parts, " | ")
}

// ReportTotals sums a set of rows.
type ReportTotals struct {
	Minutes  int
	Cost     decimal.Decimal
	OpenCost decimal.Decimal
}

// Totals adds up minutes, cost and the cost of unpaid rows.
func Totals(rows []ReportRow) ReportTotals {
	return ReportTotals{
		Minutes: lo.SumBy(rows, func(r ReportRow) int { return r.Minutes }),
		Cost: lo.Reduce(rows, func(acc decimal.Decimal, r ReportRow, _ int) decimal.Decimal {
			return acc.Add(r.CostOrZero())
		}, decimal.Zero),
		OpenCost: lo.Reduce(lo.Filter(rows, func(r ReportRow, _ int) bool { return !r.Paid }),
			func(acc decimal.Decimal, r ReportRow, _ int) decimal.Decimal {
				return acc.Add(r.CostOrZero())
			}, decimal.Zero),
	}
}
