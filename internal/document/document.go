// Package document renders invoices and entry reports as PDF and CSV.
package document

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/logger"
	"github.com/andy/rapport/internal/qrbill"
	"github.com/jung-kurt/gofpdf"
	pdfbarcode "github.com/jung-kurt/gofpdf/contrib/barcode"
	"github.com/rs/zerolog"
)

const chDateLayout = "02.01.2006"

var barcodeMu sync.Mutex

// SlipRenderer produces the payment slip QR code for a payload.
type SlipRenderer interface {
	Render(p *billing.PaymentPayload) (*qrbill.Slip, error)
}

// Generator assembles PDF documents.
type Generator struct {
	renderer SlipRenderer
	payee    domain.PayeeProfile
	log      zerolog.Logger
}

func NewGenerator(renderer SlipRenderer, payee domain.PayeeProfile) *Generator {
	return &Generator{
		renderer: renderer,
		payee:    payee,
		log:      logger.WithComponent("document"),
	}
}

// InvoiceDocument is everything printed on an invoice. Payload is nil for
// paid entries, in which case a paid confirmation replaces the slip.
type InvoiceDocument struct {
	Invoice *domain.Invoice
	Client  *domain.Client
	Entries []*domain.TimeEntry
	Payload *billing.PaymentPayload
}

// Rendered is a finished PDF. SlipErr is set when the payment slip could not
// be drawn; the PDF then carries a notice in its place.
type Rendered struct {
	PDF     []byte
	SlipErr error
}

// InvoicePDF renders an A4 invoice.
func (g *Generator) InvoicePDF(doc InvoiceDocument) (*Rendered, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Rechnung "+doc.Invoice.InvoiceNumber), false)
	pdf.AddPage()

	// Payee header
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 7, tr(g.payee.Name()))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{g.payee.AddressLine1, g.payee.AddressLine2} {
		if line != "" {
			pdf.Cell(0, 4, tr(line))
			pdf.Ln(4)
		}
	}
	pdf.Ln(12)

	// Client block
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 5, tr(doc.Client.Name))
	pdf.Ln(5)
	for _, line := range doc.Client.EffectiveAddress().Lines() {
		pdf.Cell(0, 5, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 9, "Rechnung")
	pdf.Ln(11)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, "Rechnungsnummer:")
	pdf.Cell(0, 6, doc.Invoice.InvoiceNumber)
	pdf.Ln(6)
	pdf.Cell(40, 6, "Datum:")
	pdf.Cell(0, 6, doc.Invoice.CreatedAt.Format(chDateLayout))
	pdf.Ln(12)

	// Lines
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(25, 7, "Datum", "B", 0, "L", true, 0, "")
	pdf.CellFormat(105, 7, "Leistung", "B", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Minuten", "B", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Betrag (CHF)", "B", 1, "R", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, e := range doc.Entries {
		pdf.CellFormat(25, 6, e.Date.Format(chDateLayout), "", 0, "L", false, 0, "")
		pdf.CellFormat(105, 6, tr(truncate(e.Topic, 60)), "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(e.DurationMinutes), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, e.CostOrZero().StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(155, 8, "Total CHF", "T", 0, "L", false, 0, "")
	pdf.CellFormat(35, 8, doc.Invoice.Amount.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	if g.payee.BankName != "" || g.payee.IBAN != "" {
		pdf.SetFont("Arial", "", 9)
		pdf.Cell(0, 4, tr(fmt.Sprintf("Bank: %s  IBAN: %s  BIC: %s", g.payee.BankName, g.payee.IBAN, g.payee.BIC)))
		pdf.Ln(4)
	}

	var slipErr error
	if doc.Payload == nil {
		g.drawPaid(pdf, tr, doc)
	} else {
		slipErr = g.drawSlip(pdf, tr, doc.Payload)
		if slipErr != nil {
			g.log.Warn().Err(slipErr).
				Str("invoice_number", doc.Invoice.InvoiceNumber).
				Msg("payment slip rendering failed, document produced without slip")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write invoice PDF: %w", err)
	}
	return &Rendered{PDF: buf.Bytes(), SlipErr: slipErr}, nil
}

func (g *Generator) drawPaid(pdf *gofpdf.Fpdf, tr func(string) string, doc InvoiceDocument) {
	method := ""
	if len(doc.Entries) > 0 {
		method = doc.Entries[0].PaymentMethod
	}
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 128, 0)
	pdf.Cell(0, 8, "Bezahlt")
	pdf.Ln(7)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	if method != "" {
		pdf.Cell(0, 6, tr("Zahlungsart: "+method))
	}
}

// slipTop is the y position of the payment part on an A4 page.
const slipTop = 192

func (g *Generator) drawSlip(pdf *gofpdf.Fpdf, tr func(string) string, p *billing.PaymentPayload) error {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetDashPattern([]float64{1, 1}, 0)
	pdf.Line(0, slipTop, 210, slipTop)
	pdf.SetDashPattern([]float64{}, 0)

	pdf.SetXY(67, slipTop+5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 5, "Zahlteil")

	slip, err := g.renderer.Render(p)
	if err != nil {
		pdf.SetXY(67, slipTop+17)
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(60, 5, tr("Einzahlungsschein konnte nicht erstellt werden. Bitte Betrag mit obigen Bankangaben überweisen."), "1", "L", false)
		pdf.SetTextColor(0, 0, 0)
		g.drawSlipText(pdf, tr, p)
		return err
	}

	// The contrib registry is a package-level map.
	barcodeMu.Lock()
	key := pdfbarcode.Register(slip.Code)
	pdfbarcode.Barcode(pdf, key, 67, slipTop+17, 46, 46, false)
	barcodeMu.Unlock()
	if pdf.Err() {
		renderErr := pdf.Error()
		pdf.ClearError()
		return ierr.WithError(renderErr).
			WithHint("QR-Code konnte nicht gezeichnet werden").
			Mark(ierr.ErrRendering)
	}

	g.drawSlipText(pdf, tr, p)
	return nil
}

func (g *Generator) drawSlipText(pdf *gofpdf.Fpdf, tr func(string) string, p *billing.PaymentPayload) {
	x := 118.0
	y := float64(slipTop + 5)
	write := func(label string, lines ...string) {
		pdf.SetXY(x, y)
		pdf.SetFont("Arial", "B", 8)
		pdf.Cell(0, 4, tr(label))
		y += 4
		pdf.SetFont("Arial", "", 10)
		for _, l := range lines {
			if l == "" {
				continue
			}
			pdf.SetXY(x, y)
			pdf.Cell(0, 4.5, tr(l))
			y += 4.5
		}
		y += 3
	}

	write("Konto / Zahlbar an", p.Account, p.Creditor.Name, p.Creditor.PostalCode+" "+p.Creditor.City)
	write("Zusätzliche Informationen", p.Reference)
	if p.Debtor != nil {
		street := ""
		if p.Debtor.Street != nil {
			street = *p.Debtor.Street
		}
		write("Zahlbar durch", p.Debtor.Name, street, p.Debtor.PostalCode+" "+p.Debtor.City)
	}
	write("Betrag", p.Currency+" "+p.Amount)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
