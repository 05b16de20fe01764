package api

import (
	"net/http"
	"strconv"

	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/go-chi/render"
	"github.com/samber/lo"
)

const (
	headerInvoiceNumber = "X-Invoice-Number"
	// headerSlip is "unavailable" when the PDF was produced without slip.
	headerSlip = "X-Payment-Slip"
)

func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	issued, err := s.svc.Invoices.Issue(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Location", "/invoices/"+strconv.FormatInt(issued.Invoice.ID, 10)+"/pdf")
	s.writeInvoice(w, http.StatusCreated, issued)
}

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	clientID, err := optionalID(r.URL.Query().Get("client_id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	invoices, err := s.svc.Invoices.ListInvoices(r.Context(), clientID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, lo.Map(invoices, func(inv *domain.Invoice, _ int) invoiceResponse {
		return newInvoiceResponse(inv)
	}))
}

func (s *Server) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	issued, err := s.svc.Invoices.Document(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.writeInvoice(w, http.StatusOK, issued)
}

func (s *Server) writeInvoice(w http.ResponseWriter, status int, issued *service.IssuedInvoice) {
	number := issued.Invoice.InvoiceNumber
	w.Header().Set(headerInvoiceNumber, number)
	if issued.SlipErr != nil {
		w.Header().Set(headerSlip, "unavailable")
	}
	writeFile(w, status, "application/pdf", number+".pdf", issued.PDF)
}
