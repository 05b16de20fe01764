package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/render"
)

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := entryFilter(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	report, err := s.svc.Reports.List(r.Context(), filter)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newReportResponse(report))
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	req := &entryRequest{}
	if err := bind(r, req); err != nil {
		s.renderError(w, r, err)
		return
	}
	entry, err := s.svc.Entries.Create(r.Context(), req.input())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newEntryResponse(entry))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	entry, err := s.svc.Entries.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newEntryResponse(entry))
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	req := &entryRequest{}
	if err := bind(r, req); err != nil {
		s.renderError(w, r, err)
		return
	}
	entry, err := s.svc.Entries.Update(r.Context(), id, req.input())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newEntryResponse(entry))
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := entryFilter(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Reports.ExportCSV(r.Context(), &buf, filter); err != nil {
		s.renderError(w, r, err)
		return
	}
	writeFile(w, http.StatusOK, "text/csv; charset=utf-8", "rapporte.csv", buf.Bytes())
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request) {
	filter, err := entryFilter(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Reports.ExportPDF(r.Context(), &buf, filter); err != nil {
		s.renderError(w, r, err)
		return
	}
	writeFile(w, http.StatusOK, "application/pdf", "rapporte.pdf", buf.Bytes())
}
