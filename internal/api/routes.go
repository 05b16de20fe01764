package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func (s *Server) RegisterRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(basicAuth(s.creds))
	s.router.Use(render.SetContentType(render.ContentTypeJSON))

	s.router.Route("/clients", func(r chi.Router) {
		r.Get("/", s.listClients)
		r.Post("/", s.createClient)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getClient)
			r.Put("/", s.updateClient)
			r.Get("/logins", s.listLogins)
			r.Post("/logins", s.createLogin)
		})
	})

	s.router.Route("/entries", func(r chi.Router) {
		r.Get("/", s.listEntries)
		r.Post("/", s.createEntry)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getEntry)
			r.Put("/", s.updateEntry)
			r.Post("/invoice", s.createInvoice)
		})
	})

	s.router.Route("/invoices", func(r chi.Router) {
		r.Get("/", s.listInvoices)
		r.Get("/{id}/pdf", s.invoicePDF)
	})

	s.router.Get("/export/csv", s.exportCSV)
	s.router.Get("/export/pdf", s.exportPDF)
}
