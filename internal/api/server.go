// Package api serves the JSON HTTP interface of rapport.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andy/rapport/internal/logger"
	"github.com/andy/rapport/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Services are the operations exposed over HTTP.
type Services struct {
	Clients  service.ClientService
	Entries  service.EntryService
	Reports  service.ReportService
	Invoices service.InvoiceService
}

// Credentials protect every route with HTTP basic auth.
type Credentials struct {
	Username     string
	PasswordHash string // bcrypt
}

type Server struct {
	addr string

	log    zerolog.Logger
	router chi.Router

	svc   Services
	creds Credentials
}

func New(addr string, svc Services, creds Credentials) *Server {
	s := &Server{
		addr: addr,

		log:    logger.WithComponent("api"),
		router: chi.NewRouter(),

		svc:   svc,
		creds: creds,
	}

	s.RegisterRoutes()

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.router,

		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("server started listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info().Msg("server stopped")
	return nil
}
