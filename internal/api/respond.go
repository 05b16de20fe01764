package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := ierr.HTTPStatusFromErr(err)
	event := s.log.Warn()
	if status >= http.StatusInternalServerError {
		event = s.log.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Msg("request failed")

	render.Status(r, status)
	render.JSON(w, r, ierr.NewErrorResponse(err))
}

// bind decodes the body into v. Decoding failures are client errors.
func bind(r *http.Request, v render.Binder) error {
	err := render.Bind(r, v)
	if err == nil || ierr.IsValidation(err) {
		return err
	}
	return ierr.WithError(err).
		WithHint("Ungültige Anfrage").
		Mark(ierr.ErrValidation)
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ierr.NewErrorf("invalid id %q", raw).
			WithHintf("Ungültige ID: %s", raw).
			Mark(ierr.ErrValidation)
	}
	return id, nil
}

func optionalID(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, ierr.NewErrorf("invalid id %q", raw).
			WithHintf("Ungültige ID: %s", raw).
			Mark(ierr.ErrValidation)
	}
	return &id, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(domain.DateLayout, raw, time.Local)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Ungültiges Datum: %s (YYYY-MM-DD)", raw).
			Mark(ierr.ErrValidation)
	}
	return &d, nil
}

// entryFilter reads client_id, from, to and paid from the query string.
func entryFilter(r *http.Request) (repository.EntryFilter, error) {
	q := r.URL.Query()
	var (
		f   repository.EntryFilter
		err error
	)
	if f.ClientID, err = optionalID(q.Get("client_id")); err != nil {
		return f, err
	}
	if f.From, err = optionalDate(q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(q.Get("to")); err != nil {
		return f, err
	}
	if f.Paid, err = service.ParsePaidFilter(q.Get("paid")); err != nil {
		return f, err
	}
	return f, nil
}

func writeFile(w http.ResponseWriter, status int, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = bytes.NewReader(body).WriteTo(w)
}
