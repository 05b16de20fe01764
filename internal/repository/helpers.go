package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

// timeLayout is the RFC3339 format for storing times in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout, s, time.Local)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(what string, id any) error {
	return ierr.NewErrorf("%s %v not found", what, id).
		WithHintf("%s nicht gefunden", germanName(what)).
		WithReportableDetails(map[string]any{"id": id}).
		Mark(ierr.ErrNotFound)
}

func germanName(what string) string {
	switch what {
	case "client":
		return "Kunde"
	case "time entry":
		return "Zeiteintrag"
	case "invoice":
		return "Rechnung"
	case "login":
		return "Login"
	}
	return what
}

// dbError wraps a driver error. Unique violations and lock contention are
// marked as conflicts, everything else as database errors.
func dbError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).WithMessage(op).Mark(ierr.ErrNotFound)
	}
	if isConflict(err) {
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Gleichzeitige Änderung, bitte erneut versuchen").
			Mark(ierr.ErrConflict)
	}
	return ierr.WithError(fmt.Errorf("failed to %s: %w", op, err)).Mark(ierr.ErrDatabase)
}

func isConflict(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	switch {
	case se.Code == sqlite3.ErrConstraint && (se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey):
		return true
	case se.Code == sqlite3.ErrBusy, se.Code == sqlite3.ErrLocked:
		return true
	}
	return false
}
