package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	ierr "github.com/andy/rapport/internal/errors"
	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// busyTimeoutMillis is how long a writer waits for the database lock.
const busyTimeoutMillis = 5000

// ValidateKey rejects keys the driver cannot pass to PRAGMA key. The key is
// quoted verbatim into the statement.
func ValidateKey(key string) error {
	if key == "" {
		return ierr.NewError("database key cannot be empty").
			WithHint("Datenbankschlüssel darf nicht leer sein").
			Mark(ierr.ErrValidation)
	}
	if strings.ContainsRune(key, '"') {
		return ierr.NewError("database key must not contain double quotes").
			WithHint("Datenbankschlüssel darf keine Anführungszeichen (\") enthalten").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type DB struct {
	*sql.DB
}

// Open opens an encrypted SQLite database with the given password.
// Transactions start with BEGIN IMMEDIATE so concurrent writers queue on the
// database lock instead of failing on upgrade.
func Open(dbPath, password string) (*DB, error) {
	if err := ValidateKey(password); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	params := url.Values{}
	params.Set("_pragma_key", password)
	params.Set("_busy_timeout", fmt.Sprint(busyTimeoutMillis))
	params.Set("_txlock", "immediate")
	params.Set("_foreign_keys", "1")
	connStr := dbPath + "?" + params.Encode()

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode (wrong database key?): %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
