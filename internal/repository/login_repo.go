package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/rapport/internal/db"
	"github.com/andy/rapport/internal/domain"
)

const loginColumns = `id, client_id, device_type, description, username, password, created_at, updated_at`

// LoginRepo is a SQLite implementation of LoginRepository
type LoginRepo struct {
	db *db.DB
}

func NewLoginRepo(database *db.DB) *LoginRepo {
	return &LoginRepo{db: database}
}

func (r *LoginRepo) Create(ctx context.Context, login *domain.DeviceLogin) error {
	if err := login.Validate(); err != nil {
		return fmt.Errorf("invalid login: %w", err)
	}

	now := time.Now()
	login.CreatedAt, login.UpdatedAt = now, now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO device_logins (client_id, device_type, description, username, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		login.ClientID,
		login.DeviceType,
		nullString(login.Description),
		nullString(login.Username),
		nullString(login.Password),
		now.Format(timeLayout),
		now.Format(timeLayout),
	)
	if err != nil {
		return dbError(err, "create login")
	}

	if login.ID, err = result.LastInsertId(); err != nil {
		return dbError(err, "get login ID")
	}
	return nil
}

func (r *LoginRepo) GetByID(ctx context.Context, id int64) (*domain.DeviceLogin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+loginColumns+` FROM device_logins WHERE id = ?`, id)
	login, err := scanLogin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("login", id)
		}
		return nil, dbError(err, "get login")
	}
	return login, nil
}

func (r *LoginRepo) ListByClient(ctx context.Context, clientID int64) ([]*domain.DeviceLogin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loginColumns+` FROM device_logins WHERE client_id = ? ORDER BY device_type, id`, clientID)
	if err != nil {
		return nil, dbError(err, "list logins")
	}
	defer rows.Close()

	var logins []*domain.DeviceLogin
	for rows.Next() {
		login, err := scanLogin(rows)
		if err != nil {
			return nil, dbError(err, "scan login")
		}
		logins = append(logins, login)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterate logins")
	}
	return logins, nil
}

func (r *LoginRepo) Update(ctx context.Context, login *domain.DeviceLogin) error {
	if err := login.Validate(); err != nil {
		return fmt.Errorf("invalid login: %w", err)
	}

	login.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE device_logins
		SET device_type = ?, description = ?, username = ?, password = ?, updated_at = ?
		WHERE id = ?
	`,
		login.DeviceType,
		nullString(login.Description),
		nullString(login.Username),
		nullString(login.Password),
		login.UpdatedAt.Format(timeLayout),
		login.ID,
	)
	if err != nil {
		return dbError(err, "update login")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("login", login.ID)
	}
	return nil
}

func scanLogin(row rowScanner) (*domain.DeviceLogin, error) {
	login := &domain.DeviceLogin{}
	var description, username, password sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&login.ID, &login.ClientID, &login.DeviceType,
		&description, &username, &password, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	login.Description = description.String
	login.Username = username.String
	login.Password = password.String

	var err error
	if login.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if login.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return login, nil
}
