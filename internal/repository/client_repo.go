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

const clientColumns = `id, name, email, phone, it_infrastructure, hourly_rate,
	street, house_number, postal_code, city, legacy_address, created_at, updated_at`

// ClientRepo is a SQLite implementation of ClientRepository
type ClientRepo struct {
	db *db.DB
}

// NewClientRepo creates a new ClientRepo
func NewClientRepo(database *db.DB) *ClientRepo {
	return &ClientRepo{db: database}
}

// Create inserts a new client into the database
func (r *ClientRepo) Create(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	query := `
		INSERT INTO clients (name, email, phone, it_infrastructure, hourly_rate,
			street, house_number, postal_code, city, legacy_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		nullString(client.Email),
		nullString(client.Phone),
		nullString(client.ITInfrastructure),
		client.HourlyRate.StringFixed(2),
		nullString(client.Address.Street),
		nullString(client.Address.HouseNumber),
		nullString(client.Address.PostalCode),
		nullString(client.Address.City),
		client.LegacyAddress,
		client.CreatedAt.Format(timeLayout),
		client.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return dbError(err, "create client")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return dbError(err, "get client ID")
	}

	client.ID = id
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("client", id)
		}
		return nil, dbError(err, "get client")
	}
	return client, nil
}

// List returns all clients ordered by name
func (r *ClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name COLLATE NOCASE`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbError(err, "list clients")
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, dbError(err, "scan client")
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterate clients")
	}

	return clients, nil
}

// Update updates an existing client
func (r *ClientRepo) Update(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	query := `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, it_infrastructure = ?, hourly_rate = ?,
		    street = ?, house_number = ?, postal_code = ?, city = ?, legacy_address = ?,
		    updated_at = ?
		WHERE id = ?
	`

	client.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		nullString(client.Email),
		nullString(client.Phone),
		nullString(client.ITInfrastructure),
		client.HourlyRate.StringFixed(2),
		nullString(client.Address.Street),
		nullString(client.Address.HouseNumber),
		nullString(client.Address.PostalCode),
		nullString(client.Address.City),
		client.LegacyAddress,
		client.UpdatedAt.Format(timeLayout),
		client.ID,
	)
	if err != nil {
		return dbError(err, "update client")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, "get rows affected")
	}
	if rows == 0 {
		return notFound("client", client.ID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	client := &domain.Client{}
	var email, phone, infra, street, house, pcode, city, legacy sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&client.ID,
		&client.Name,
		&email,
		&phone,
		&infra,
		&client.HourlyRate,
		&street,
		&house,
		&pcode,
		&city,
		&legacy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	client.Email = email.String
	client.Phone = phone.String
	client.ITInfrastructure = infra.String
	client.Address.Street = street.String
	client.Address.HouseNumber = house.String
	client.Address.PostalCode = pcode.String
	client.Address.City = city.String
	if legacy.Valid {
		client.LegacyAddress = &legacy.String
	}

	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if client.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return client, nil
}
