package repository

import (
	"context"
	"fmt"

	"github.com/andy/rapport/internal/db"
)

// MaintenanceRepo deletes data table by table in foreign key order.
type MaintenanceRepo struct {
	db *db.DB
}

func NewMaintenanceRepo(database *db.DB) *MaintenanceRepo {
	return &MaintenanceRepo{db: database}
}

// Reset clears entries and invoices, and with ResetAll also clients and
// their logins. Invoice sequences are kept so numbers are not reissued.
func (r *MaintenanceRepo) Reset(ctx context.Context, scope ResetScope) error {
	tables := []string{
		"invoice_entries",
		"invoices",
		"time_entries",
	}
	switch scope {
	case ResetEntries:
	case ResetAll:
		tables = append(tables, "device_logins", "clients")
	default:
		return fmt.Errorf("unknown reset scope %q", scope)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "begin transaction")
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return dbError(err, "clear "+table)
		}
	}

	return dbError(tx.Commit(), "commit reset")
}
