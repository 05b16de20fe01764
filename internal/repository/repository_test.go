package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andy/rapport/internal/address"
	"github.com/andy/rapport/internal/db"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), "test-key")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations())
	t.Cleanup(func() { database.Close() })
	return database
}

func createClient(t *testing.T, repo *ClientRepo, name string) *domain.Client {
	t.Helper()
	c := domain.NewClient(name, decimal.RequireFromString("95.50"))
	c.Address = address.Structured{Street: "Seestrasse", HouseNumber: "4", PostalCode: "8001", City: "Zürich"}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func createEntry(t *testing.T, repo *EntryRepo, clientID int64, day time.Time, cost string) *domain.TimeEntry {
	t.Helper()
	e := domain.NewTimeEntry(clientID, day, 60, "Netzwerk")
	if cost != "" {
		e.Cost = decimal.NewNullDecimal(decimal.RequireFromString(cost))
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestClientRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewClientRepo(openTestDB(t))

	legacy := "Alte Gasse 1\n3000 Bern"
	c := domain.NewClient("Muster AG", decimal.RequireFromString("120"))
	c.Email = "info@muster.ch"
	c.LegacyAddress = &legacy
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Muster AG", got.Name)
	assert.Equal(t, "120.00", got.HourlyRate.StringFixed(2))
	assert.True(t, got.Address.IsEmpty())
	require.NotNil(t, got.LegacyAddress)
	assert.Equal(t, legacy, *got.LegacyAddress)

	got.Address = address.Parse(*got.LegacyAddress)
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bern", again.Address.City)
	assert.Equal(t, "1", again.Address.HouseNumber)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, ierr.IsNotFound(err))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLoginRepo(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	client := createClient(t, NewClientRepo(database), "Muster AG")
	repo := NewLoginRepo(database)

	login := &domain.DeviceLogin{ClientID: client.ID, DeviceType: "Router", Username: "admin", Password: "pw"}
	require.NoError(t, repo.Create(ctx, login))

	login.Password = "neu"
	require.NoError(t, repo.Update(ctx, login))

	list, err := repo.ListByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "neu", list[0].Password)

	_, err = repo.GetByID(ctx, 42)
	assert.True(t, ierr.IsNotFound(err))
}

func TestEntryRepoFilter(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	clients := NewClientRepo(database)
	a := createClient(t, clients, "A")
	b := createClient(t, clients, "B")
	repo := NewEntryRepo(database)

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local)
	e1 := createEntry(t, repo, a.ID, jan, "100.00")
	e2 := createEntry(t, repo, a.ID, feb, "")
	createEntry(t, repo, b.ID, feb, "50.00")

	e1.MarkPaid("Twint")
	require.NoError(t, repo.Update(ctx, e1))

	all, err := repo.List(ctx, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.Equal(feb))
	assert.True(t, all[2].Date.Equal(jan))

	paid := true
	got, err := repo.List(ctx, EntryFilter{Paid: &paid})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Twint", got[0].PaymentMethod)

	got, err = repo.List(ctx, EntryFilter{ClientID: &a.ID, From: &feb})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e2.ID, got[0].ID)
	assert.False(t, got[0].Cost.Valid)

	got, err = repo.List(ctx, EntryFilter{To: &jan})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInvoiceRepoAllocatesSequentialNumbers(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	client := createClient(t, NewClientRepo(database), "A")
	entries := NewEntryRepo(database)
	repo := NewInvoiceRepo(database)

	day := time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)
	for i := 1; i <= 3; i++ {
		e := createEntry(t, entries, client.ID, day, "90.00")
		inv := domain.NewInvoice(client.ID, e.CostOrZero(), e.ID)
		inv.CreatedAt = day
		require.NoError(t, repo.Create(ctx, inv))
		assert.Equal(t, fmt.Sprintf("RE-20240115-%05d", i), inv.InvoiceNumber)
	}

	next := domain.NewInvoice(client.ID, decimal.NewFromInt(10), 1)
	next.CreatedAt = day.AddDate(0, 0, 1)
	require.NoError(t, repo.Create(ctx, next))
	assert.Equal(t, "RE-20240116-00001", next.InvoiceNumber)

	n, err := repo.CountForDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.GetByNumber(ctx, "RE-20240115-00002")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got.EntryIDs)
	assert.Equal(t, "90.00", got.Amount.StringFixed(2))

	byEntry, err := repo.ListByEntry(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byEntry, 2)
}

func TestInvoiceRepoSeedsFromExistingInvoices(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	client := createClient(t, NewClientRepo(database), "A")
	e := createEntry(t, NewEntryRepo(database), client.ID, time.Now(), "10.00")

	// Invoices written before the counter table existed.
	_, err := database.Exec(`INSERT INTO invoices (invoice_number, client_id, amount, created_at)
		VALUES ('RE-20240115-00004', ?, '10.00', ?)`, client.ID, time.Now().Format(time.RFC3339))
	require.NoError(t, err)

	repo := NewInvoiceRepo(database)
	inv := domain.NewInvoice(client.ID, decimal.NewFromInt(10), e.ID)
	inv.CreatedAt = time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	require.NoError(t, repo.Create(ctx, inv))
	assert.Equal(t, "RE-20240115-00005", inv.InvoiceNumber)
}

func TestInvoiceRepoConcurrentCreateIsUnique(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	client := createClient(t, NewClientRepo(database), "A")
	e := createEntry(t, NewEntryRepo(database), client.ID, time.Now(), "10.00")

	// Two repos share the database but not the in-process lock.
	repos := []*InvoiceRepo{NewInvoiceRepo(database), NewInvoiceRepo(database)}
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	var mu sync.Mutex
	numbers := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(repo *InvoiceRepo) {
			defer wg.Done()
			inv := domain.NewInvoice(client.ID, decimal.NewFromInt(10), e.ID)
			inv.CreatedAt = day
			for {
				err := repo.Create(ctx, inv)
				if ierr.IsConflict(err) {
					continue
				}
				if !assert.NoError(t, err) {
					return
				}
				break
			}
			mu.Lock()
			numbers[inv.InvoiceNumber] = true
			mu.Unlock()
		}(repos[i%2])
	}
	wg.Wait()

	assert.Len(t, numbers, 20)
	n, err := repos[0].CountForDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestInvoiceRepoRejectsInvalid(t *testing.T) {
	repo := NewInvoiceRepo(openTestDB(t))
	err := repo.Create(context.Background(), domain.NewInvoice(1, decimal.Zero, 1))
	assert.True(t, ierr.IsValidation(err))
}

func TestMaintenanceReset(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	clients := NewClientRepo(database)
	client := createClient(t, clients, "A")
	e := createEntry(t, NewEntryRepo(database), client.ID, time.Now(), "10.00")
	require.NoError(t, NewInvoiceRepo(database).Create(ctx, domain.NewInvoice(client.ID, decimal.NewFromInt(10), e.ID)))

	repo := NewMaintenanceRepo(database)
	require.NoError(t, repo.Reset(ctx, ResetEntries))

	list, err := clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Reset(ctx, ResetAll))
	list, err = clients.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Error(t, repo.Reset(ctx, "everything"))
}
