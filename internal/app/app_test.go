package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/rapport/internal/config"
	"github.com/andy/rapport/internal/domain"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/andy/rapport/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "rapport.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "invoices")
	cfg.Log.Output = filepath.Join(dir, "rapport.log")
	cfg.Payee = domain.PayeeProfile{
		LegalName:    "Muster Informatik",
		IBAN:         "CH9300762011623852957",
		AddressLine1: "Bahnhofstrasse 1",
		AddressLine2: "8400 Winterthur",
	}
	require.NoError(t, cfg.EnsureDirectories())
	return cfg
}

func TestIssueInvoiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := NewWithKey(ctx, cfg, "test-key")
	require.NoError(t, err)
	defer a.Close()

	client, err := a.ClientService.Create(ctx, service.ClientInput{
		Name:        "Beispiel AG",
		AddressText: "Seestrasse 10\n8001 Zürich",
	})
	require.NoError(t, err)

	entry, err := a.EntryService.Create(ctx, service.EntryInput{
		ClientID:        client.ID,
		Date:            time.Now(),
		DurationMinutes: 45,
		Topic:           "Drucker",
	})
	require.NoError(t, err)
	assert.Equal(t, "90.00", entry.Cost.Decimal.StringFixed(2))

	issued, err := a.InvoiceService.Issue(ctx, entry.ID)
	require.NoError(t, err)
	assert.NoError(t, issued.SlipErr)

	path, err := a.WriteInvoicePDF(issued)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
	assert.Equal(t, issued.Invoice.InvoiceNumber+".pdf", filepath.Base(path))
}

func TestReopenWithWrongKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := NewWithKey(ctx, cfg, "right")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	_, err = NewWithKey(ctx, cfg, "wrong")
	assert.Error(t, err)
}

type stubKeyring struct {
	key       string
	getErr    error
	available bool
	setCalls  int
}

func (k *stubKeyring) GetKey() (string, error) { return k.key, k.getErr }

func (k *stubKeyring) SetKey(string) error {
	k.setCalls++
	return nil
}

func (k *stubKeyring) DeleteKey() error { return nil }

func (k *stubKeyring) IsAvailable() bool { return k.available }

func TestEncryptionKeyWithoutKeyringDoesNotPrompt(t *testing.T) {
	missing := ierr.NewError("RAPPORT_DB_KEY environment variable not set").Mark(ierr.ErrConfiguration)
	kr := &stubKeyring{getErr: missing}

	_, err := encryptionKey(kr)
	assert.True(t, ierr.IsConfiguration(err))
	assert.Zero(t, kr.setCalls)
}

func TestEncryptionKeyFromKeyring(t *testing.T) {
	key, err := encryptionKey(&stubKeyring{key: "geheim", available: true})
	require.NoError(t, err)
	assert.Equal(t, "geheim", key)

	_, err = encryptionKey(&stubKeyring{key: `ge"heim`, available: true})
	assert.True(t, ierr.IsValidation(err))
}
