package service

import (
	"context"
	"sync"
	"testing"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateForEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 90, "")

	result, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	require.NoError(t, err)

	assert.Equal(t, "RE-20240115-00001", result.Invoice.InvoiceNumber)
	assert.Equal(t, "180.00", result.Invoice.Amount.StringFixed(2))
	assert.Equal(t, []int64{entry.ID}, result.Invoice.EntryIDs)

	payload, ok := result.Payment.Get()
	require.True(t, ok)
	assert.Equal(t, "180.00", payload.Amount)
	assert.Equal(t, "Rechnung Nr. RE-20240115-00001", payload.Reference)
	require.NotNil(t, payload.Debtor)
	assert.Equal(t, "Seestrasse 10", *payload.Debtor.Street)

	second, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "RE-20240115-00002", second.Invoice.InvoiceNumber)
}

func TestCreateForEntryPaidHasNoPayload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 60, "")
	_, err := f.entrySvc.MarkPaid(ctx, entry.ID, "Twint")
	require.NoError(t, err)

	result, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	require.NoError(t, err)
	_, ok := result.Payment.Get()
	assert.False(t, ok)
	assert.NotEmpty(t, result.Invoice.InvoiceNumber)
}

func TestCreateForEntryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown entry", func(t *testing.T) {
		f := newFixture(t, testPayee())
		_, err := f.invoiceSvc.CreateForEntry(ctx, 404)
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("zero cost", func(t *testing.T) {
		f := newFixture(t, testPayee())
		client := f.client(t, zurichClient())
		entry := f.entry(t, client.ID, 30, "0")

		_, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
		assert.True(t, ierr.IsValidation(err))
		assert.Equal(t, 0, f.invoices.CreateCalls)
	})

	t.Run("missing iban aborts before persistence", func(t *testing.T) {
		payee := testPayee()
		payee.IBAN = ""
		f := newFixture(t, payee)
		client := f.client(t, zurichClient())
		entry := f.entry(t, client.ID, 30, "")

		_, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
		assert.True(t, ierr.IsConfiguration(err))
		assert.Equal(t, 0, f.invoices.CreateCalls)

		list, err := f.invoiceSvc.ListInvoices(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestCreateForEntryRetriesConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 30, "")

	f.invoices.FailCreates = 2
	result, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, f.invoices.CreateCalls)
	assert.Equal(t, "RE-20240115-00001", result.Invoice.InvoiceNumber)
}

func TestCreateForEntryGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 30, "")

	f.invoices.FailCreates = 100
	_, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	assert.True(t, ierr.IsConflict(err))
	assert.Equal(t, maxAllocationRetries+1, f.invoices.CreateCalls)
}

func TestCreateForEntryConcurrentNumbersAreUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 30, "")

	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[result.Invoice.InvoiceNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 25)
}

func TestIssueRendersPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 45, "")

	issued, err := f.invoiceSvc.Issue(ctx, entry.ID)
	require.NoError(t, err)
	assert.NoError(t, issued.SlipErr)
	assert.Equal(t, "%PDF", string(issued.PDF[:4]))

	again, err := f.invoiceSvc.Document(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.Invoice.InvoiceNumber, again.Invoice.InvoiceNumber)
	_, ok := again.Payment.Get()
	assert.True(t, ok)
}

func TestIssueDegradesOnSlipFailure(t *testing.T) {
	ctx := context.Background()
	payee := testPayee()
	// Passes the presence check but fails checksum validation in the renderer.
	payee.IBAN = "CH9300762011623852958"
	f := newFixture(t, payee)
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 45, "")

	issued, err := f.invoiceSvc.Issue(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, ierr.IsRendering(issued.SlipErr))
	assert.NotEmpty(t, issued.PDF)

	stored, err := f.invoiceSvc.GetInvoice(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("90")))
}

func TestInvoicesAreNotRecomputed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testPayee())
	client := f.client(t, zurichClient())
	entry := f.entry(t, client.ID, 60, "")

	result, err := f.invoiceSvc.CreateForEntry(ctx, entry.ID)
	require.NoError(t, err)

	_, err = f.entrySvc.Update(ctx, entry.ID, EntryInput{
		ClientID: client.ID, Date: issueDay, DurationMinutes: 120, Topic: "Netzwerk",
	})
	require.NoError(t, err)

	stored, err := f.invoiceSvc.GetInvoice(ctx, result.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", stored.Amount.StringFixed(2))
}
