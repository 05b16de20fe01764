package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/qrbill"
	"github.com/andy/rapport/internal/testutil"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clients  *testutil.InMemoryClientStore
	logins   *testutil.InMemoryLoginStore
	entries  *testutil.InMemoryEntryStore
	invoices *testutil.InMemoryInvoiceStore
	payee    domain.PayeeProfile

	clientSvc  ClientService
	entrySvc   EntryService
	reportSvc  ReportService
	invoiceSvc *invoiceService
}

var issueDay = time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)

func testPayee() domain.PayeeProfile {
	return domain.PayeeProfile{
		LegalName:    "Muster Informatik",
		IBAN:         "CH93 0076 2011 6238 5295 7",
		AddressLine1: "Bahnhofstrasse 1",
		AddressLine2: "8400 Winterthur",
		CountryCode:  "CH",
	}
}

func newFixture(t *testing.T, payee domain.PayeeProfile) *fixture {
	t.Helper()
	f := &fixture{
		clients:  testutil.NewInMemoryClientStore(),
		logins:   testutil.NewInMemoryLoginStore(),
		entries:  testutil.NewInMemoryEntryStore(),
		invoices: testutil.NewInMemoryInvoiceStore(),
		payee:    payee,
	}
	docs := document.NewGenerator(qrbill.NewRenderer(), payee)

	f.clientSvc = NewClientService(f.clients, f.logins, domain.DefaultHourlyRate)
	f.entrySvc = NewEntryService(f.entries, f.clients, billing.RoundHalfUp)
	f.reportSvc = NewReportService(f.entries, f.clients, docs)

	svc := NewInvoiceService(f.invoices, f.entries, f.clients, payee, docs).(*invoiceService)
	svc.now = func() time.Time { return issueDay }
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	f.invoiceSvc = svc
	return f
}

func (f *fixture) client(t *testing.T, in ClientInput) *domain.Client {
	t.Helper()
	c, err := f.clientSvc.Create(context.Background(), in)
	require.NoError(t, err)
	return c
}

func (f *fixture) entry(t *testing.T, clientID int64, minutes int, override string) *domain.TimeEntry {
	t.Helper()
	e, err := f.entrySvc.Create(context.Background(), EntryInput{
		ClientID:        clientID,
		Date:            issueDay,
		DurationMinutes: minutes,
		Topic:           "Netzwerk",
		CostOverride:    override,
	})
	require.NoError(t, err)
	return e
}

func zurichClient() ClientInput {
	return ClientInput{
		Name:        "Beispiel AG",
		Street:      "Seestrasse",
		HouseNumber: "10",
		PostalCode:  "8001",
		City:        "Zürich",
	}
}
