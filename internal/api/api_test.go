package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andy/rapport/internal/billing"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/qrbill"
	"github.com/andy/rapport/internal/service"
	"github.com/andy/rapport/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUser     = "admin"
	testPassword = "s3cret"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clients := testutil.NewInMemoryClientStore()
	logins := testutil.NewInMemoryLoginStore()
	entries := testutil.NewInMemoryEntryStore()
	invoices := testutil.NewInMemoryInvoiceStore()

	payee := domain.PayeeProfile{
		LegalName:    "Muster Informatik",
		IBAN:         "CH9300762011623852957",
		AddressLine1: "Bahnhofstrasse 1",
		AddressLine2: "8400 Winterthur",
	}
	docs := document.NewGenerator(qrbill.NewRenderer(), payee)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	srv := New("127.0.0.1:0", Services{
		Clients:  service.NewClientService(clients, logins, domain.DefaultHourlyRate),
		Entries:  service.NewEntryService(entries, clients, billing.RoundHalfUp),
		Reports:  service.NewReportService(entries, clients, docs),
		Invoices: service.NewInvoiceService(invoices, entries, clients, payee, docs),
	}, Credentials{Username: testUser, PasswordHash: string(hash)})

	return &testServer{t: t, handler: srv.Handler()}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(testUser, testPassword)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createClient() clientResponse {
	rec := ts.do(http.MethodPost, "/clients", map[string]any{
		"name":         "Beispiel AG",
		"address_text": "Seestrasse 10\n8001 Zürich",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[clientResponse](ts.t, rec)
}

func (ts *testServer) createEntry(clientID int64) entryResponse {
	rec := ts.do(http.MethodPost, "/entries", map[string]any{
		"client_id":        clientID,
		"date":             "2024-01-15",
		"duration_minutes": 30,
		"topic":            "Netzwerk",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[entryResponse](ts.t, rec)
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req = httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.SetBasicAuth(testUser, "wrong")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/clients", nil).Code)
}

func TestEmptyHashLocksAPI(t *testing.T) {
	assert.False(t, Credentials{Username: "admin"}.match("admin", ""))
}

func TestClientRoutes(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createClient()
	assert.Equal(t, "120.00", c.HourlyRate)
	assert.Equal(t, "Seestrasse", c.Address.Street)
	assert.Equal(t, "8001", c.Address.PostalCode)

	rec := ts.do(http.MethodPut, "/clients/1", map[string]any{"name": "Neu AG", "hourly_rate": "140"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "140.00", decode[clientResponse](t, rec).HourlyRate)

	list := decode[[]clientResponse](t, ts.do(http.MethodGet, "/clients", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Neu AG", list[0].Name)

	rec = ts.do(http.MethodPost, "/clients/1/logins", map[string]any{"device_type": "Router", "username": "admin"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	logins := decode[[]loginResponse](t, ts.do(http.MethodGet, "/clients/1/logins", nil))
	require.Len(t, logins, 1)
	assert.Equal(t, "Router", logins[0].DeviceType)
}

func TestErrorResponses(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/clients/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"].(map[string]any)["message"])

	rec = ts.do(http.MethodPost, "/clients", map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decode[map[string]any](t, rec)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "required", details["Name"])

	rec = ts.do(http.MethodGet, "/clients/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/entries?paid=vielleicht", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/entries", map[string]any{"date": "15.01.2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntriesAndExports(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createClient()
	e := ts.createEntry(c.ID)
	assert.Equal(t, "60.00", e.Cost)

	rec := ts.do(http.MethodPut, "/entries/1", map[string]any{
		"client_id": c.ID, "date": "2024-01-16", "duration_minutes": 30,
		"topic": "Netzwerk", "paid": true, "payment_method": "Bar",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[entryResponse](t, rec).Paid)

	ts.createEntry(c.ID)

	report := decode[reportResponse](t, ts.do(http.MethodGet, "/entries?paid=0", nil))
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "Beispiel AG", report.Entries[0].Client)
	assert.Equal(t, "60.00", report.OpenCost)

	rec = ts.do(http.MethodGet, "/export/csv?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Datum;Kunde;Thema"))

	rec = ts.do(http.MethodGet, "/export/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestInvoiceRoutes(t *testing.T) {
	ts := newTestServer(t)
	c := ts.createClient()
	e := ts.createEntry(c.ID)

	rec := ts.do(http.MethodPost, "/entries/1/invoice", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	number := rec.Header().Get(headerInvoiceNumber)
	_, _, err := billing.ParseInvoiceNumber(number)
	require.NoError(t, err)
	assert.Empty(t, rec.Header().Get(headerSlip))

	list := decode[[]invoiceResponse](t, ts.do(http.MethodGet, "/invoices", nil))
	require.Len(t, list, 1)
	assert.Equal(t, number, list[0].InvoiceNumber)
	assert.Equal(t, []int64{e.ID}, list[0].EntryIDs)
	assert.Equal(t, "60.00", list[0].Amount)

	rec = ts.do(http.MethodGet, "/invoices/1/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, number, rec.Header().Get(headerInvoiceNumber))

	rec = ts.do(http.MethodPost, "/entries/99/invoice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
