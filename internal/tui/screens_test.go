package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/rapport/internal/app"
	"github.com/andy/rapport/internal/config"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app.App {
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

	a, err := app.NewWithKey(context.Background(), cfg, "test-key")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedEntry(t *testing.T, a *app.App) *domain.TimeEntry {
	ctx := context.Background()
	client, err := a.ClientService.Create(ctx, service.ClientInput{
		Name:       "Beispiel AG",
		PostalCode: "8001",
		City:       "Zürich",
	})
	require.NoError(t, err)
	entry, err := a.EntryService.Create(ctx, service.EntryInput{
		ClientID:        client.ID,
		Date:            time.Now(),
		DurationMinutes: 30,
		Topic:           "Netzwerk",
	})
	require.NoError(t, err)
	return entry
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func loadedEntries(t *testing.T, a *app.App) *EntriesModel {
	m := NewEntriesModel(context.Background(), a).(*EntriesModel)
	run(t, m, m.Init())
	require.False(t, m.loading)
	return m
}

func TestEntriesScreenIssuesInvoice(t *testing.T) {
	a := newTestApp(t)
	entry := seedEntry(t, a)

	m := loadedEntries(t, a)
	require.Len(t, m.rows(), 1)
	assert.Equal(t, entry.ID, m.rows()[0].EntryID)

	m.Update(keyRune('i'))
	assert.Equal(t, entryModeConfirmIssue, m.mode)
	assert.True(t, m.IsCapturingInput())

	_, cmd := m.Update(keyRune('y'))
	require.NotNil(t, cmd)
	msg, ok := cmd().(invoiceIssuedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.NoError(t, msg.slipErr)
	assert.False(t, msg.paid)

	m.Update(msg)
	assert.Equal(t, entryModeList, m.mode)
	assert.Contains(t, m.statusMsg, msg.number)

	_, err := os.Stat(filepath.Join(a.Config.Invoice.OutputDir, msg.number+".pdf"))
	assert.NoError(t, err)

	invoices, err := a.InvoiceService.ListInvoices(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, []int64{entry.ID}, invoices[0].EntryIDs)
}

func TestEntriesScreenCancelIssue(t *testing.T) {
	a := newTestApp(t)
	seedEntry(t, a)

	m := loadedEntries(t, a)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, entryModeConfirmIssue, m.mode)

	_, cmd := m.Update(keyRune('n'))
	assert.Nil(t, cmd)
	assert.Equal(t, entryModeList, m.mode)

	invoices, err := a.InvoiceService.ListInvoices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestEntriesScreenMarkPaid(t *testing.T) {
	a := newTestApp(t)
	entry := seedEntry(t, a)

	m := loadedEntries(t, a)
	m.Update(keyRune('p'))
	require.Equal(t, entryModePay, m.mode)

	m.payInput.SetValue("Twint")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	assert.Equal(t, entryModeList, m.mode)
	assert.NoError(t, m.err)

	got, err := a.EntryService.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "Twint", got.PaymentMethod)
}

func TestEntriesScreenFilterCycles(t *testing.T) {
	a := newTestApp(t)
	seedEntry(t, a)

	m := loadedEntries(t, a)
	_, cmd := m.Update(keyRune('f'))
	assert.Equal(t, paidOpen, m.filter)
	run(t, m, cmd)
	assert.Len(t, m.rows(), 1)

	_, cmd = m.Update(keyRune('f'))
	assert.Equal(t, paidOnly, m.filter)
	run(t, m, cmd)
	assert.Empty(t, m.rows())
}

func TestEntriesScreenNewEntryForm(t *testing.T) {
	a := newTestApp(t)
	seedEntry(t, a)

	m := loadedEntries(t, a)
	_, cmd := m.Update(keyRune('n'))
	run(t, m, cmd)
	// a single client skips the picker
	require.Equal(t, entryModeForm, m.mode)

	m.form.set(entryFieldMinutes, "90")
	m.form.set(entryFieldTopic, "Backup")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	_, cmd = m.Update(cmd())
	assert.Equal(t, entryModeList, m.mode)
	run(t, m, cmd)

	require.Len(t, m.rows(), 2)
	assert.Equal(t, 120, m.report.Totals.Minutes)
}

func TestEntriesScreenFormRejectsBadInput(t *testing.T) {
	a := newTestApp(t)
	seedEntry(t, a)

	m := loadedEntries(t, a)
	_, cmd := m.Update(keyRune('n'))
	run(t, m, cmd)

	m.form.set(entryFieldMinutes, "0")
	m.form.set(entryFieldTopic, "Backup")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	run(t, m, cmd)
	assert.Equal(t, entryModeForm, m.mode)
	assert.Error(t, m.err)
}

func TestClientsScreenFirstRunForm(t *testing.T) {
	a := newTestApp(t)

	m := NewClientsModel(context.Background(), a).(*ClientsModel)
	m.Update(OpenNewClientFormMsg{})
	assert.False(t, m.IsCapturingInput())

	run(t, m, m.Init())
	require.Equal(t, clientModeForm, m.mode)
	assert.True(t, m.IsCapturingInput())

	m.form.set(fieldName, "Muster AG")
	m.form.set(fieldStreet, "Seestrasse")
	m.form.set(fieldHouseNumber, "10")
	m.form.set(fieldPostalCode, "8001")
	m.form.set(fieldCity, "Zürich")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	_, cmd = m.Update(cmd())
	assert.Equal(t, clientModeList, m.mode)
	run(t, m, cmd)

	require.Len(t, m.clients, 1)
	assert.Equal(t, "Muster AG", m.clients[0].Name)
	assert.Equal(t, "8001", m.clients[0].Address.PostalCode)
	assert.Equal(t, "120.00", m.clients[0].HourlyRate.StringFixed(2))
}

func TestClientsScreenDetailAndLogin(t *testing.T) {
	a := newTestApp(t)
	seedEntry(t, a)

	m := NewClientsModel(context.Background(), a).(*ClientsModel)
	run(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	require.Equal(t, clientModeDetail, m.mode)
	assert.Contains(t, m.View(), "Beispiel AG")

	m.Update(keyRune('n'))
	require.Equal(t, clientModeLoginForm, m.mode)
	m.form.set(loginFieldDevice, "Router")
	m.form.set(loginFieldUsername, "admin")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	_, cmd = m.Update(cmd())
	assert.Equal(t, clientModeDetail, m.mode)
	run(t, m, cmd)

	require.Len(t, m.logins, 1)
	assert.Equal(t, "Router", m.logins[0].DeviceType)
}

func TestInvoicesScreenDetail(t *testing.T) {
	a := newTestApp(t)
	entry := seedEntry(t, a)
	issued, err := a.InvoiceService.Issue(context.Background(), entry.ID)
	require.NoError(t, err)

	m := NewInvoicesModel(context.Background(), a).(*InvoicesModel)
	run(t, m, m.Init())
	require.Len(t, m.invoices, 1)
	assert.Contains(t, m.View(), "Beispiel AG")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	require.Equal(t, invoiceViewDetail, m.mode)
	assert.Contains(t, m.View(), issued.Invoice.InvoiceNumber)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	assert.Contains(t, m.statusMsg, issued.Invoice.InvoiceNumber+".pdf")
}
