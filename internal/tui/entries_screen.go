package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/andy/rapport/internal/app"
	"github.com/andy/rapport/internal/document"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/repository"
	"github.com/andy/rapport/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

type entryMode int

const (
	entryModeList         entryMode = iota
	entryModePickClient             // cursor-based client selection
	entryModeForm                   // text input form for entry details
	entryModeConfirmIssue           // y/n confirmation before issuing an invoice
	entryModePay                    // payment method input
)

// entry form field indices (after client is selected)
const (
	entryFieldDate = iota
	entryFieldMinutes
	entryFieldTopic
	entryFieldCost
	entryFieldPaid
)

// paidFilter cycles through all, open and paid entries.
type paidFilter int

const (
	paidAll paidFilter = iota
	paidOpen
	paidOnly
)

func (f paidFilter) String() string {
	return [...]string{"alle", "offen", "bezahlt"}[f]
}

func (f paidFilter) value() *bool {
	switch f {
	case paidOpen:
		return lo.ToPtr(false)
	case paidOnly:
		return lo.ToPtr(true)
	}
	return nil
}

// EntriesModel lists time entries and issues invoices for them
type EntriesModel struct {
	ctx        context.Context
	app        *app.App
	report     *service.Report
	filter     paidFilter
	cursor     int
	offset     int
	maxVisible int
	loading    bool
	err        error
	statusMsg  string
	warnMsg    string

	// Form state
	mode         entryMode
	form         *form
	formClients  []*domain.Client
	formClient   *domain.Client
	clientCursor int
	editingID    int64 // 0 for a new entry

	payInput textinput.Model
}

type entriesDataMsg struct {
	report *service.Report
	err    error
}

type entryClientsMsg struct {
	clients []*domain.Client
	err     error
}

type entryEditMsg struct {
	entry  *domain.TimeEntry
	client *domain.Client
	err    error
}

type entrySavedMsg struct {
	err error
}

type entryPaidMsg struct {
	err error
}

type invoiceIssuedMsg struct {
	number  string
	path    string
	paid    bool
	slipErr error
	err     error
}

// NewEntriesModel creates a new entries screen model
func NewEntriesModel(ctx context.Context, a *app.App) tea.Model {
	return &EntriesModel{
		ctx:        ctx,
		app:        a,
		maxVisible: 15,
		loading:    true,
	}
}

// IsCapturingInput returns true while a form, prompt or confirmation is open
func (m *EntriesModel) IsCapturingInput() bool {
	return m.mode != entryModeList
}

func (m *EntriesModel) Init() tea.Cmd {
	return m.loadEntries()
}

func (m *EntriesModel) rows() []document.ReportRow {
	if m.report == nil {
		return nil
	}
	return m.report.Rows
}

func (m *EntriesModel) selected() (document.ReportRow, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return document.ReportRow{}, false
	}
	return rows[m.cursor], true
}

func (m *EntriesModel) loadEntries() tea.Cmd {
	filter := repository.EntryFilter{Paid: m.filter.value()}
	return func() tea.Msg {
		report, err := m.app.ReportService.List(m.ctx, filter)
		return entriesDataMsg{report: report, err: err}
	}
}

func (m *EntriesModel) loadFormClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.app.ClientService.List(m.ctx)
		return entryClientsMsg{clients: clients, err: err}
	}
}

func (m *EntriesModel) loadForEdit(id int64) tea.Cmd {
	return func() tea.Msg {
		entry, err := m.app.EntryService.Get(m.ctx, id)
		if err != nil {
			return entryEditMsg{err: err}
		}
		client, err := m.app.ClientService.Get(m.ctx, entry.ClientID)
		return entryEditMsg{entry: entry, client: client, err: err}
	}
}

func (m *EntriesModel) openForm(client *domain.Client, editing *domain.TimeEntry) tea.Cmd {
	m.formClient = client
	title := "Neuer Rapport - " + client.Name
	if editing != nil {
		title = fmt.Sprintf("Rapport #%d bearbeiten - %s", editing.ID, client.Name)
	}
	m.form = newForm(title, []formField{
		{label: "Datum:", placeholder: domain.DateLayout, width: 15, limit: 10},
		{label: "Dauer (Min):", placeholder: "60", width: 10, limit: 5},
		{label: "Thema:", placeholder: "Was wurde gemacht?", width: 50, limit: 200},
		{label: "Kosten (leer = Dauer x Ansatz " + client.HourlyRate.StringFixed(2) + "):", placeholder: "auto", width: 15, limit: 12},
		{label: "Bezahlt mit (leer = offen):", placeholder: "Bar, Twint, ...", width: 20, limit: 40},
	})

	m.editingID = 0
	m.form.set(entryFieldDate, time.Now().Format(domain.DateLayout))
	if editing != nil {
		m.editingID = editing.ID
		m.form.set(entryFieldDate, editing.Date.Format(domain.DateLayout))
		m.form.set(entryFieldMinutes, strconv.Itoa(editing.DurationMinutes))
		m.form.set(entryFieldTopic, editing.Topic)
		m.form.set(entryFieldPaid, editing.PaymentMethod)
	}
	m.mode = entryModeForm
	return m.form.inputs[m.form.focus].Focus()
}

// formInput converts the form into service input.
func (m *EntriesModel) formInput() (service.EntryInput, error) {
	in := service.EntryInput{
		ClientID:     m.formClient.ID,
		Topic:        m.form.value(entryFieldTopic),
		CostOverride: m.form.value(entryFieldCost),
	}
	date, err := time.ParseInLocation(domain.DateLayout, m.form.value(entryFieldDate), time.Local)
	if err != nil {
		return in, fmt.Errorf("invalid date (use YYYY-MM-DD): %s", m.form.value(entryFieldDate))
	}
	in.Date = date
	if raw := m.form.value(entryFieldMinutes); raw != "" {
		if in.DurationMinutes, err = strconv.Atoi(raw); err != nil {
			return in, fmt.Errorf("invalid duration: %s", raw)
		}
	}
	if method := m.form.value(entryFieldPaid); method != "" {
		in.Paid = true
		in.PaymentMethod = method
	}
	return in, nil
}

func (m *EntriesModel) saveEntry() tea.Cmd {
	in, err := m.formInput()
	if err != nil {
		return func() tea.Msg { return entrySavedMsg{err: err} }
	}
	id := m.editingID
	return func() tea.Msg {
		if id > 0 {
			_, err = m.app.EntryService.Update(m.ctx, id, in)
		} else {
			_, err = m.app.EntryService.Create(m.ctx, in)
		}
		return entrySavedMsg{err: err}
	}
}

func (m *EntriesModel) issueInvoice(entryID int64) tea.Cmd {
	return func() tea.Msg {
		issued, err := m.app.InvoiceService.Issue(m.ctx, entryID)
		if err != nil {
			return invoiceIssuedMsg{err: err}
		}
		path, err := m.app.WriteInvoicePDF(issued)
		_, hasPayment := issued.Payment.Get()
		return invoiceIssuedMsg{
			number:  issued.Invoice.InvoiceNumber,
			path:    path,
			paid:    !hasPayment,
			slipErr: issued.SlipErr,
			err:     err,
		}
	}
}

func (m *EntriesModel) markPaid(entryID int64, method string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.EntryService.MarkPaid(m.ctx, entryID, method)
		return entryPaidMsg{err: err}
	}
}

func (m *EntriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesDataMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.report = msg.report
		m.cursor, m.offset = moveCursor(m.cursor, m.offset, 0, len(m.rows()), m.maxVisible)
		return m, nil

	case entryClientsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if len(msg.clients) == 0 {
			m.err = fmt.Errorf("no clients found, add a client first")
			return m, nil
		}
		m.formClients = msg.clients
		m.clientCursor = 0
		if len(msg.clients) == 1 {
			return m, m.openForm(msg.clients[0], nil)
		}
		m.mode = entryModePickClient
		return m, nil

	case entryEditMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.formClients = nil
		return m, m.openForm(msg.client, msg.entry)

	case invoiceIssuedMsg:
		m.mode = entryModeList
		if msg.err != nil {
			m.err = msg.err
			return m, m.loadEntries()
		}
		m.statusMsg = fmt.Sprintf("Rechnung %s erstellt: %s", msg.number, msg.path)
		if msg.paid {
			m.statusMsg += " (bereits bezahlt, ohne Einzahlungsschein)"
		}
		if msg.slipErr != nil {
			m.warnMsg = "Einzahlungsschein konnte nicht erstellt werden: " + msg.slipErr.Error()
		}
		return m, m.loadEntries()

	case entryPaidMsg:
		m.mode = entryModeList
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = "Als bezahlt markiert"
		m.loading = true
		return m, m.loadEntries()
	}

	switch m.mode {
	case entryModePickClient:
		return m.updatePickClient(msg)
	case entryModeForm:
		return m.updateForm(msg)
	case entryModeConfirmIssue:
		return m.updateConfirmIssue(msg)
	case entryModePay:
		return m.updatePay(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadEntries()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.warnMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, -1, len(m.rows()), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.Down):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, 1, len(m.rows()), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.New):
			m.loading = true
			return m, m.loadFormClients()
		case key.Matches(msg, DefaultKeyMap.Filter):
			m.filter = (m.filter + 1) % 3
			m.cursor, m.offset = 0, 0
			m.loading = true
			return m, m.loadEntries()
		case key.Matches(msg, DefaultKeyMap.Edit):
			if row, ok := m.selected(); ok {
				m.loading = true
				return m, m.loadForEdit(row.EntryID)
			}
		case key.Matches(msg, DefaultKeyMap.Issue):
			if row, ok := m.selected(); ok {
				if row.CostOrZero().IsZero() {
					m.err = fmt.Errorf("entry #%d has no cost to invoice", row.EntryID)
					return m, nil
				}
				m.mode = entryModeConfirmIssue
			}
		case key.Matches(msg, DefaultKeyMap.Pay):
			if row, ok := m.selected(); ok && !row.Paid {
				ti := textinput.New()
				ti.Placeholder = "Bar, Twint, Überweisung"
				ti.CharLimit = 40
				ti.Width = 30
				m.payInput = ti
				m.mode = entryModePay
				return m, m.payInput.Focus()
			}
		}
	}

	return m, nil
}

func (m *EntriesModel) updatePickClient(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			m.mode = entryModeList
			m.formClients = nil
		case key.Matches(msg, DefaultKeyMap.Up):
			m.clientCursor, _ = moveCursor(m.clientCursor, 0, -1, len(m.formClients), len(m.formClients))
		case key.Matches(msg, DefaultKeyMap.Down):
			m.clientCursor, _ = moveCursor(m.clientCursor, 0, 1, len(m.formClients), len(m.formClients))
		case key.Matches(msg, DefaultKeyMap.Select):
			if len(m.formClients) > 0 {
				return m, m.openForm(m.formClients[m.clientCursor], nil)
			}
		}
	}
	return m, nil
}

func (m *EntriesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = entryModeList
		m.statusMsg = "Rapport gespeichert"
		m.loading = true
		return m, m.loadEntries()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			m.err = nil
			m.mode = entryModeList
			if len(m.formClients) > 1 {
				m.mode = entryModePickClient
			}
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Save):
			return m, m.saveEntry()
		case msg.String() == "enter" && m.form.last():
			return m, m.saveEntry()
		}
	}
	return m, m.form.update(msg)
}

func (m *EntriesModel) updateConfirmIssue(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		row, _ := m.selected()
		switch msg.String() {
		case "y", "j":
			m.statusMsg = "Rechnung wird erstellt..."
			return m, m.issueInvoice(row.EntryID)
		default:
			m.mode = entryModeList
		}
	}
	return m, nil
}

func (m *EntriesModel) updatePay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			row, _ := m.selected()
			return m, m.markPaid(row.EntryID, m.payInput.Value())
		case "esc":
			m.mode = entryModeList
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.payInput, cmd = m.payInput.Update(msg)
	return m, cmd
}

func (m *EntriesModel) View() string {
	if m.loading {
		return "Loading entries..."
	}

	switch m.mode {
	case entryModePickClient:
		return m.viewPickClient()
	case entryModeForm:
		return m.form.view(m.err)
	case entryModeConfirmIssue:
		return m.viewConfirmIssue()
	case entryModePay:
		return m.viewPay()
	default:
		return m.viewList()
	}
}

func (m *EntriesModel) viewList() string {
	var s string
	s += titleStyle.Render("Rapporte") + subtitleStyle.Render("  Filter: "+m.filter.String()) + "\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.warnMsg != "" {
		s += warnStyle.Render("  "+m.warnMsg) + "\n"
	}
	if m.err != nil {
		s += "  " + errText(m.err) + "\n"
	}

	rows := m.rows()
	if len(rows) == 0 {
		s += "\n" + subtitleStyle.Render("  Keine Rapporte. 'n' erfasst einen neuen.")
		return s
	}

	totals := m.report.Totals
	s += subtitleStyle.Render(fmt.Sprintf(
		"  %d Rapporte  |  %s  |  %s  |  offen %s",
		len(rows), formatMinutes(totals.Minutes), formatMoney(totals.Cost), formatMoney(totals.OpenCost),
	)) + "\n\n"

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-10s  %-20s  %-30s  %7s  %14s  %s",
		"Datum", "Kunde", "Thema", "Dauer", "Kosten", "Status",
	)) + "\n"

	end := min(m.offset+m.maxVisible, len(rows))
	for i := m.offset; i < end; i++ {
		s += m.renderRow(rows[i], i == m.cursor) + "\n"
	}

	if m.offset > 0 {
		s += subtitleStyle.Render("  ... more above") + "\n"
	}
	if end < len(rows) {
		s += subtitleStyle.Render("  ... more below") + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  e: edit  enter/i: invoice  p: paid  f: filter")
	return s
}

func (m *EntriesModel) renderRow(row document.ReportRow, selected bool) string {
	status := "Offen"
	if row.Paid {
		status = "Bezahlt " + row.PaymentMethod
	}
	line := fmt.Sprintf("%-10s  %-20s  %-30s  %7s  %14s  %s",
		row.Date.Format("02.01.2006"),
		truncateStr(row.Client, 20),
		truncateStr(row.Topic, 30),
		formatMinutes(row.Minutes),
		formatMoney(row.CostOrZero()),
		truncateStr(status, 20),
	)

	if selected {
		return "  " + selectedStyle.Render(line)
	}
	if row.Paid {
		return "  " + paidStyle.Render(line)
	}
	return "  " + line
}

func (m *EntriesModel) viewPickClient() string {
	var s string
	s += titleStyle.Render("Neuer Rapport - Kunde wählen") + "\n\n"

	for i, client := range m.formClients {
		line := fmt.Sprintf("%-30s  %s/h", truncateStr(client.Name, 30), formatMoney(client.HourlyRate))
		if i == m.clientCursor {
			s += focusStyle.Render("> "+line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: select  esc: cancel")
	return s
}

func (m *EntriesModel) viewConfirmIssue() string {
	row, _ := m.selected()
	var s string
	s += titleStyle.Render("Rechnung erstellen") + "\n\n"
	s += fmt.Sprintf("  %s  %s  %s  %s\n\n",
		row.Date.Format("02.01.2006"), row.Client, truncateStr(row.Topic, 40), formatMoney(row.CostOrZero()))
	if m.statusMsg != "" {
		return s + statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	s += warnStyle.Render("  Rechnung ausstellen? Die Nummer kann nicht zurückgenommen werden. (y/n)") + "\n"
	return s
}

func (m *EntriesModel) viewPay() string {
	row, _ := m.selected()
	var s string
	s += titleStyle.Render("Als bezahlt markieren") + "\n\n"
	s += fmt.Sprintf("  %s  %s  %s\n\n", row.Date.Format("02.01.2006"), row.Client, formatMoney(row.CostOrZero()))
	s += fmt.Sprintf("  Zahlungsart: %s\n\n", m.payInput.View())
	if m.err != nil {
		s += "  " + errText(m.err) + "\n\n"
	}
	s += helpStyle.Render("  enter: save  esc: cancel") + "\n"
	return s
}
