package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rapport/internal/app"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

type invoiceViewMode int

const (
	invoiceViewList   invoiceViewMode = iota
	invoiceViewDetail                 // Viewing a single invoice
)

// InvoicesModel displays issued invoices in list and detail views
type InvoicesModel struct {
	ctx         context.Context
	app         *app.App
	mode        invoiceViewMode
	invoices    []*domain.Invoice
	clientNames map[int64]string
	cursor      int
	offset      int
	maxVisible  int
	selected    *service.IssuedInvoice
	loading     bool
	err         error
	statusMsg   string
	warnMsg     string
}

type invoicesDataMsg struct {
	invoices    []*domain.Invoice
	clientNames map[int64]string
	err         error
}

type invoiceDetailMsg struct {
	issued *service.IssuedInvoice
	err    error
}

type invoiceWrittenMsg struct {
	path string
	err  error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(ctx context.Context, a *app.App) tea.Model {
	return &InvoicesModel{
		ctx:        ctx,
		app:        a,
		mode:       invoiceViewList,
		maxVisible: 15,
		loading:    true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		invoices, err := m.app.InvoiceService.ListInvoices(m.ctx, nil)
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		clients, err := m.app.ClientService.List(m.ctx)
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		names := lo.SliceToMap(clients, func(c *domain.Client) (int64, string) {
			return c.ID, c.Name
		})
		return invoicesDataMsg{invoices: invoices, clientNames: names}
	}
}

// loadDetail renders the invoice document, which also resolves its client
// and entries.
func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		issued, err := m.app.InvoiceService.Document(m.ctx, id)
		return invoiceDetailMsg{issued: issued, err: err}
	}
}

func (m *InvoicesModel) writePDF() tea.Cmd {
	issued := m.selected
	return func() tea.Msg {
		path, err := m.app.WriteInvoicePDF(issued)
		return invoiceWrittenMsg{path: path, err: err}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.invoices = msg.invoices
			m.clientNames = msg.clientNames
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, 0, len(m.invoices), m.maxVisible)
		}
		return m, nil

	case invoiceDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.issued
		m.mode = invoiceViewDetail
		if msg.issued.SlipErr != nil {
			m.warnMsg = "Ohne Einzahlungsschein: " + msg.issued.SlipErr.Error()
		}
		return m, nil

	case invoiceWrittenMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = "PDF gespeichert: " + msg.path
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		m.statusMsg = ""
		m.err = nil

		if m.mode == invoiceViewDetail {
			switch {
			case key.Matches(msg, DefaultKeyMap.Back):
				m.mode = invoiceViewList
				m.selected = nil
				m.warnMsg = ""
			case key.Matches(msg, DefaultKeyMap.Select):
				return m, m.writePDF()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, -1, len(m.invoices), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.Down):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, 1, len(m.invoices), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.cursor < len(m.invoices) {
				m.loading = true
				return m, m.loadDetail(m.invoices[m.cursor].ID)
			}
		}
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading invoices..."
	}
	if m.mode == invoiceViewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m *InvoicesModel) viewList() string {
	var s string
	s += titleStyle.Render("Rechnungen") + "\n"

	if m.err != nil {
		s += "  " + errText(m.err) + "\n"
	}

	if len(m.invoices) == 0 {
		s += "\n" + subtitleStyle.Render("  Noch keine Rechnungen. Auf dem Rapporte-Tab mit enter/i erstellen.")
		return s
	}

	s += "\n" + subtitleStyle.Render(fmt.Sprintf("  %-14s  %-10s  %-30s  %14s  %s", "Nummer", "Datum", "Kunde", "Betrag", "Rapporte")) + "\n"

	end := min(m.offset+m.maxVisible, len(m.invoices))
	for i := m.offset; i < end; i++ {
		inv := m.invoices[i]
		line := fmt.Sprintf("%-14s  %-10s  %-30s  %14s  %s",
			inv.InvoiceNumber,
			inv.CreatedAt.Format("02.01.2006"),
			truncateStr(m.clientName(inv.ClientID), 30),
			formatMoney(inv.Amount),
			joinEntryIDs(inv.EntryIDs),
		)
		if i == m.cursor {
			s += "  " + selectedStyle.Render(line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	if m.offset > 0 {
		s += subtitleStyle.Render("  ... more above") + "\n"
	}
	if end < len(m.invoices) {
		s += subtitleStyle.Render("  ... more below") + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: details")
	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.selected.Invoice
	var s string
	s += titleStyle.Render("Rechnung "+inv.InvoiceNumber) + "\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.warnMsg != "" {
		s += warnStyle.Render("  "+m.warnMsg) + "\n"
	}
	if m.err != nil {
		s += "  " + errText(m.err) + "\n"
	}

	s += "\n"
	s += fmt.Sprintf("  Kunde:   %s\n", m.selected.Client.Name)
	s += fmt.Sprintf("  Datum:   %s\n", inv.CreatedAt.Format("02.01.2006"))
	s += fmt.Sprintf("  Betrag:  %s\n", formatMoney(inv.Amount))
	if payment, ok := m.selected.Payment.Get(); ok {
		s += fmt.Sprintf("  Mitteilung: %s\n", payment.Reference)
	} else {
		s += paidStyle.Render("  Bezahlt") + "\n"
	}

	s += "\n" + headerStyle.Render("Rapporte") + "\n"
	for _, e := range m.selected.Entries {
		s += fmt.Sprintf("  %-10s  %-40s  %7s  %14s\n",
			e.Date.Format("02.01.2006"),
			truncateStr(e.Topic, 40),
			formatMinutes(e.DurationMinutes),
			formatMoney(e.CostOrZero()),
		)
	}

	s += "\n" + helpStyle.Render("  enter: write PDF  esc: back")
	return s
}

func (m *InvoicesModel) clientName(id int64) string {
	if name, ok := m.clientNames[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

func joinEntryIDs(ids []int64) string {
	return strings.Join(lo.Map(ids, func(id int64, _ int) string {
		return fmt.Sprintf("#%d", id)
	}), ", ")
}
