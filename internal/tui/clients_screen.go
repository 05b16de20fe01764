package tui

import (
	"context"
	"fmt"

	"github.com/andy/rapport/internal/app"
	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// clientMode represents the current screen mode
type clientMode int

const (
	clientModeList clientMode = iota
	clientModeForm
	clientModeDetail
	clientModeLoginForm
)

// client form field indices
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldRate
	fieldStreet
	fieldHouseNumber
	fieldPostalCode
	fieldCity
	fieldInfrastructure
)

// login form field indices
const (
	loginFieldDevice = iota
	loginFieldDescription
	loginFieldUsername
	loginFieldPassword
)

// ClientsModel displays a navigable list of clients with create/edit forms
type ClientsModel struct {
	ctx        context.Context
	app        *app.App
	clients    []*domain.Client
	cursor     int
	offset     int
	maxVisible int
	loading    bool
	err        error
	statusMsg  string

	mode          clientMode
	form          *form
	editingID     int64 // 0 for new client
	autoNewClient bool  // open new client form after data loads

	detail *domain.Client
	logins []*domain.DeviceLogin
}

type clientsDataMsg struct {
	clients []*domain.Client
	err     error
}

type clientSavedMsg struct {
	name string
	err  error
}

type clientDetailMsg struct {
	client *domain.Client
	logins []*domain.DeviceLogin
	err    error
}

type loginSavedMsg struct {
	err error
}

// NewClientsModel creates a new clients screen model
func NewClientsModel(ctx context.Context, a *app.App) tea.Model {
	return &ClientsModel{
		ctx:        ctx,
		app:        a,
		maxVisible: 15,
		loading:    true,
	}
}

// IsCapturingInput returns true when a form is active
func (m *ClientsModel) IsCapturingInput() bool {
	return m.mode == clientModeForm || m.mode == clientModeLoginForm
}

func (m *ClientsModel) Init() tea.Cmd {
	return m.loadClients()
}

func (m *ClientsModel) loadClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.app.ClientService.List(m.ctx)
		return clientsDataMsg{clients: clients, err: err}
	}
}

func (m *ClientsModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		client, err := m.app.ClientService.Get(m.ctx, id)
		if err != nil {
			return clientDetailMsg{err: err}
		}
		logins, err := m.app.ClientService.ListLogins(m.ctx, id)
		return clientDetailMsg{client: client, logins: logins, err: err}
	}
}

func (m *ClientsModel) openForm(client *domain.Client) tea.Cmd {
	title := "Neuer Kunde"
	if client != nil {
		title = "Kunde bearbeiten - " + client.Name
	}
	m.form = newForm(title, []formField{
		{label: "Name:", placeholder: "Muster AG", width: 40, limit: 100},
		{label: "E-Mail:", placeholder: "info@example.ch", width: 40, limit: 100},
		{label: "Telefon:", placeholder: "044 123 45 67", width: 20, limit: 30},
		{label: "Stundenansatz (CHF):", placeholder: m.app.Config.Billing.DefaultRate, width: 10, limit: 10},
		{label: "Strasse:", placeholder: "Bahnhofstrasse", width: 40, limit: 70},
		{label: "Hausnummer:", placeholder: "1", width: 10, limit: 16},
		{label: "PLZ:", placeholder: "8000", width: 10, limit: 16},
		{label: "Ort:", placeholder: "Zürich", width: 30, limit: 35},
		{label: "IT-Infrastruktur:", placeholder: "Router, NAS, Drucker", width: 50, limit: 500},
	})

	m.editingID = 0
	if client != nil {
		m.editingID = client.ID
		addr := client.EffectiveAddress()
		m.form.set(fieldName, client.Name)
		m.form.set(fieldEmail, client.Email)
		m.form.set(fieldPhone, client.Phone)
		m.form.set(fieldRate, client.HourlyRate.StringFixed(2))
		m.form.set(fieldStreet, addr.Street)
		m.form.set(fieldHouseNumber, addr.HouseNumber)
		m.form.set(fieldPostalCode, addr.PostalCode)
		m.form.set(fieldCity, addr.City)
		m.form.set(fieldInfrastructure, client.ITInfrastructure)
	}
	m.mode = clientModeForm
	return m.form.inputs[fieldName].Focus()
}

func (m *ClientsModel) saveClient() tea.Cmd {
	in := service.ClientInput{
		Name:             m.form.value(fieldName),
		Email:            m.form.value(fieldEmail),
		Phone:            m.form.value(fieldPhone),
		HourlyRate:       m.form.value(fieldRate),
		Street:           m.form.value(fieldStreet),
		HouseNumber:      m.form.value(fieldHouseNumber),
		PostalCode:       m.form.value(fieldPostalCode),
		City:             m.form.value(fieldCity),
		ITInfrastructure: m.form.value(fieldInfrastructure),
	}
	id := m.editingID
	return func() tea.Msg {
		var err error
		if id > 0 {
			_, err = m.app.ClientService.Update(m.ctx, id, in)
		} else {
			_, err = m.app.ClientService.Create(m.ctx, in)
		}
		return clientSavedMsg{name: in.Name, err: err}
	}
}

func (m *ClientsModel) openLoginForm() tea.Cmd {
	m.form = newForm("Neues Login - "+m.detail.Name, []formField{
		{label: "Gerät:", placeholder: "Router", width: 30, limit: 50},
		{label: "Beschreibung:", placeholder: "Büro EG", width: 40, limit: 100},
		{label: "Benutzer:", placeholder: "admin", width: 30, limit: 100},
		{label: "Passwort:", width: 30, limit: 100},
	})
	m.mode = clientModeLoginForm
	return m.form.inputs[loginFieldDevice].Focus()
}

func (m *ClientsModel) saveLogin() tea.Cmd {
	in := service.LoginInput{
		DeviceType:  m.form.value(loginFieldDevice),
		Description: m.form.value(loginFieldDescription),
		Username:    m.form.value(loginFieldUsername),
		Password:    m.form.value(loginFieldPassword),
	}
	clientID := m.detail.ID
	return func() tea.Msg {
		_, err := m.app.ClientService.AddLogin(m.ctx, clientID, in)
		return loginSavedMsg{err: err}
	}
}

func (m *ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewClientFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewClientFormMsg); ok {
		if m.loading {
			m.autoNewClient = true
			return m, nil
		}
		return m, m.openForm(nil)
	}

	switch m.mode {
	case clientModeForm, clientModeLoginForm:
		return m.updateForm(msg)
	case clientModeDetail:
		return m.updateDetail(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadClients()

	case clientsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.clients = msg.clients
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, 0, len(m.clients), m.maxVisible)
		}
		if m.autoNewClient {
			m.autoNewClient = false
			return m, m.openForm(nil)
		}
		return m, nil

	case clientDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.detail = msg.client
		m.logins = msg.logins
		m.mode = clientModeDetail
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, -1, len(m.clients), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.Down):
			m.cursor, m.offset = moveCursor(m.cursor, m.offset, 1, len(m.clients), m.maxVisible)
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openForm(nil)
		case key.Matches(msg, DefaultKeyMap.Edit):
			if m.cursor < len(m.clients) {
				return m, m.openForm(m.clients[m.cursor])
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.cursor < len(m.clients) {
				m.loading = true
				return m, m.loadDetail(m.clients[m.cursor].ID)
			}
		}
	}

	return m, nil
}

func (m *ClientsModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientDetailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.detail = msg.client
		m.logins = msg.logins
	case tea.KeyMsg:
		m.statusMsg = ""
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			m.mode = clientModeList
			m.detail = nil
			m.err = nil
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openLoginForm()
		case key.Matches(msg, DefaultKeyMap.Edit):
			return m, m.openForm(m.detail)
		}
	}
	return m, nil
}

func (m *ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	save := m.saveClient
	if m.mode == clientModeLoginForm {
		save = m.saveLogin
	}

	switch msg := msg.(type) {
	case clientSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = clientModeList
		m.detail = nil
		m.statusMsg = fmt.Sprintf("Gespeichert: %s", msg.name)
		m.loading = true
		return m, m.loadClients()

	case loginSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = clientModeDetail
		m.statusMsg = "Login gespeichert"
		return m, m.loadDetail(m.detail.ID)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			m.err = nil
			m.mode = clientModeList
			if m.detail != nil {
				m.mode = clientModeDetail
			}
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Save):
			return m, save()
		case msg.String() == "enter" && m.form.last():
			return m, save()
		}
	}
	return m, m.form.update(msg)
}

func (m *ClientsModel) View() string {
	if m.loading {
		return "Loading clients..."
	}

	switch m.mode {
	case clientModeForm, clientModeLoginForm:
		return m.form.view(m.err)
	case clientModeDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m *ClientsModel) viewList() string {
	var s string
	s += titleStyle.Render("Kunden") + "\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.err != nil {
		s += "  " + errText(m.err) + "\n"
	}

	if len(m.clients) == 0 {
		s += "\n" + subtitleStyle.Render("  Noch keine Kunden. 'n' erfasst einen neuen.")
		return s
	}

	s += "\n" + subtitleStyle.Render(fmt.Sprintf("  %-30s  %-25s  %-20s  %12s", "Name", "Ort", "Telefon", "Ansatz")) + "\n"

	end := min(m.offset+m.maxVisible, len(m.clients))
	for i := m.offset; i < end; i++ {
		c := m.clients[i]
		addr := c.EffectiveAddress()
		line := fmt.Sprintf("%-30s  %-25s  %-20s  %12s",
			truncateStr(c.Name, 30),
			truncateStr(addr.PostalCode+" "+addr.City, 25),
			truncateStr(c.Phone, 20),
			formatMoney(c.HourlyRate),
		)
		if c.NeedsAddressMigration() {
			line += warnStyle.Render(" *")
		}
		if i == m.cursor {
			s += "  " + selectedStyle.Render(line) + "\n"
		} else {
			s += "  " + line + "\n"
		}
	}

	if end < len(m.clients) {
		s += subtitleStyle.Render("  ... more below") + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: details  n: new  e: edit  (*: address not migrated)")
	return s
}

func (m *ClientsModel) viewDetail() string {
	c := m.detail
	addr := c.EffectiveAddress()
	label := subtitleStyle.Width(18)

	var s string
	s += titleStyle.Render(c.Name) + "\n"
	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.err != nil {
		s += "  " + errText(m.err) + "\n"
	}
	s += "\n"

	rows := [][2]string{
		{"Adresse", addr.Street + " " + addr.HouseNumber},
		{"", addr.PostalCode + " " + addr.City},
		{"E-Mail", c.Email},
		{"Telefon", c.Phone},
		{"Stundenansatz", formatMoney(c.HourlyRate)},
		{"IT-Infrastruktur", c.ITInfrastructure},
	}
	for _, r := range rows {
		s += "  " + lipgloss.JoinHorizontal(lipgloss.Top, label.Render(r[0]), r[1]) + "\n"
	}

	s += "\n" + headerStyle.Render("Logins") + "\n"
	if len(m.logins) == 0 {
		s += subtitleStyle.Render("  Keine Logins erfasst.") + "\n"
	}
	for _, l := range m.logins {
		s += fmt.Sprintf("  %-15s  %-25s  %-15s  %s\n",
			truncateStr(l.DeviceType, 15),
			truncateStr(l.Description, 25),
			truncateStr(l.Username, 15),
			l.Password,
		)
	}

	s += "\n" + helpStyle.Render("  n: new login  e: edit client  esc: back")
	return s
}
