package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rapport/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenEntries Screen = iota
	ScreenInvoices
	ScreenClients
	screenCount
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenEntries:
		return "Rapporte"
	case ScreenInvoices:
		return "Rechnungen"
	case ScreenClients:
		return "Kunden"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	ctx           context.Context
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	screens [screenCount]tea.Model

	checkedFirstRun bool

	err error
}

// New creates a new root model starting on the entries screen
func New(ctx context.Context, a *app.App) Model {
	m := Model{
		ctx:           ctx,
		app:           a,
		currentScreen: ScreenEntries,
	}
	m.screens[ScreenEntries] = NewEntriesModel(ctx, a)
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.checkFirstRun(), m.screens[ScreenEntries].Init())
}

// checkFirstRun checks if any clients exist in the database
func (m Model) checkFirstRun() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.app.ClientService.List(m.ctx)
		if err != nil {
			return firstRunCheckMsg{hasClients: true} // assume yes on error
		}
		return firstRunCheckMsg{hasClients: len(clients) > 0}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	if m.screens[screen] != nil {
		return func() tea.Msg { return RefreshDataMsg{} }
	}
	switch screen {
	case ScreenEntries:
		m.screens[screen] = NewEntriesModel(m.ctx, m.app)
	case ScreenInvoices:
		m.screens[screen] = NewInvoicesModel(m.ctx, m.app)
	case ScreenClients:
		m.screens[screen] = NewClientsModel(m.ctx, m.app)
	}
	return m.screens[screen].Init()
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	m.err = nil
	return m.initScreen(screen)
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.screens[m.currentScreen].(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.activeScreenCapturingInput() {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				return m, tea.Quit
			case key.Matches(msg, DefaultKeyMap.Entries):
				return m, m.switchTo(ScreenEntries)
			case key.Matches(msg, DefaultKeyMap.Invoices):
				return m, m.switchTo(ScreenInvoices)
			case key.Matches(msg, DefaultKeyMap.Clients):
				return m, m.switchTo(ScreenClients)
			case key.Matches(msg, DefaultKeyMap.NextTab):
				return m, m.switchTo((m.currentScreen + 1) % screenCount)
			}
		}

	case firstRunCheckMsg:
		first := !m.checkedFirstRun && !msg.hasClients
		m.checkedFirstRun = true
		if first {
			initCmd := m.switchTo(ScreenClients)
			openFormCmd := func() tea.Msg { return OpenNewClientFormMsg{} }
			return m, tea.Sequence(initCmd, openFormCmd)
		}
		return m, nil

	case SwitchScreenMsg:
		return m, m.switchTo(msg.Screen)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Route message to current screen
	var cmd tea.Cmd
	if s := m.screens[m.currentScreen]; s != nil {
		m.screens[m.currentScreen], cmd = s.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("rapport - %s", m.currentScreen.String()))
	footer := footerStyle.Render("[1] Rapporte  [2] Rechnungen  [3] Kunden  [tab] weiter  [q] Beenden")

	content := "Loading..."
	if s := m.screens[m.currentScreen]; s != nil {
		content = s.View()
	}

	errorDisplay := ""
	if m.err != nil {
		errorDisplay = "\n" + errText(m.err)
	}

	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(strings.Repeat("─", dividerWidth))

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}
