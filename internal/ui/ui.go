package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/trackcast/internal/formatter"
	"github.com/desertthunder/trackcast/internal/shared"
	"github.com/desertthunder/trackcast/internal/state"
	"github.com/desertthunder/trackcast/internal/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	trackStyle  = lipgloss.NewStyle().Bold(true)
	artistStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// keyMap defines the key bindings for the status view.
type keyMap struct {
	open    key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open overlay"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.open, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.open, k.refresh, k.quit}}
}

// tickMsg requests a fresh snapshot copy.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model represents the status TUI state.
type Model struct {
	states        *state.Store
	creds         *store.CredentialStore
	overlayURL    string
	display       formatter.Display
	authenticated bool
	width         int
	spin          spinner.Model
	help          help.Model
	keys          keyMap
}

// NewModel creates a status view reading from the given stores.
func NewModel(states *state.Store, creds *store.CredentialStore, overlayURL string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		states:     states,
		creds:      creds,
		overlayURL: overlayURL,
		spin:       sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			// Fire and forget; the view is not the place to report browser errors.
			_ = shared.OpenBrowser(m.overlayURL)
		case key.Matches(msg, m.keys.refresh):
			m.display = formatter.Derive(m.states.Snapshot())
			m.authenticated = m.creds.Current().Authenticated()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tickMsg:
		m.display = formatter.Derive(m.states.Snapshot())
		m.authenticated = m.creds.Current().Authenticated()
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("trackcast"))
	b.WriteString(dimStyle.Render("  " + m.overlayURL))
	b.WriteString("\n\n")

	switch {
	case !m.authenticated:
		b.WriteString(warnStyle.Render("Authentication required, run: trackcast auth"))
		b.WriteString("\n")
	case !m.display.HasTrack:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" nothing playing"))
		b.WriteString("\n")
	default:
		b.WriteString(trackStyle.Render(m.display.Title))
		b.WriteString("\n")
		b.WriteString(artistStyle.Render(m.display.Artists))
		if m.display.Album != "" {
			b.WriteString(dimStyle.Render(" · " + m.display.Album))
		}
		b.WriteString("\n\n")
		b.WriteString(m.progressBar())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s / %s", m.display.Elapsed, m.display.Total)))
		if !m.display.IsPlaying {
			b.WriteString(warnStyle.Render("  ⏸ paused"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// progressBar renders the playback position as a fixed-width bar.
func (m Model) progressBar() string {
	width := 40
	if m.width > 0 && m.width < 44 {
		width = m.width - 4
	}
	if width < 10 {
		width = 10
	}

	filled := int(float64(width) * m.display.Percent / 100)
	if filled > width {
		filled = width
	}

	return barStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}
