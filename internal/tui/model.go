// Package tui is the terminal browse surface. It drives a listing controller
// from key presses and redraws on every controller change.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lembar-pintar/studio/internal/domain"
	"github.com/lembar-pintar/studio/internal/events"
	"github.com/lembar-pintar/studio/internal/listing"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	facetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	emptyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	searchStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	defaultHeight = 24
)

// SelectFunc loads whatever enter should show for item and returns a
// one-line summary.
type SelectFunc func(ctx context.Context, item domain.Item) (string, error)

type changedMsg struct{}

type tickMsg struct{}

type selectedMsg struct {
	text string
	err  error
}

// Model is a bubbletea model over a listing controller.
type Model struct {
	ctrl    *listing.Controller[domain.Item]
	title   string
	choices []FacetChoice
	choice  int
	search  string
	cursor  int
	status  string
	failed  bool
	frame   int
	height  int
	onPick  SelectFunc
	timeout time.Duration
	bus     *events.Bus
	panel   string
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the header line.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithChoices sets the facet values tab cycles through.
func WithChoices(choices []FacetChoice) Option {
	return func(m *Model) { m.choices = choices }
}

// WithSelect sets what enter does.
func WithSelect(fn SelectFunc) Option {
	return func(m *Model) { m.onPick = fn }
}

// WithBus publishes item.selected for resource on enter.
func WithBus(bus *events.Bus, resource string) Option {
	return func(m *Model) {
		m.bus = bus
		m.panel = resource
	}
}

// New wraps ctrl. The model owns ctrl and closes it on quit.
func New(ctrl *listing.Controller[domain.Item], opts ...Option) Model {
	m := Model{
		ctrl:    ctrl,
		title:   "Lembar Pintar",
		height:  defaultHeight,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.search = ctrl.Snapshot().Query.SearchText
	return m
}

func (m Model) Init() tea.Cmd {
	m.ctrl.Refresh()
	return tea.Batch(m.waitForChange(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case changedMsg:
		m.clampCursor()
		return m, m.waitForChange()
	case tickMsg:
		if m.ctrl.Snapshot().Loading {
			m.frame = (m.frame + 1) % len(spinnerFrames)
		}
		return m, tick()
	case selectedMsg:
		if msg.err != nil {
			m.status, m.failed = msg.err.Error(), true
		} else {
			m.status, m.failed = msg.text, false
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.ctrl.Close()
		return m, tea.Quit
	case "tab":
		if len(m.choices) > 0 {
			m.choice = (m.choice + 1) % len(m.choices)
			c := m.choices[m.choice]
			m.ctrl.SetFacet(c.Name, c.Value)
			m.cursor = 0
		}
		return m, nil
	case "ctrl+n":
		m.ctrl.LoadMore()
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		s := m.ctrl.Snapshot()
		if m.cursor < len(s.Items)-1 {
			m.cursor++
		}
		if m.cursor >= len(s.Items)-1 && s.HasMore {
			m.ctrl.LoadMore()
		}
		return m, nil
	case "enter":
		s := m.ctrl.Snapshot()
		if m.cursor >= len(s.Items) {
			return m, nil
		}
		item := s.Items[m.cursor]
		events.Publish(m.bus, events.ItemSelectedTopic, events.ItemSelected{Resource: m.panel, Item: item})
		if m.onPick == nil {
			return m, nil
		}
		return m, m.pick(item)
	case "backspace":
		if r := []rune(m.search); len(r) > 0 {
			m.search = string(r[:len(r)-1])
			m.ctrl.SetSearchText(m.search)
			m.cursor = 0
		}
		return m, nil
	}
	switch msg.Type {
	case tea.KeyRunes:
		m.search += string(msg.Runes)
	case tea.KeySpace:
		m.search += " "
	default:
		return m, nil
	}
	m.ctrl.SetSearchText(m.search)
	m.cursor = 0
	return m, nil
}

func (m Model) View() string {
	s := m.ctrl.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	if len(m.choices) > 0 {
		b.WriteString("  ")
		b.WriteString(facetStyle.Render("[" + m.choices[m.choice].Label + "]"))
	}
	b.WriteString("\n")
	b.WriteString(searchStyle.Render("Cari: " + m.search + "▏"))
	b.WriteString("\n")

	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(s.Items) && i < start+rows; i++ {
		line := itemLine(s.Items[i])
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	switch {
	case s.Loading:
		b.WriteString(spinnerFrames[m.frame] + " Memuat…\n")
	case s.Empty() && s.Searching():
		b.WriteString(emptyStyle.Render(fmt.Sprintf("Tidak ada hasil untuk %q.", s.Query.SearchText)))
		b.WriteString("\n")
	case s.Empty():
		b.WriteString(dimStyle.Render("Belum ada item."))
		b.WriteString("\n")
	}
	if s.Err != nil {
		b.WriteString(errorStyle.Render("Gagal memuat: " + s.Err.Error()))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%d dari %d", len(s.Items), s.TotalItems)
	if s.HasMore {
		footer += " · ctrl+n muat lebih banyak"
	}
	footer += " · tab filter · enter pilih · esc keluar"
	b.WriteString(dimStyle.Render(footer))
	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Snapshot().Items)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) waitForChange() tea.Cmd {
	changes, done := m.ctrl.Changes(), m.ctrl.Done()
	return func() tea.Msg {
		select {
		case <-changes:
			return changedMsg{}
		case <-done:
			return nil
		}
	}
}

func (m Model) pick(item domain.Item) tea.Cmd {
	fn, timeout := m.onPick, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := fn(ctx, item)
		return selectedMsg{text: text, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func itemLine(it domain.Item) string {
	line := it.Title
	if it.Dimensions != nil {
		line += dimStyle.Render(fmt.Sprintf("  %dx%d", it.Dimensions.Width, it.Dimensions.Height))
	}
	return line
}
