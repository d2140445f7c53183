// Package tui provides the interactive menus using Bubbletea.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))
)

// Item is one selectable menu row.
type Item struct {
	Key          string // optional shortcut key
	Title        string
	Desc         string
	Disabled     bool
	DisabledNote string
}

// Toggle is an optional boolean row shown below the list.
type Toggle struct {
	Key   string
	Label string
	On    bool
}

// Selection is the picker's result.
type Selection struct {
	Index    int
	Item     Item
	ToggleOn bool
	Aborted  bool
}

// ItemsMsg delivers asynchronously loaded items to the picker.
type ItemsMsg struct {
	Items []Item
}

// LoadErrorMsg aborts the picker with a loading failure.
type LoadErrorMsg struct {
	Err error
}

// Model is the Bubbletea model for one menu.
type Model struct {
	title       string
	items       []Item
	toggle      *Toggle
	cursor      int
	loading     bool
	loadingNote string
	loadErr     error
	spinner     spinner.Model
	width       int

	selection Selection
	done      bool
}

// NewModel creates a picker over a fixed item list.
func NewModel(title string, items []Item, toggle *Toggle) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	m := Model{
		title:   title,
		items:   items,
		toggle:  toggle,
		spinner: s,
		width:   80,
	}
	m.cursor = m.firstEnabled()
	return m
}

// NewLoadingModel creates a picker whose items arrive later via ItemsMsg.
func NewLoadingModel(title, loadingNote string) Model {
	m := NewModel(title, nil, nil)
	m.loading = true
	m.loadingNote = loadingNote
	return m
}

func (m Model) firstEnabled() int {
	for i, it := range m.items {
		if !it.Disabled {
			return i
		}
	}
	return 0
}

func (m *Model) move(delta int) {
	if len(m.items) == 0 {
		return
	}
	i := m.cursor
	for range m.items {
		i = (i + delta + len(m.items)) % len(m.items)
		if !m.items[i].Disabled {
			m.cursor = i
			return
		}
	}
}

func (m *Model) choose(i int) tea.Cmd {
	if i < 0 || i >= len(m.items) || m.items[i].Disabled {
		return nil
	}
	m.selection = Selection{Index: i, Item: m.items[i]}
	if m.toggle != nil {
		m.selection.ToggleOn = m.toggle.On
	}
	m.done = true
	return tea.Quit
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.loading {
		return m.spinner.Tick
	}
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "esc", "ctrl+c":
			m.selection = Selection{Aborted: true}
			m.done = true
			return m, tea.Quit

		case "up", "k":
			m.move(-1)
			return m, nil

		case "down", "j":
			m.move(1)
			return m, nil

		case "enter":
			if m.loading {
				return m, nil
			}
			return m, m.choose(m.cursor)
		}

		if m.toggle != nil && key == m.toggle.Key {
			m.toggle.On = !m.toggle.On
			return m, nil
		}
		for i, it := range m.items {
			if it.Key != "" && it.Key == key {
				return m, m.choose(i)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case ItemsMsg:
		m.loading = false
		m.items = msg.Items
		m.cursor = m.firstEnabled()
		return m, nil

	case LoadErrorMsg:
		m.loading = false
		m.loadErr = msg.Err
		m.selection = Selection{Aborted: true}
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(infoStyle.Render(m.loadingNote))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("q:quit"))
		return b.String()
	}

	if len(m.items) == 0 {
		b.WriteString(warningStyle.Render("Nothing found."))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("q:quit"))
		return b.String()
	}

	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		label := it.Title
		if it.Key != "" {
			label = fmt.Sprintf("[%s] %s", it.Key, it.Title)
		}

		switch {
		case it.Disabled:
			line := dimStyle.Render(label)
			if it.DisabledNote != "" {
				line += "  " + warningStyle.Render("("+it.DisabledNote+")")
			}
			b.WriteString(cursor + line)
		case i == m.cursor:
			b.WriteString(cursor + highlightStyle.Render(label))
		default:
			b.WriteString(cursor + label)
		}

		if it.Desc != "" && !it.Disabled {
			b.WriteString("  " + infoStyle.Render(it.Desc))
		}
		b.WriteString("\n")
	}

	if m.toggle != nil {
		state := dimStyle.Render("off")
		if m.toggle.On {
			state = highlightStyle.Render("on")
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  [%s] %s: %s\n", m.toggle.Key, m.toggle.Label, state))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓:move • enter:select • q:back"))
	return b.String()
}
