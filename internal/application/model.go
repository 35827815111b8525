// Package application is the interactive terminal menu for datops.
package application

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/datops/internal/core"
)

// Model is the bubbletea model behind the menu.
type Model struct {
	svc    *core.Service
	dir    string
	output core.OutputOptions
	input  core.InputOptions

	root    *Menu
	current *Menu
	cursor  int
	busy    bool
	status  string
}

// NewModel builds the menu for the DAT files in dir.
func NewModel(svc *core.Service, dir string, output core.OutputOptions, input core.InputOptions) *Model {
	m := &Model{svc: svc, dir: dir, output: output, input: input}
	m.root = buildMenuTree(m)
	m.current = m.root
	return m
}

// Run starts the menu and blocks until the user quits.
func Run(svc *core.Service, dir string, output core.OutputOptions, input core.InputOptions) error {
	_, err := tea.NewProgram(NewModel(svc, dir, output, input)).Run()
	return err
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case WdMsg:
		m.status = string(msg)
	case DoneMsg:
		m.busy = false
		m.status = "✓ " + string(msg)
	case ErrMsg:
		m.busy = false
		m.status = "✗ " + core.FormatUserError(msg.Err) + "\n  " + msg.Err.Error()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.current.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.current.Parent != nil {
			m.current = m.current.Parent
			m.cursor = 0
		}
	case "enter", " ":
		return m.selectItem()
	}
	return m, nil
}

func (m *Model) selectItem() (tea.Model, tea.Cmd) {
	if m.busy || len(m.current.Items) == 0 {
		return m, nil
	}
	item := m.current.Items[m.cursor]

	switch {
	case item.Submenu != nil:
		m.current = item.Submenu
		m.cursor = 0
	case item.Label == backLabel:
		// Back on the root menu has no parent
	case item.Action != nil:
		m.busy = true
		m.status = "working: " + item.Label + "..."
		return m, item.Action()
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.current.Title)
	for i, item := range m.current.Items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, item.Label)
	}
	if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}
	b.WriteString("\n↑/↓ move • enter select • esc back • q quit\n")
	return b.String()
}
