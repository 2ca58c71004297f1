package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/module"
	"github.com/wippyai/slang/resolver"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func getCmdBrowse(gs *globalState) *cobra.Command {
	browseCmd := &cobra.Command{
		Use:   "browse MODULE",
		Short: "Explore the tables of a compiled module interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gs.isTTY || !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.Unsupported(errors.PhaseConfig, "browse needs an interactive terminal")
			}
			p := tea.NewProgram(newBrowseModel(args[0], gs.loadModule), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
	return browseCmd
}

// entry is one row of the browser: an import, export or constant.
type entry struct {
	section string
	name    string
	detail  string
}

func (e entry) matches(filter string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	return strings.Contains(strings.ToLower(e.name), filter) ||
		strings.Contains(strings.ToLower(e.section), filter)
}

// entryRecorder collects table rows in the order the resolver reports them.
type entryRecorder struct {
	entries []entry
}

func (r *entryRecorder) Section(string) {}

func (r *entryRecorder) Export(_ int, s module.ExportedSymbol) {
	r.entries = append(r.entries, entry{section: "export " + s.Type.String(), name: s.Name, detail: describeExport(&s)})
}

func (r *entryRecorder) Constant(i int, c module.Constant) {
	r.entries = append(r.entries, entry{section: "constant", name: fmt.Sprintf("#%d", i), detail: " " + c.String()})
}

func (r *entryRecorder) Import(_ int, s module.ImportedSymbol) {
	r.entries = append(r.entries, entry{section: "import " + s.Type.String(), name: s.Name})
}

type loadFunc func(arg string, opts ...resolver.Option) (*resolver.Resolver, error)

type browseState int

const (
	stateList browseState = iota
	stateDetail
)

type browseModel struct {
	err      error
	load     loadFunc
	filter   textinput.Model
	arg      string
	path     string
	entries  []entry
	visible  []int
	selected int
	state    browseState
	loaded   bool
}

type loadedMsg struct {
	err     error
	path    string
	entries []entry
}

func newBrowseModel(arg string, load loadFunc) *browseModel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "name or table"
	ti.Width = 40
	ti.Focus()
	return &browseModel{arg: arg, load: load, filter: ti, state: stateList}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadModule
}

func (m *browseModel) loadModule() tea.Msg {
	rec := &entryRecorder{}
	r, err := m.load(m.arg, resolver.WithRecorder(rec))
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{path: r.Path(), entries: rec.entries}
}

func (m *browseModel) applyFilter() {
	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if e.matches(m.filter.Value()) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateList && len(m.visible) > 0 {
				m.state = stateDetail
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
				return m, nil
			}
			return m, tea.Quit
		}

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.path = msg.path
		m.entries = msg.entries
		m.applyFilter()
		return m, nil
	}

	if m.state != stateList {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browseModel) current() (entry, bool) {
	if m.selected >= len(m.visible) {
		return entry{}, false
	}
	return m.entries[m.visible[m.selected]], true
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}
	if !m.loaded {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Module"))
	b.WriteString(" ")
	b.WriteString(m.path)
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, idx := range m.visible {
			e := m.entries[idx]
			line := fmt.Sprintf("%-16s %s", e.section, nameStyle.Render(e.name))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("  no matches"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter details • esc quit"))

	case stateDetail:
		if e, ok := m.current(); ok {
			fmt.Fprintf(&b, "%s %s\n", e.section, nameStyle.Render(e.name))
			if e.detail != "" {
				b.WriteString(typeStyle.Render(strings.TrimSpace(e.detail)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • ctrl+c quit"))
	}

	return b.String()
}
