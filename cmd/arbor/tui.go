package main

import (
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/arbor"
	"github.com/vango-dev/arbor/internal/demo"
	"github.com/vango-dev/arbor/pkg/host/memory"
	"github.com/vango-dev/arbor/pkg/host/term"
	"github.com/vango-dev/arbor/pkg/schedule"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func tuiCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [demo]",
		Short: "Run a demo in the terminal",
		Long: `Mount a demo application on the memory host and render it as
terminal text. Tab moves focus between clickable elements and enter
clicks the focused one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load()
			if err != nil {
				return err
			}
			a, err := app(cfg, args)
			if err != nil {
				return err
			}

			// the terminal belongs to the program; logs would corrupt it
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			m, err := newTUIModel(a, logger)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// tuiModel drives a demo mounted on a memory document with a manual driver.
// Every key press runs the driver to idle before the next View.
type tuiModel struct {
	name   string
	handle *arbor.Handle
	driver *schedule.Manual
	target *memory.Node

	focus int // node ID
	width int
	err   error
}

func newTUIModel(a demo.App, logger *slog.Logger) (*tuiModel, error) {
	doc := memory.NewDocument()
	target := doc.CreateLeaf("body").(*memory.Node)
	driver := schedule.NewManual()
	store := arbor.NewStore()

	m := &tuiModel{
		name:   a.Name,
		driver: driver,
		target: target,
		width:  40,
	}
	m.handle = arbor.Mount(a.New(store), doc, target,
		arbor.WithDriver(driver),
		arbor.WithStore(store),
		arbor.WithLogger(logger),
	)
	if err := m.settle(); err != nil {
		return nil, err
	}
	return m, nil
}

// settle runs queued turns and keeps focus on a node that still exists.
func (m *tuiModel) settle() error {
	if err := m.driver.Run(); err != nil {
		return err
	}
	if err := m.handle.Err(); err != nil {
		return err
	}

	nodes := term.Focusable(m.target)
	for _, n := range nodes {
		if n.ID == m.focus {
			return nil
		}
	}
	m.focus = 0
	if len(nodes) > 0 {
		m.focus = nodes[0].ID
	}
	return nil
}

// move shifts focus by delta, wrapping around.
func (m *tuiModel) move(delta int) {
	nodes := term.Focusable(m.target)
	if len(nodes) == 0 {
		return
	}
	idx := 0
	for i, n := range nodes {
		if n.ID == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(nodes)) % len(nodes)
	m.focus = nodes[idx].ID
}

// click invokes the focused node's click handler.
func (m *tuiModel) click() {
	n := m.target.Find(func(n *memory.Node) bool { return n.ID == m.focus })
	if n == nil {
		return
	}
	switch fn := n.Handler("click").(type) {
	case func():
		fn()
	case func(string):
		fn("")
	}
	m.err = m.settle()
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.handle.Unmount()
			return m, tea.Quit

		case "tab", "right", "down", "j":
			m.move(1)

		case "shift+tab", "left", "up", "k":
			m.move(-1)

		case "enter", " ":
			m.click()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("arbor · " + m.name))
	b.WriteString("\n\n")
	b.WriteString(term.New(term.WithFocus(m.focus), term.WithWidth(m.width)).Render(m.target))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab: next • shift+tab: previous • enter: click • q: quit"))
	b.WriteString("\n")
	return b.String()
}
