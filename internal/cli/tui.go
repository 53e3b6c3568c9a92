package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/fsmflow/pkg/controller"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Messages
// =============================================================================

type snapshotMsg controller.Snapshot

type actionErrMsg struct{ err error }

// doneMsg ends an action that produced no error; the snapshot arrives
// through the subscription.
type doneMsg struct{}

// =============================================================================
// BrowseModel - Interactive machine browser
// =============================================================================

// BrowseModel is the bubbletea model behind `fsmflow browse`. It renders
// controller snapshots and turns keys into controller calls.
type BrowseModel struct {
	ctx   context.Context
	view  *controller.Controller
	snaps <-chan controller.Snapshot

	Snap   controller.Snapshot
	Cursor int
	Err    string // Last failed action
	Width  int
}

// NewBrowseModel subscribes to view. The subscription ends when the
// program exits and the caller unsubscribes.
func NewBrowseModel(ctx context.Context, view *controller.Controller, snaps <-chan controller.Snapshot) BrowseModel {
	return BrowseModel{ctx: ctx, view: view, snaps: snaps, Snap: view.Snapshot(), Width: 100}
}

func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForSnapshot(m.snaps))
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.Snap = controller.Snapshot(msg)
		m.syncCursor()
		return m, waitForSnapshot(m.snaps)

	case actionErrMsg:
		m.Err = errors.UserMessage(msg.err)
		return m, nil

	case doneMsg:
		m.Err = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.Snap.State == controller.Failed {
				return m, m.load()
			}
		}
		if m.Snap.State != controller.Ready || len(m.Snap.Machines) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				return m, m.selectCursor()
			}
		case "down", "j":
			if m.Cursor < len(m.Snap.Machines)-1 {
				m.Cursor++
				return m, m.selectCursor()
			}
		case "enter":
			return m, m.selectCursor()
		case "d":
			return m, m.action(func(ctx context.Context) error { return m.view.ToggleDirection(ctx) })
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("fsmflow"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  d toggle direction  q quit"))
	b.WriteString("\n\n")

	switch m.Snap.State {
	case controller.Loading:
		b.WriteString(listDimStyle.Render("Loading machines..."))
		b.WriteString("\n")
		return b.String()
	case controller.Failed:
		b.WriteString(StyleError.Render("Failed to load machines: " + m.Snap.Err))
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render("r retry  q quit"))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.Snap.Machines) == 0 {
		b.WriteString(listDimStyle.Render("No machines"))
		b.WriteString("\n")
		return b.String()
	}

	list := m.renderList()
	detail := m.renderDetail()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(list), " ", panelStyle.Render(detail)))
	b.WriteString("\n")
	if m.Err != "" {
		b.WriteString(StyleError.Render(iconError + " " + m.Err))
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) renderList() string {
	var b strings.Builder
	for i, mach := range m.Snap.Machines {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-12s %s", cursor, mach.ID, listDimStyle.Render(mach.Direction.String()))
		if mach.ID == m.Snap.Selected {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		if i < len(m.Snap.Machines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m BrowseModel) renderDetail() string {
	s := m.Snap
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(s.Selected))
	b.WriteString(listDimStyle.Render(" · " + s.Direction.String()))
	b.WriteString("\n")

	if s.LayoutError != "" {
		b.WriteString(StyleError.Render("Layout failed: " + s.LayoutError))
		return b.String()
	}
	if s.Flow == nil {
		b.WriteString(listDimStyle.Render("No layout"))
		return b.String()
	}

	b.WriteString(statsLine(s.Stats, s.Kind, s.CacheHit))
	b.WriteString("\n\n")
	b.WriteString(renderTable([]string{"State", "X", "Y", "Out", "In"}, positionRows(*s.Flow)))
	b.WriteString("\n")
	for _, e := range s.Flow.Edges {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%s %s %s  %s", e.Source, iconArrow, e.Target, e.Label)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func positionRows(f graph.Flow) [][]string {
	rows := make([][]string, len(f.Nodes))
	for i, n := range f.Nodes {
		rows[i] = []string{
			n.Data.Label,
			fmt.Sprintf("%.0f", n.Position.X),
			fmt.Sprintf("%.0f", n.Position.Y),
			string(n.SourcePosition),
			string(n.TargetPosition),
		}
	}
	return rows
}

// syncCursor keeps the cursor on the selected machine.
func (m *BrowseModel) syncCursor() {
	for i, mach := range m.Snap.Machines {
		if mach.ID == m.Snap.Selected {
			m.Cursor = i
			return
		}
	}
	if m.Cursor >= len(m.Snap.Machines) {
		m.Cursor = 0
	}
}

// =============================================================================
// Commands
// =============================================================================

func (m BrowseModel) load() tea.Cmd {
	return m.action(m.view.Load)
}

func (m BrowseModel) selectCursor() tea.Cmd {
	id := m.Snap.Machines[m.Cursor].ID
	return m.action(func(ctx context.Context) error { return m.view.Select(ctx, id) })
}

func (m BrowseModel) action(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return actionErrMsg{err: err}
		}
		return doneMsg{}
	}
}

func waitForSnapshot(ch <-chan controller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}
