package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wolfbiker1/autostash/internal/handler"
	"github.com/wolfbiker1/autostash/internal/store"
)

// Update routes Bubble Tea messages: window resizes reflow the layout,
// viewMsg snapshots refresh the list and content pane, and key presses
// implement the keyboard contract exactly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case viewMsg:
		if !msg.ok {
			// Handler shut down the views channel; nothing more to show.
			return m, nil
		}
		m.applySnapshot(msg.snapshot)
		return m, waitForView(m.intents.Views)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applySnapshot replaces the list items with one entry per registered path
// (labelling empty/deleted files from the paths list, since their
// FileVersion is nil) and, if the selected path is still present, refreshes
// the content viewport to match. The snapshot's time frame overwrites the
// locally tracked one so the tab strip never drifts from the Store.
func (m *Model) applySnapshot(s store.Snapshot) {
	m.versions = s.Versions
	m.timeFrame = s.TimeFrame
	m.stats = s.Stats
	selected := m.selectedPath()

	present := make(map[string]bool, len(s.Versions))
	for _, v := range s.Versions {
		if v != nil {
			present[v.Path] = true
		}
	}
	items := make([]list.Item, 0, len(s.Paths))
	for _, path := range s.Paths {
		items = append(items, pathItem{path: path, present: present[path]})
	}
	m.list.SetItems(items)

	if selected != "" {
		m.selectPath(selected)
	}
	m.refreshViewport()
}

func (m *Model) selectedPath() string {
	if item, ok := m.list.SelectedItem().(pathItem); ok {
		return item.path
	}
	return ""
}

func (m *Model) selectPath(path string) {
	for i, it := range m.list.Items() {
		if p, ok := it.(pathItem); ok && p.path == path {
			m.list.Select(i)
			return
		}
	}
}

func (m *Model) refreshViewport() {
	path := m.selectedPath()
	for _, v := range m.versions {
		if v != nil && v.Path == path {
			m.viewport.SetContent(joinLines(v.Lines))
			return
		}
	}
	m.viewport.SetContent("")
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "left":
		m.timeFrame = prevTimeFrame(m.timeFrame)
		m.intents.TimeFrameChanges <- m.timeFrame
		m.status = "Time frame: " + m.timeFrame.String()
		return m, nil

	case "right":
		m.timeFrame = m.timeFrame.Next()
		m.intents.TimeFrameChanges <- m.timeFrame
		m.status = "Time frame: " + m.timeFrame.String()
		return m, nil

	case "up", "down":
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		m.refreshViewport()
		return m, cmd

	case "u":
		if path := m.selectedPath(); path != "" {
			m.intents.UndoRequests <- handler.UndoRequest{Path: path, N: 1}
			m.status = "Undo: " + path
		}
		return m, nil

	case "r":
		if path := m.selectedPath(); path != "" {
			m.intents.RedoRequests <- handler.RedoRequest{Path: path, N: 1}
			m.status = "Redo: " + path
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// prevTimeFrame is Next's inverse for the LastHour<-LastDay<-LastWeek<-
// wrap direction that ← is meant to cycle in.
func prevTimeFrame(tf store.TimeFrame) store.TimeFrame {
	switch tf {
	case store.LastHour:
		return store.LastWeek
	case store.LastDay:
		return store.LastHour
	default:
		return store.LastDay
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
