package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wolfbiker1/autostash/internal/store"
)

// layout recomputes widget dimensions after a window resize. The left
// pane (the version list) takes a third of the width; the right pane (the
// content viewport) takes the rest, both shrunk to leave room for the tab
// strip and the status line.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentHeight := m.height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}
	leftWidth := m.width / 3
	rightWidth := m.width - leftWidth - 4

	m.list.SetSize(leftWidth, contentHeight)
	m.viewport.Width = rightWidth
	m.viewport.Height = contentHeight
	m.refreshViewport()
}

// View renders three tiers: the time-frame tab strip, the list/content
// split, and the status/help footer.
func (m Model) View() string {
	tabs := renderTabs(m.timeFrame)

	left := paneStyle.Width(m.list.Width()).Height(m.list.Height()).Render(m.list.View())
	right := paneStyle.Width(m.viewport.Width).Height(m.viewport.Height).Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	summary := fmt.Sprintf("%d files, %d changes", m.stats.Entries, m.stats.TotalLogLen)
	if m.stats.DegradedViews > 0 {
		summary += fmt.Sprintf(", %d degraded views", m.stats.DegradedViews)
	}
	footer := statusStyle.Render(m.status + "  |  " + summary + "  |  q: quit  ←/→: time frame  ↑/↓: select  u: undo  r: redo")

	return lipgloss.JoinVertical(lipgloss.Left, tabs, body, footer)
}

func renderTabs(active store.TimeFrame) string {
	labels := []store.TimeFrame{store.LastHour, store.LastDay, store.LastWeek}
	rendered := make([]string, 0, len(labels))
	for _, tf := range labels {
		if tf == active {
			rendered = append(rendered, tabActiveStyle.Render(tf.String()))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tf.String()))
		}
	}
	return strings.Join(rendered, " ")
}
