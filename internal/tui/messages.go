package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wolfbiker1/autostash/internal/store"
)

// viewMsg carries one refreshed snapshot from the Event Handler.
type viewMsg struct {
	snapshot store.Snapshot
	ok       bool
}

// waitForView returns a Cmd that blocks on the views channel and wraps the
// next snapshot (or channel-closed signal) as a viewMsg. The Update
// handler re-issues this Cmd after every delivery so the listener never
// stops.
func waitForView(views <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-views
		return viewMsg{snapshot: v, ok: ok}
	}
}
