// Package tui implements the terminal UI consumer: a pure consumer of
// store.Snapshot values that produces undo/redo/time-frame/quit intents on
// plain Go channels. It holds no domain state beyond the last snapshot it
// received — the UI owns only the snapshot handed to it.
//
// Built on Bubble Tea for the Elm-style Model/Update/View loop,
// bubbles/list and bubbles/viewport for the version list and content
// pane, and lipgloss for styling.
package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wolfbiker1/autostash/internal/handler"
	"github.com/wolfbiker1/autostash/internal/store"
)

// Intents bundles the channels the UI needs: one to receive refreshed
// views, and three to send user intents to the Event Handler.
type Intents struct {
	Views            <-chan store.Snapshot
	UndoRequests     chan<- handler.UndoRequest
	RedoRequests     chan<- handler.RedoRequest
	TimeFrameChanges chan<- store.TimeFrame
}

// pathItem adapts a registered path to bubbles/list's list.Item interface.
type pathItem struct {
	path    string
	present bool
}

func (p pathItem) Title() string {
	if p.present {
		return p.path
	}
	return p.path + " (empty/deleted)"
}
func (p pathItem) Description() string { return "" }
func (p pathItem) FilterValue() string { return p.path }

// Model is the Bubble Tea model for AutoStash's browse/undo/redo UI.
type Model struct {
	intents Intents

	timeFrame store.TimeFrame
	versions  []*store.FileVersion
	stats     store.Stats

	list     list.Model
	viewport viewport.Model

	width, height int
	status        string
}

// New constructs the initial Model. It does not block; the first view is
// picked up on the first viewMsg delivered by waitForView.
func New(intents Intents) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Tracked files"
	l.SetShowHelp(false)

	return Model{
		intents:   intents,
		timeFrame: store.LastDay,
		list:      l,
		viewport:  viewport.New(0, 0),
		status:    "Waiting for the first change…",
	}
}

// Init starts the background view-listener.
func (m Model) Init() tea.Cmd {
	return waitForView(m.intents.Views)
}
