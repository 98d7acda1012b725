package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dearxcorex/MakeItFast/internal/tracker"
)

// storeChangedMsg is sent whenever the working copy changes for any
// reason: a local optimistic update, a reconcile, a filter change, or a
// new position fix.
type storeChangedMsg struct{}

// outcomeMsg carries the server verdict on one optimistic update.
type outcomeMsg tracker.UpdateOutcome

// waitForChange blocks on the store's coalescing change channel.
func waitForChange(store *tracker.Store) tea.Cmd {
	return func() tea.Msg {
		<-store.Changes()
		return storeChangedMsg{}
	}
}

// waitForOutcome blocks on the next update outcome.
func waitForOutcome(store *tracker.Store) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(<-store.Outcomes())
	}
}
