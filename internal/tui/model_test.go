package tui_test

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
	"github.com/dearxcorex/MakeItFast/internal/tui"
)

// echoBoundary confirms every patch immediately with the patched record.
type echoBoundary struct {
	stations map[int64]*station.Station
}

func (e *echoBoundary) List(_ context.Context) ([]*station.Station, error) {
	out := make([]*station.Station, 0, len(e.stations))
	for _, st := range e.stations {
		out = append(out, st.Clone())
	}
	return out, nil
}

func (e *echoBoundary) Patch(_ context.Context, id int64, patch station.Patch) (*station.Station, error) {
	st := e.stations[id].Clone()
	if patch.OnAir != nil {
		st.OnAir = *patch.OnAir
	}
	if patch.Inspection != nil {
		st.Inspection = *patch.Inspection
	}
	if patch.Details != nil {
		st.Details = *patch.Details
	}
	e.stations[id] = st
	return st.Clone(), nil
}

func newTestModel(t *testing.T) (tui.Model, *tracker.Store) {
	t.Helper()

	boundary := &echoBoundary{stations: map[int64]*station.Station{
		1: {ID: 1, Name: "Banana FM", Frequency: 99.25, Latitude: 13.75, Longitude: 100.5, City: "Mueang", Province: "Bangkok", OnAir: true, Inspection: station.InspectionNotInspected},
		2: {ID: 2, Name: "Coconut Radio", Frequency: 101.0, Latitude: 14.98, Longitude: 102.1, City: "Pak Chong", Province: "Nakhon Ratchasima", OnAir: false, Inspection: station.InspectionInspected},
	}}

	store := tracker.NewStore(tracker.StoreConfig{
		Boundary: boundary,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, store.Load(context.Background()))

	model := tui.New(tui.Config{
		Store:         store,
		ReconcileMode: "polling",
		Theme:         tui.DefaultTheme(),
	})

	resized, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return resized.(tui.Model), store
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewRendersStations(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, "Banana FM")
	assert.Contains(t, view, "Coconut Radio")
	assert.Contains(t, view, "reconcile: polling")
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestOnAirFilterCycles(t *testing.T) {
	m, store := newTestModel(t)

	next, _ := m.Update(key("1"))
	m = next.(tui.Model)
	require.NotNil(t, store.Filter().OnAir)
	assert.True(t, *store.Filter().OnAir)

	next, _ = m.Update(key("1"))
	m = next.(tui.Model)
	require.NotNil(t, store.Filter().OnAir)
	assert.False(t, *store.Filter().OnAir)

	next, _ = m.Update(key("1"))
	_ = next
	assert.Nil(t, store.Filter().OnAir)
}

func TestNotSubmittedFilterToggles(t *testing.T) {
	m, store := newTestModel(t)

	next, _ := m.Update(key("3"))
	m = next.(tui.Model)
	require.NotNil(t, store.Filter().SubmitRequest)
	assert.Equal(t, station.SubmitNotSubmitted, *store.Filter().SubmitRequest)

	next, _ = m.Update(key("3"))
	_ = next
	assert.Nil(t, store.Filter().SubmitRequest)
}

func TestSearchKeystrokesNarrowFilter(t *testing.T) {
	m, store := newTestModel(t)

	next, _ := m.Update(key("/"))
	m = next.(tui.Model)

	for _, r := range "coconut" {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(tui.Model)
	}

	assert.Equal(t, "coconut", store.Filter().Search)

	// Esc leaves search mode and clears the query.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_ = next
	assert.Empty(t, store.Filter().Search)
}

func TestToggleOnAirIsOptimistic(t *testing.T) {
	m, store := newTestModel(t)

	// Cursor starts on the first row in name order: Banana FM, on air.
	next, _ := m.Update(key("o"))
	_ = next

	got := store.Get(1)
	require.NotNil(t, got)
	assert.False(t, got.OnAir, "local working copy should flip before any verdict")
}

func TestClearFiltersResetsEverything(t *testing.T) {
	m, store := newTestModel(t)

	next, _ := m.Update(key("1"))
	m = next.(tui.Model)
	next, _ = m.Update(key("3"))
	m = next.(tui.Model)
	require.True(t, store.Filter().Active())

	next, _ = m.Update(key("c"))
	_ = next
	assert.False(t, store.Filter().Active())
}

func TestGroupedViewRendersPositions(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(key("g"))
	m = next.(tui.Model)

	view := m.View()
	assert.Contains(t, view, "POSITION")
	assert.True(t, strings.Contains(view, "13.75,100.5"), "group key should render")
}
