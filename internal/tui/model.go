// Package tui implements the tracker watch dashboard: a terminal view over
// the station working copy with live reconciliation, filter hotkeys, and
// optimistic flag updates.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dearxcorex/MakeItFast/internal/geo"
	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
)

// Config holds everything the dashboard needs. The theme is explicit
// configuration, not a package global, so hosts can restyle the dashboard
// per invocation.
type Config struct {
	Store         *tracker.Store
	ReconcileMode string // "live" or "polling", shown in the status bar
	Theme         Theme
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	store *tracker.Store
	mode  string
	theme Theme

	width  int
	height int

	search    textinput.Model
	searching bool

	cursor  int
	offset  int
	grouped bool

	visible   []*station.Station
	groups    []tracker.CoordinateGroup
	distances map[int64]float64

	status string
}

// New creates the dashboard model over a loaded store.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "name, city, frequency, #tag..."
	ti.CharLimit = 100
	ti.Width = 40

	m := Model{
		store:  cfg.Store,
		mode:   cfg.ReconcileMode,
		theme:  cfg.Theme,
		search: ti,
	}
	m.refresh()
	return m
}

// Init starts the store listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.store), waitForOutcome(m.store))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, waitForChange(m.store)

	case outcomeMsg:
		m.status = outcomeLine(tracker.UpdateOutcome(msg))
		return m, waitForOutcome(m.store)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes one key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
		return m, nil

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "g":
		m.grouped = !m.grouped
		m.cursor = 0
		m.offset = 0
		return m, nil

	case "1":
		m.setFilter(cycleOnAir(m.store.Filter()))
		return m, nil

	case "2":
		m.setFilter(cycleInspection(m.store.Filter()))
		return m, nil

	case "3":
		m.setFilter(toggleNotSubmitted(m.store.Filter()))
		return m, nil

	case "c":
		m.search.SetValue("")
		m.store.ResetFilter()
		return m, nil

	case "o":
		return m.updateSelected(func(st *station.Station) station.Patch {
			v := !st.OnAir
			return station.Patch{OnAir: &v}
		})

	case "i":
		return m.updateSelected(func(st *station.Station) station.Patch {
			v := station.InspectionInspected
			if st.Inspection.Inspected() {
				v = station.InspectionNotInspected
			}
			return station.Patch{Inspection: &v}
		})

	case "t":
		return m.updateSelected(func(st *station.Station) station.Patch {
			v := nextDetailTag(st.Details)
			return station.Patch{Details: &v}
		})

	case "u":
		return m.updateSelected(func(st *station.Station) station.Patch {
			v := !st.Unwanted
			return station.Patch{Unwanted: &v}
		})

	case "s":
		return m.updateSelected(func(st *station.Station) station.Patch {
			v := nextSubmitDecision(st.SubmitRequest)
			return station.Patch{SubmitRequest: &v}
		})

	case "d":
		if st := m.selected(); st != nil {
			link, err := geo.DirectionsURL(st.Latitude, st.Longitude)
			if err != nil {
				m.status = "directions: " + err.Error()
			} else {
				m.status = link
			}
		}
		return m, nil
	}

	return m, nil
}

// handleSearchKey routes keys while the search input is focused. The
// filter tracks every keystroke, so the list narrows as the operator types.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applySearch("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch(m.search.Value())
	return m, cmd
}

// applySearch installs the search query into the store filter.
func (m *Model) applySearch(query string) {
	f := m.store.Filter()
	f.Search = query
	m.store.SetFilter(f)
}

func (m *Model) setFilter(f tracker.FilterState) {
	m.store.SetFilter(f)
}

// updateSelected applies an optimistic patch to the station under the
// cursor. The store mutates synchronously; the verdict arrives later as an
// outcomeMsg.
func (m Model) updateSelected(build func(*station.Station) station.Patch) (tea.Model, tea.Cmd) {
	st := m.selected()
	if st == nil {
		return m, nil
	}

	if err := m.store.Update(context.Background(), st.ID, build(st)); err != nil {
		m.status = err.Error()
	}
	return m, nil
}

// selected returns the station under the cursor, or the representative of
// the selected group in grouped view.
func (m Model) selected() *station.Station {
	if m.grouped {
		if m.cursor < len(m.groups) {
			return m.groups[m.cursor].Stations[0]
		}
		return nil
	}
	if m.cursor < len(m.visible) {
		return m.visible[m.cursor]
	}
	return nil
}

// refresh re-reads the visible set from the store and clamps the cursor.
func (m *Model) refresh() {
	m.visible = m.store.Stations()
	m.groups = tracker.GroupByCoordinate(m.visible)
	m.distances = m.store.Distances()

	if count := m.rowCount(); m.cursor >= count && count > 0 {
		m.cursor = count - 1
	} else if count == 0 {
		m.cursor = 0
	}
}

func (m Model) rowCount() int {
	if m.grouped {
		return len(m.groups)
	}
	return len(m.visible)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.viewTitle())
	sections = append(sections, m.viewFilters())
	sections = append(sections, "")
	if m.grouped {
		sections = append(sections, m.viewGroups())
	} else {
		sections = append(sections, m.viewStations())
	}
	sections = append(sections, "")
	sections = append(sections, m.viewStatus())
	sections = append(sections, m.viewHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewTitle() string {
	title := m.theme.Title.Render("MakeItFast tracker")
	counts := m.theme.Muted.Render(fmt.Sprintf("%d/%d stations · reconcile: %s",
		len(m.visible), m.store.Total(), m.mode))
	return title + "  " + counts
}

func (m Model) viewFilters() string {
	f := m.store.Filter()

	var parts []string
	if f.Province != "" {
		parts = append(parts, "province="+f.Province)
	}
	if f.City != "" {
		parts = append(parts, "city="+f.City)
	}
	if f.OnAir != nil {
		parts = append(parts, fmt.Sprintf("on-air=%t", *f.OnAir))
	}
	if f.Inspection != nil {
		parts = append(parts, "inspection="+string(*f.Inspection))
	}
	if f.SubmitRequest != nil {
		parts = append(parts, "submit="+string(*f.SubmitRequest))
	}

	line := "filters: "
	if len(parts) == 0 {
		line += "none"
	} else {
		line += strings.Join(parts, " ")
	}

	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = m.theme.Muted.Render("(/ to search)")
	}

	return m.theme.Muted.Render(line) + "  " + search
}

// viewStations renders the station table, windowed around the cursor.
func (m Model) viewStations() string {
	if len(m.visible) == 0 {
		return m.theme.Muted.Render("  no stations match")
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Render(fmt.Sprintf("   %-8s %-7s %-28s %-16s %-14s %s",
		"ID", "MHZ", "NAME", "CITY", "STATUS", "KM")))
	b.WriteString("\n")

	start, end := m.window(len(m.visible))
	for i := start; i < end; i++ {
		st := m.visible[i]

		km := ""
		if m.distances != nil {
			km = fmt.Sprintf("%.1f", m.distances[st.ID])
		}
		status := string(st.Marker())
		if st.Details != "" {
			status += " " + st.Details
		}

		glyph := m.theme.markerStyle(st.Marker()).Render(markerGlyph(st.Marker()))
		row := fmt.Sprintf("%-8d %-7s %-28s %-16s %-14s %s",
			st.ID, tracker.FormatFrequency(st.Frequency), truncate(st.Name, 28),
			truncate(st.City, 16), status, km)

		if i == m.cursor {
			b.WriteString(glyph + " " + m.theme.Selected.Render(row))
		} else {
			b.WriteString(glyph + " " + m.theme.Row.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// viewGroups renders the clustered map-position view.
func (m Model) viewGroups() string {
	if len(m.groups) == 0 {
		return m.theme.Muted.Render("  no stations match")
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Render(fmt.Sprintf("   %-26s %-6s %s", "POSITION", "COUNT", "STATIONS")))
	b.WriteString("\n")

	start, end := m.window(len(m.groups))
	for i := start; i < end; i++ {
		g := m.groups[i]

		names := make([]string, 0, len(g.Stations))
		for _, st := range g.Stations {
			names = append(names, st.Name)
		}

		glyph := m.theme.markerStyle(g.Marker()).Render(markerGlyph(g.Marker()))
		row := fmt.Sprintf("%-26s %-6d %s", g.Key, len(g.Stations), truncate(strings.Join(names, ", "), 50))

		if i == m.cursor {
			b.WriteString(glyph + " " + m.theme.Selected.Render(row))
		} else {
			b.WriteString(glyph + " " + m.theme.Row.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if strings.Contains(m.status, "error") || strings.Contains(m.status, "rejected") {
		return m.theme.Error.Render(m.status)
	}
	return m.theme.StatusBar.Render(m.status)
}

func (m Model) viewHelp() string {
	return m.theme.Help.Render(
		"o: on-air · i: inspection · t: tag · u: unwanted · s: submit · d: directions\n" +
			"1/2/3: cycle filters · c: clear · /: search · g: groups · q: quit")
}

// window returns the visible row range, keeping the cursor in view.
func (m Model) window(total int) (int, int) {
	rows := m.height - 8
	if rows < 3 {
		rows = 3
	}
	if total <= rows {
		return 0, total
	}

	start := m.cursor - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > total {
		start = total - rows
	}
	return start, start + rows
}

// outcomeLine renders one update verdict for the status bar.
func outcomeLine(o tracker.UpdateOutcome) string {
	switch o.State {
	case tracker.UpdateConfirmed:
		return fmt.Sprintf("station %d: confirmed", o.StationID)
	case tracker.UpdateRejected:
		if o.RolledBack {
			return fmt.Sprintf("station %d: rejected, rolled back", o.StationID)
		}
		return fmt.Sprintf("station %d: rejected, keeping local value", o.StationID)
	case tracker.UpdateNetworkError:
		if o.RolledBack {
			return fmt.Sprintf("station %d: network error, rolled back", o.StationID)
		}
		return fmt.Sprintf("station %d: network error, keeping local value", o.StationID)
	case tracker.UpdateSuperseded:
		return fmt.Sprintf("station %d: superseded by a newer change", o.StationID)
	}
	return ""
}

// cycleOnAir steps the on-air filter through unset, on, off.
func cycleOnAir(f tracker.FilterState) tracker.FilterState {
	switch {
	case f.OnAir == nil:
		v := true
		f.OnAir = &v
	case *f.OnAir:
		v := false
		f.OnAir = &v
	default:
		f.OnAir = nil
	}
	return f
}

// cycleInspection steps the inspection filter through unset, inspected,
// not inspected.
func cycleInspection(f tracker.FilterState) tracker.FilterState {
	switch {
	case f.Inspection == nil:
		v := station.InspectionInspected
		f.Inspection = &v
	case *f.Inspection == station.InspectionInspected:
		v := station.InspectionNotInspected
		f.Inspection = &v
	default:
		f.Inspection = nil
	}
	return f
}

// toggleNotSubmitted flips the one-sided submit filter.
func toggleNotSubmitted(f tracker.FilterState) tracker.FilterState {
	if f.SubmitRequest == nil {
		v := station.SubmitNotSubmitted
		f.SubmitRequest = &v
	} else {
		f.SubmitRequest = nil
	}
	return f
}

// nextDetailTag cycles through no tag and each recognized annotation.
func nextDetailTag(current string) string {
	if current == "" {
		return station.DetailTags[0]
	}
	for i, tag := range station.DetailTags {
		if tag == current {
			if i == len(station.DetailTags)-1 {
				return ""
			}
			return station.DetailTags[i+1]
		}
	}
	return ""
}

// nextSubmitDecision cycles undecided, submitted, not submitted.
func nextSubmitDecision(current station.SubmitDecision) station.SubmitDecision {
	switch current {
	case station.SubmitUndecided:
		return station.SubmitSubmitted
	case station.SubmitSubmitted:
		return station.SubmitNotSubmitted
	default:
		return station.SubmitUndecided
	}
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
