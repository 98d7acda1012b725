// Package tracker implements the client-side working copy of the station
// collection: filtering, distance sorting, coordinate grouping, and the
// optimistic update flow against the remote API.
package tracker

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dearxcorex/MakeItFast/internal/geo"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

// UserLocation is the device-reported position used for distance sorting.
// It is ephemeral: replaced on every position update and discarded when
// the watch ends, never persisted.
type UserLocation struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64  // meters, 0 when unknown
	Heading   *float64 // degrees clockwise from true north, nil when unreported
	Speed     *float64 // meters per second, nil when unreported
}

// FilterState is the complete, typed set of list filters. The zero value
// filters nothing.
type FilterState struct {
	// City restricts to an exact district name. Empty means no filter.
	City string

	// Province restricts to an exact province name. Empty means no filter.
	Province string

	// Inspection restricts to an exact canonical status. Nil means no filter.
	Inspection *station.InspectionStatus

	// OnAir restricts by broadcast state. Nil means no filter.
	OnAir *bool

	// SubmitRequest is one-sided: the list is restricted only when it is
	// set to SubmitNotSubmitted. Any other value, including
	// SubmitSubmitted, leaves the list alone. The triage workflow needs
	// the not-submitted subset on demand, while submitted rows must stay
	// visible in every other view.
	SubmitRequest *station.SubmitDecision

	// Search is a case-insensitive substring query. Empty means no search.
	Search string
}

// Active reports whether any filter is set.
func (f FilterState) Active() bool {
	return f.City != "" || f.Province != "" || f.Inspection != nil ||
		f.OnAir != nil || f.SubmitRequest != nil || f.Search != ""
}

// Normalize returns a copy of the filter with an incompatible city
// selection cleared: a city is only valid while some station in the
// selected province carries it. Called whenever the province selection or
// the underlying collection changes.
func (f FilterState) Normalize(stations []*station.Station) FilterState {
	if f.City == "" || f.Province == "" {
		return f
	}
	for _, st := range stations {
		if st.Province == f.Province && st.City == f.City {
			return f
		}
	}
	f.City = ""
	return f
}

// Apply runs the filter pipeline over the station list and returns a new
// ordered slice; the input is never mutated. Predicates are evaluated
// city, province, inspection, on-air, submit, then search, so the cheap
// exact matches cut the set before the substring scan.
//
// When loc is non-nil the result is stable-sorted by distance ascending,
// so equidistant stations keep their input order. Without a location the
// input order (name ascending from the store) is preserved.
func (f FilterState) Apply(stations []*station.Station, loc *UserLocation, cache *geo.DistanceCache) []*station.Station {
	out := make([]*station.Station, 0, len(stations))
	for _, st := range stations {
		if f.City != "" && st.City != f.City {
			continue
		}
		if f.Province != "" && st.Province != f.Province {
			continue
		}
		if f.Inspection != nil && st.Inspection != *f.Inspection {
			continue
		}
		if f.OnAir != nil && st.OnAir != *f.OnAir {
			continue
		}
		if f.SubmitRequest != nil && *f.SubmitRequest == station.SubmitNotSubmitted &&
			st.SubmitRequest != station.SubmitNotSubmitted {
			continue
		}
		if f.Search != "" && !matchesSearch(st, f.Search) {
			continue
		}
		out = append(out, st)
	}

	if loc == nil {
		return out
	}
	return sortByDistance(out, *loc, cache)
}

// matchesSearch tests the query against name, description, genre, city,
// province, details, and the frequency rendered as a string.
//
// Details get one extra chance: a query without a leading # is retried
// with # prepended, so searching "deviation" still finds a stored
// "#deviation" tag.
func matchesSearch(st *station.Station, query string) bool {
	q := strings.ToLower(query)

	fields := []string{
		st.Name,
		st.Description,
		st.Genre,
		st.City,
		st.Province,
		st.Details,
		FormatFrequency(st.Frequency),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}

	if !strings.HasPrefix(q, "#") &&
		strings.Contains(strings.ToLower(st.Details), "#"+q) {
		return true
	}
	return false
}

// FormatFrequency renders a frequency the way users type it, without
// trailing zeros: 99.25, 100.5, 88.
func FormatFrequency(mhz float64) string {
	return strconv.FormatFloat(mhz, 'f', -1, 64)
}

// sortByDistance stable-sorts the stations by distance from loc. The
// distances live only in the transient sort entries; the returned slice
// carries bare stations.
func sortByDistance(stations []*station.Station, loc UserLocation, cache *geo.DistanceCache) []*station.Station {
	type entry struct {
		st   *station.Station
		dist float64
	}

	entries := make([]entry, len(stations))
	for i, st := range stations {
		entries[i] = entry{st: st, dist: distance(loc, st, cache)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].dist < entries[j].dist
	})

	out := make([]*station.Station, len(entries))
	for i, e := range entries {
		out[i] = e.st
	}
	return out
}

// Distances returns the distance in kilometers from loc to each station,
// keyed by station id. The sorted list itself never carries distances;
// views that label rows fetch them here.
func Distances(stations []*station.Station, loc UserLocation, cache *geo.DistanceCache) map[int64]float64 {
	out := make(map[int64]float64, len(stations))
	for _, st := range stations {
		out[st.ID] = distance(loc, st, cache)
	}
	return out
}

func distance(loc UserLocation, st *station.Station, cache *geo.DistanceCache) float64 {
	if cache == nil {
		return geo.Distance(loc.Latitude, loc.Longitude, st.Latitude, st.Longitude)
	}
	return cache.Distance(loc.Latitude, loc.Longitude, st.Latitude, st.Longitude)
}
