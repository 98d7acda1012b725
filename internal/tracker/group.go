package tracker

import "github.com/dearxcorex/MakeItFast/internal/station"

// CoordinateGroup is the set of stations sharing one exact map position.
// A group of one renders as a plain marker; larger groups render as a
// clustered marker with a count badge and a member list in the popup.
type CoordinateGroup struct {
	Key       string
	Latitude  float64
	Longitude float64
	Stations  []*station.Station
}

// Clustered reports whether the group holds more than one station.
func (g CoordinateGroup) Clustered() bool {
	return len(g.Stations) > 1
}

// Marker returns the icon category for the group, taken from its first
// member. Members of a cluster can disagree on status; the popup shows
// each one's own state, the shared pin just needs a representative.
func (g CoordinateGroup) Marker() station.MarkerCategory {
	return g.Stations[0].Marker()
}

// GroupByCoordinate buckets stations by exact coordinate key. Group order
// follows first appearance in the input, and members keep their input
// order within each group.
//
// Keys compare the shortest decimal rendering of each coordinate, so only
// stations reporting identical coordinates share a pin. Near-misses in
// the data (13.7563 vs 13.75630001) stay separate markers; grouping is
// exact-match, not proximity.
func GroupByCoordinate(stations []*station.Station) []CoordinateGroup {
	index := make(map[string]int, len(stations))
	groups := make([]CoordinateGroup, 0, len(stations))

	for _, st := range stations {
		key := st.CoordinateKey()
		if i, ok := index[key]; ok {
			groups[i].Stations = append(groups[i].Stations, st)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, CoordinateGroup{
			Key:       key,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
			Stations:  []*station.Station{st},
		})
	}
	return groups
}
