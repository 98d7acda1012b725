package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/geo"
	"github.com/dearxcorex/MakeItFast/internal/geoloc"
	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
)

var (
	filterProvince     string
	filterCity         string
	filterSearch       string
	filterOnAir        string
	filterInspection   string
	filterNotSubmitted bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stations through the filter pipeline",
	RunE:  runList,
}

func init() {
	addFilterFlags(listCmd)
}

// addFilterFlags registers the shared filter flags on a command.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterProvince, "province", "", "exact province match")
	cmd.Flags().StringVar(&filterCity, "city", "", "exact district match")
	cmd.Flags().StringVar(&filterSearch, "search", "", "free-text search (# prefix matches detail tags)")
	cmd.Flags().StringVar(&filterOnAir, "on-air", "", "broadcast state filter: true or false")
	cmd.Flags().StringVar(&filterInspection, "inspection", "", "inspection status filter: inspected or not_inspected")
	cmd.Flags().BoolVar(&filterNotSubmitted, "not-submitted", false, "restrict to explicitly-not-submitted stations")
}

// filterFromFlags builds the typed filter state from the shared flags.
func filterFromFlags() (tracker.FilterState, error) {
	f := tracker.FilterState{
		Province: filterProvince,
		City:     filterCity,
		Search:   filterSearch,
	}

	if filterOnAir != "" {
		v, err := strconv.ParseBool(filterOnAir)
		if err != nil {
			return f, fmt.Errorf("--on-air: want true or false, got %q", filterOnAir)
		}
		f.OnAir = &v
	}
	if filterInspection != "" {
		v := station.ParseInspectionStatus(filterInspection)
		f.Inspection = &v
	}
	if filterNotSubmitted {
		v := station.SubmitNotSubmitted
		f.SubmitRequest = &v
	}
	return f, nil
}

// visibleStations fetches the collection and runs the filter pipeline over
// it. Returns the visible stations plus their distances when a position is
// configured.
func visibleStations(ctx context.Context, filter tracker.FilterState, pos *geoloc.Position) ([]*station.Station, map[int64]float64, error) {
	client := newClient()
	all, err := client.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load station list: %w", err)
	}

	var loc *tracker.UserLocation
	if pos != nil {
		loc = &tracker.UserLocation{Latitude: pos.Latitude, Longitude: pos.Longitude}
	}

	cache := geo.NewDistanceCache()
	filter = filter.Normalize(all)
	visible := filter.Apply(all, loc, cache)

	var distances map[int64]float64
	if loc != nil {
		distances = tracker.Distances(visible, *loc, cache)
	}
	return visible, distances, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	filter, err := filterFromFlags()
	if err != nil {
		return err
	}

	pos := currentPosition(log)
	visible, distances, err := visibleStations(cmd.Context(), filter, pos)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if distances != nil {
		fmt.Fprintln(w, "ID\tMHZ\tNAME\tCITY\tPROVINCE\tSTATUS\tKM")
	} else {
		fmt.Fprintln(w, "ID\tMHZ\tNAME\tCITY\tPROVINCE\tSTATUS")
	}

	for _, st := range visible {
		status := statusLabel(st)
		if distances != nil {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%.1f\n",
				st.ID, tracker.FormatFrequency(st.Frequency), st.Name,
				st.City, st.Province, status, distances[st.ID])
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				st.ID, tracker.FormatFrequency(st.Frequency), st.Name,
				st.City, st.Province, status)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d station(s)\n", len(visible))
	return nil
}

// statusLabel renders the station's flags for table output.
func statusLabel(st *station.Station) string {
	label := string(st.Marker())
	if st.Details != "" {
		label += " " + st.Details
	}
	return label
}
