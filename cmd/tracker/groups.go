package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/tracker"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show stations grouped by exact map position",
	Long: `Group the visible stations by coordinate, the way the map decides
between a single marker and a clustered one. Grouping is exact string
equality of the coordinates, not proximity: near-miss duplicates stay
separate groups.`,
	RunE: runGroups,
}

func init() {
	addFilterFlags(groupsCmd)
}

func runGroups(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	filter, err := filterFromFlags()
	if err != nil {
		return err
	}

	visible, _, err := visibleStations(cmd.Context(), filter, currentPosition(log))
	if err != nil {
		return err
	}

	groups := tracker.GroupByCoordinate(visible)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tMARKER\tCOUNT\tSTATIONS")
	clustered := 0
	for _, g := range groups {
		if g.Clustered() {
			clustered++
		}
		names := ""
		for i, st := range g.Stations {
			if i > 0 {
				names += ", "
			}
			names += fmt.Sprintf("%s (%s)", st.Name, tracker.FormatFrequency(st.Frequency))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.Key, g.Marker(), len(g.Stations), names)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d position(s), %d clustered\n", len(groups), clustered)
	return nil
}
