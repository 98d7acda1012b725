package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/geo"
)

var directionsCmd = &cobra.Command{
	Use:   "directions <station-id>",
	Short: "Print a driving-directions link for a station",
	Args:  cobra.ExactArgs(1),
	RunE:  runDirections,
}

func runDirections(cmd *cobra.Command, args []string) error {
	log := newLogger()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("station id %q is not an integer", args[0])
	}

	st, err := newClient().Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	var link string
	if pos := currentPosition(log); pos != nil {
		link, err = geo.DirectionsURLFrom(pos.Latitude, pos.Longitude, st.Latitude, st.Longitude)
	} else {
		link, err = geo.DirectionsURL(st.Latitude, st.Longitude)
	}
	if err != nil {
		return fmt.Errorf("station %d: %w", id, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}
