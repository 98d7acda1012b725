package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
)

var (
	setOnAir    bool
	setInspect  string
	setDetails  string
	setUnwanted bool
	setSubmit   string
	setRollback bool
)

var setCmd = &cobra.Command{
	Use:   "set <station-id>",
	Short: "Toggle a station's operational and inspection flags",
	Long: `Apply one or more flag changes to a station.

The change is applied optimistically and dispatched to the API; the
command waits for the server verdict and reports it. With --rollback a
failed update restores the previous value instead of keeping the
optimistic one.`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setOnAir, "on-air", false, "set the broadcast state")
	setCmd.Flags().StringVar(&setInspect, "inspection", "", "set inspection status: inspected or not_inspected")
	setCmd.Flags().StringVar(&setDetails, "details", "", `set the detail tag (one of "#deviation", "#harmonic", "#spurious", "#overpower"; empty clears)`)
	setCmd.Flags().BoolVar(&setUnwanted, "unwanted", false, "set the review-triage flag")
	setCmd.Flags().StringVar(&setSubmit, "submit", "", "set the paperwork decision: submitted or not_submitted")
	setCmd.Flags().BoolVar(&setRollback, "rollback", false, "roll back the local value when the update fails")
}

func runSet(cmd *cobra.Command, args []string) error {
	log := newLogger()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("station id %q is not an integer", args[0])
	}

	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return fmt.Errorf("nothing to change: pass at least one flag")
	}

	policy := tracker.KeepOptimistic
	if setRollback {
		policy = tracker.RollbackOnFailure
	}

	store := tracker.NewStore(tracker.StoreConfig{
		Boundary: newClient(),
		Policy:   policy,
		Logger:   log,
	})

	ctx := cmd.Context()
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("cannot load station list: %w", err)
	}

	if err := store.Update(ctx, id, patch); err != nil {
		return err
	}

	select {
	case outcome := <-store.Outcomes():
		printOutcome(cmd, outcome)
		if outcome.State == tracker.UpdateConfirmed {
			return nil
		}
		// The optimistic value was kept (or rolled back); not an exit error,
		// the operator already knows the verdict.
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timed out waiting for the server verdict")
	}
}

// patchFromFlags builds the patch from whichever flags were actually set.
func patchFromFlags(cmd *cobra.Command) (station.Patch, error) {
	var patch station.Patch

	if cmd.Flags().Changed("on-air") {
		v := setOnAir
		patch.OnAir = &v
	}
	if cmd.Flags().Changed("inspection") {
		v := station.ParseInspectionStatus(setInspect)
		patch.Inspection = &v
	}
	if cmd.Flags().Changed("details") {
		if !station.ValidDetail(setDetails) {
			return patch, fmt.Errorf("unknown detail tag %q", setDetails)
		}
		v := setDetails
		patch.Details = &v
	}
	if cmd.Flags().Changed("unwanted") {
		v := setUnwanted
		patch.Unwanted = &v
	}
	if cmd.Flags().Changed("submit") {
		v := station.ParseSubmitDecision(setSubmit)
		if setSubmit != "" && v == station.SubmitUndecided {
			return patch, fmt.Errorf("--submit: want submitted or not_submitted, got %q", setSubmit)
		}
		patch.SubmitRequest = &v
	}
	return patch, nil
}

func printOutcome(cmd *cobra.Command, outcome tracker.UpdateOutcome) {
	out := cmd.OutOrStdout()
	switch outcome.State {
	case tracker.UpdateConfirmed:
		fmt.Fprintf(out, "station %d: confirmed\n", outcome.StationID)
	case tracker.UpdateRejected:
		if outcome.RolledBack {
			fmt.Fprintf(out, "station %d: rejected, local value rolled back (%v)\n", outcome.StationID, outcome.Err)
		} else {
			fmt.Fprintf(out, "station %d: rejected, optimistic value kept (%v)\n", outcome.StationID, outcome.Err)
		}
	case tracker.UpdateNetworkError:
		if outcome.RolledBack {
			fmt.Fprintf(out, "station %d: network error, local value rolled back (%v)\n", outcome.StationID, outcome.Err)
		} else {
			fmt.Fprintf(out, "station %d: network error, optimistic value kept (%v)\n", outcome.StationID, outcome.Err)
		}
	case tracker.UpdateSuperseded:
		fmt.Fprintf(out, "station %d: superseded by a newer local change\n", outcome.StationID)
	}
}
