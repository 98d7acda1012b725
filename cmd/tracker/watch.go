package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dearxcorex/MakeItFast/internal/featureflags"
	"github.com/dearxcorex/MakeItFast/internal/geoloc"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
	"github.com/dearxcorex/MakeItFast/internal/tracker/stationapi"
	"github.com/dearxcorex/MakeItFast/internal/tui"
)

var (
	watchRollback bool
	watchPollOnly bool
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live station dashboard",
	Long: `Interactive dashboard over the station working copy: filter and
search the list, toggle flags optimistically, and watch server changes
reconcile in.

Reconciliation prefers the websocket feed at $MAKEITFAST_LIVE_URL when
the server advertises it, and falls back to polling the recent-changes
endpoint otherwise.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchRollback, "rollback", false, "roll back local values when updates fail")
	watchCmd.Flags().BoolVar(&watchPollOnly, "poll", false, "skip the live feed and poll only")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "poll interval for the fallback path")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	policy := tracker.KeepOptimistic
	if watchRollback {
		policy = tracker.RollbackOnFailure
	}

	client := newClient()
	store := tracker.NewStore(tracker.StoreConfig{
		Boundary: client,
		Policy:   policy,
		Logger:   log,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The initial bulk load is the one fatal boundary call: without it
	// there is nothing to render.
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("cannot load station list: %w", err)
	}

	if pos := currentPosition(log); pos != nil {
		startPositionWatch(ctx, store, *pos)
	}

	mode := startReconciliation(ctx, log, client, store)

	model := tui.New(tui.Config{
		Store:         store,
		ReconcileMode: mode,
		Theme:         tui.DefaultTheme(),
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// startReconciliation picks the reconcile path: the live feed when one is
// configured and the server advertises it, otherwise the recent-changes
// poller. Returns the label shown in the status bar.
func startReconciliation(ctx context.Context, log zerolog.Logger, client *stationapi.Client, store *tracker.Store) string {
	liveURL := os.Getenv("MAKEITFAST_LIVE_URL")

	if !watchPollOnly && liveURL != "" && client.FlagEnabled(ctx, featureflags.FlagLiveFeed) {
		feed := stationapi.NewFeed(stationapi.FeedConfig{
			URL: liveURL,
			TokenProvider: func() string {
				return os.Getenv("MAKEITFAST_TOKEN")
			},
			Logger: log,
		})
		go func() {
			if err := feed.Run(ctx, store); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("live feed stopped")
			}
		}()
		return "live"
	}

	poller := tracker.NewPoller(tracker.PollerConfig{
		Boundary: client,
		Store:    store,
		Interval: watchInterval,
		Logger:   log,
	})
	go poller.Run(ctx)
	return "polling"
}

// startPositionWatch feeds position fixes into the store until the context
// ends. The store owns clearing the distance cache on each new fix.
func startPositionWatch(ctx context.Context, store *tracker.Store, pos geoloc.Position) {
	provider := &geoloc.Static{Position: pos}
	ch, err := provider.Watch(ctx)
	if err != nil {
		// Geolocation failure is never fatal; distances stay off.
		return
	}
	go func() {
		for fix := range ch {
			store.SetLocation(&tracker.UserLocation{
				Latitude:  fix.Latitude,
				Longitude: fix.Longitude,
				Accuracy:  fix.Accuracy,
				Heading:   fix.Heading,
				Speed:     fix.Speed,
			})
		}
	}()
}
