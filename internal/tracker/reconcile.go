package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/station"
)

// RecentLister is the boundary slice the poller needs.
type RecentLister interface {
	RecentlyChanged(ctx context.Context, window time.Duration) ([]*station.Station, error)
}

// PollerConfig holds configuration for the reconcile poller.
type PollerConfig struct {
	Boundary RecentLister
	Store    *Store

	// Interval between polls (default: 30s).
	Interval time.Duration

	// Window of changes to request each poll. Must exceed the interval so
	// consecutive polls overlap; reconciling a record twice is free.
	// Default: 3x the interval.
	Window time.Duration

	Logger zerolog.Logger
}

// Poller periodically folds recently changed server records into the store.
// It is the recovery path for everything the live feed misses: dropped
// connections, dropped events, and failed optimistic updates that were kept
// locally.
type Poller struct {
	boundary RecentLister
	store    *Store
	interval time.Duration
	window   time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a new reconcile poller.
func NewPoller(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	window := cfg.Window
	if window <= 0 {
		window = 3 * interval
	}
	return &Poller{
		boundary: cfg.Boundary,
		store:    cfg.Store,
		interval: interval,
		window:   window,
		logger:   cfg.Logger,
	}
}

// Run polls until the context is cancelled. Poll failures are logged and
// retried on the next tick; the resilient HTTP client underneath already
// absorbed transient errors by the time one surfaces here.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	changed, err := p.boundary.RecentlyChanged(ctx, p.window)
	if err != nil {
		p.logger.Warn().Err(err).Msg("reconcile poll failed")
		return
	}
	if len(changed) == 0 {
		return
	}
	p.store.ReconcileRemote(changed)
	p.logger.Debug().Int("stations", len(changed)).Msg("reconciled recent changes")
}
