package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/geo"
	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker/stationapi"
)

// ErrUnknownStation is returned when an update targets a station the store
// has never seen.
var ErrUnknownStation = errors.New("unknown station")

// Boundary is the remote side of the store: the station API operations the
// store needs. *stationapi.Client satisfies it.
type Boundary interface {
	List(ctx context.Context) ([]*station.Station, error)
	Patch(ctx context.Context, id int64, patch station.Patch) (*station.Station, error)
}

// FailurePolicy decides what happens to an optimistically applied update
// when the server rejects it or the request fails.
type FailurePolicy int

const (
	// KeepOptimistic leaves the local value in place on failure. The next
	// reconcile pass restores server truth. This favors a responsive UI on
	// flaky uplinks at the cost of transiently showing unpersisted state.
	KeepOptimistic FailurePolicy = iota

	// RollbackOnFailure restores the pre-update value as soon as a failure
	// is known, unless a newer local update has superseded it.
	RollbackOnFailure
)

// UpdateState classifies how an optimistic update concluded.
type UpdateState string

const (
	// UpdateConfirmed means the server accepted the write; the local record
	// now carries the server's authoritative copy.
	UpdateConfirmed UpdateState = "confirmed"

	// UpdateRejected means the server answered with an error status.
	UpdateRejected UpdateState = "rejected"

	// UpdateNetworkError means the request never produced a server verdict.
	UpdateNetworkError UpdateState = "network_error"

	// UpdateSuperseded means a newer local update to the same station was
	// applied before this one's response arrived; the response was discarded.
	UpdateSuperseded UpdateState = "superseded"
)

// UpdateOutcome reports the conclusion of one optimistic update.
type UpdateOutcome struct {
	StationID  int64
	State      UpdateState
	RolledBack bool
	Err        error
}

// StoreConfig holds configuration for the tracker store.
type StoreConfig struct {
	Boundary Boundary
	Policy   FailurePolicy
	Cache    *geo.DistanceCache
	Logger   zerolog.Logger
}

// Store is the tracker's authoritative working copy of the station list.
//
// Records are copy-on-write: every mutation builds a fresh *Station and
// swaps the pointer under the lock, so snapshots handed to readers stay
// internally consistent without further locking. Updates are optimistic:
// the local record changes immediately and a background request carries the
// patch to the server; a per-station sequence number makes sure only the
// response to the newest local write may touch the record.
type Store struct {
	boundary Boundary
	policy   FailurePolicy
	cache    *geo.DistanceCache
	logger   zerolog.Logger

	mu       sync.RWMutex
	stations map[int64]*station.Station
	order    []int64 // station ids sorted by (name, id)
	seq      map[int64]uint64
	acked    map[int64]uint64 // highest seq whose request has resolved
	filter   FilterState
	loc      *UserLocation

	changes  chan struct{}
	outcomes chan UpdateOutcome
}

// NewStore creates a new tracker store.
func NewStore(cfg StoreConfig) *Store {
	cache := cfg.Cache
	if cache == nil {
		cache = geo.NewDistanceCache()
	}
	return &Store{
		boundary: cfg.Boundary,
		policy:   cfg.Policy,
		cache:    cache,
		logger:   cfg.Logger,
		stations: make(map[int64]*station.Station),
		seq:      make(map[int64]uint64),
		acked:    make(map[int64]uint64),
		changes:  make(chan struct{}, 1),
		outcomes: make(chan UpdateOutcome, 16),
	}
}

// Load fetches the full station list. A failure here is fatal for the
// session: the caller has nothing to render and should exit with the error
// rather than start on an empty list.
func (s *Store) Load(ctx context.Context) error {
	stations, err := s.boundary.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stations = make(map[int64]*station.Station, len(stations))
	s.seq = make(map[int64]uint64, len(stations))
	s.acked = make(map[int64]uint64, len(stations))
	for _, st := range stations {
		s.stations[st.ID] = st
	}
	s.reorderLocked()
	s.mu.Unlock()

	s.logger.Info().Int("stations", len(stations)).Msg("station list loaded")
	s.notify()
	return nil
}

// Total returns the number of stations in the store, ignoring filters.
func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}

// Stations returns the visible stations: the current filter applied in
// order, then sorted by distance when a location is set. Returned records
// are copies; mutating them does not touch the store.
func (s *Store) Stations() []*station.Station {
	all, filter, loc := s.snapshot()
	visible := filter.Apply(all, loc, s.cache)
	out := make([]*station.Station, len(visible))
	for i, st := range visible {
		out[i] = st.Clone()
	}
	return out
}

// Groups returns the visible stations grouped by exact map position.
func (s *Store) Groups() []CoordinateGroup {
	return GroupByCoordinate(s.Stations())
}

// Distances returns the distance in kilometers from the current location to
// every visible station. Returns nil when no location is set.
func (s *Store) Distances() map[int64]float64 {
	all, filter, loc := s.snapshot()
	if loc == nil {
		return nil
	}
	return Distances(filter.Apply(all, loc, s.cache), *loc, s.cache)
}

// Get returns a copy of one station, or nil if the store has no record of it.
func (s *Store) Get(id int64) *station.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stations[id].Clone()
}

// Filter returns the current filter state.
func (s *Store) Filter() FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter installs a new filter state. The state is normalized first so a
// province change cannot leave a stale city selection behind.
func (s *Store) SetFilter(f FilterState) {
	s.mu.Lock()
	all := s.allLocked()
	s.filter = f.Normalize(all)
	s.mu.Unlock()
	s.notify()
}

// ResetFilter clears every filter, and the distance cache with it: a reset
// is the session boundary the cache's memory is scoped to.
func (s *Store) ResetFilter() {
	s.mu.Lock()
	s.filter = FilterState{}
	s.mu.Unlock()
	s.cache.Clear()
	s.notify()
}

// Location returns the current user location, or nil when unknown.
func (s *Store) Location() *UserLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loc == nil {
		return nil
	}
	loc := *s.loc
	return &loc
}

// SetLocation installs a new user location. Cached distances are keyed by
// the previous position and will never be hit again, so the cache is
// dropped with it.
func (s *Store) SetLocation(loc *UserLocation) {
	s.mu.Lock()
	if loc == nil {
		s.loc = nil
	} else {
		l := *loc
		s.loc = &l
	}
	s.mu.Unlock()
	s.cache.Clear()
	s.notify()
}

// Changes returns a coalescing notification channel: at least one receive
// is pending after any state change. Intended for render loops.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Outcomes returns the channel carrying update conclusions. The channel is
// buffered; if nobody drains it, oldest outcomes are dropped rather than
// blocking the update path.
func (s *Store) Outcomes() <-chan UpdateOutcome {
	return s.outcomes
}

// Update applies a patch optimistically and dispatches it to the server in
// the background. The local record reflects the patch before this returns;
// the eventual server verdict arrives on Outcomes.
//
// DateInspected is deliberately not touched here: the server owns it, and
// the confirmed record carries the stamped value back.
func (s *Store) Update(ctx context.Context, id int64, patch station.Patch) error {
	if patch.Empty() {
		return station.ErrEmptyPatch
	}

	s.mu.Lock()
	current, ok := s.stations[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownStation
	}

	before := current // previous copy-on-write snapshot, kept for rollback
	optimistic := applyPatchLocally(current, patch)
	s.stations[id] = optimistic
	s.seq[id]++
	mySeq := s.seq[id]
	s.mu.Unlock()

	s.notify()
	go s.dispatch(ctx, id, mySeq, patch, before)
	return nil
}

// dispatch carries one optimistic update to the server and reconciles the
// local record with the verdict.
func (s *Store) dispatch(ctx context.Context, id int64, mySeq uint64, patch station.Patch, before *station.Station) {
	confirmed, err := s.boundary.Patch(ctx, id, patch)

	s.mu.Lock()
	if s.acked[id] < mySeq {
		s.acked[id] = mySeq
	}
	if s.seq[id] != mySeq {
		// A newer local write owns this record; whatever the server said
		// about the old one no longer applies. The inspection date is the
		// exception: the server owns it, and the newer write cannot have
		// computed one locally.
		stale := err == nil && confirmed != nil
		if stale {
			if cur, ok := s.stations[id]; ok {
				next := cur.Clone()
				next.DateInspected = cloneDate(confirmed.DateInspected)
				s.stations[id] = next
			}
		}
		s.mu.Unlock()
		if stale {
			s.notify()
		}
		s.logger.Debug().Int64("station", id).Msg("discarding stale update response")
		s.emit(UpdateOutcome{StationID: id, State: UpdateSuperseded, Err: err})
		return
	}

	if err == nil {
		s.stations[id] = confirmed
		s.mu.Unlock()
		s.notify()
		s.emit(UpdateOutcome{StationID: id, State: UpdateConfirmed})
		return
	}

	// A structured problem response is a server verdict; anything else
	// (timeout, refused connection, open breaker) never reached a verdict.
	state := UpdateNetworkError
	var be *stationapi.BoundaryError
	if errors.As(err, &be) {
		state = UpdateRejected
	}

	rolledBack := false
	if s.policy == RollbackOnFailure {
		s.stations[id] = before
		rolledBack = true
	}
	s.mu.Unlock()

	s.logger.Warn().Err(err).
		Int64("station", id).
		Bool("rolled_back", rolledBack).
		Msg("station update failed")

	if rolledBack {
		s.notify()
	}
	s.emit(UpdateOutcome{StationID: id, State: state, RolledBack: rolledBack, Err: err})
}

// ReconcileRemote folds server records into the store. Incoming records are
// authoritative for settled stations and overwrite local state. A station
// with a local write still awaiting its verdict is skipped: the feed record
// was produced before that write and would revert the optimistic value.
func (s *Store) ReconcileRemote(stations []*station.Station) {
	if len(stations) == 0 {
		return
	}

	changed := false
	s.mu.Lock()
	for _, incoming := range stations {
		if s.seq[incoming.ID] > s.acked[incoming.ID] {
			continue
		}
		old, exists := s.stations[incoming.ID]
		if exists && old.Equal(incoming) {
			continue
		}
		s.stations[incoming.ID] = incoming.Clone()
		changed = true
		if !exists {
			s.reorderLocked()
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// ReplaceAll swaps in a complete server snapshot, dropping any station the
// snapshot no longer carries. Sequence counters survive so a response to an
// in-flight update still lands on the right side of the staleness check,
// and records with such an update pending keep their optimistic copy.
func (s *Store) ReplaceAll(stations []*station.Station) {
	s.mu.Lock()
	next := make(map[int64]*station.Station, len(stations))
	for _, st := range stations {
		if s.seq[st.ID] > s.acked[st.ID] {
			next[st.ID] = s.stations[st.ID]
			continue
		}
		next[st.ID] = st.Clone()
	}
	s.stations = next
	s.reorderLocked()
	s.mu.Unlock()
	s.notify()
}

// RemoveStation drops a station from the store, for feed delete events.
func (s *Store) RemoveStation(id int64) {
	s.mu.Lock()
	if _, ok := s.stations[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.stations, id)
	delete(s.seq, id)
	delete(s.acked, id)
	s.reorderLocked()
	s.mu.Unlock()
	s.notify()
}

// snapshot returns the full record list in name order plus the current
// filter and location, all readable without the lock.
func (s *Store) snapshot() ([]*station.Station, FilterState, *UserLocation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLocked(), s.filter, s.loc
}

// allLocked returns the stations in name order. Caller holds the lock.
func (s *Store) allLocked() []*station.Station {
	all := make([]*station.Station, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.stations[id])
	}
	return all
}

// reorderLocked rebuilds the (name, id) ordering. Caller holds the lock.
func (s *Store) reorderLocked() {
	s.order = s.order[:0]
	for id := range s.stations {
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(i, j int) bool {
		a, b := s.stations[s.order[i]], s.stations[s.order[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// cloneDate copies an optional timestamp.
func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := *t
	return &d
}

// applyPatchLocally merges patch fields into a fresh copy of st.
func applyPatchLocally(st *station.Station, patch station.Patch) *station.Station {
	next := st.Clone()
	if patch.OnAir != nil {
		next.OnAir = *patch.OnAir
	}
	if patch.Inspection != nil {
		next.Inspection = *patch.Inspection
	}
	if patch.Details != nil {
		next.Details = *patch.Details
	}
	if patch.Unwanted != nil {
		next.Unwanted = *patch.Unwanted
	}
	if patch.SubmitRequest != nil {
		next.SubmitRequest = *patch.SubmitRequest
	}
	return next
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Store) emit(o UpdateOutcome) {
	select {
	case s.outcomes <- o:
	default:
		s.logger.Debug().Int64("station", o.StationID).Msg("outcome channel full, dropping")
	}
}
