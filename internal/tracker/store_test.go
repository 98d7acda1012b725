package tracker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearxcorex/MakeItFast/internal/station"
	"github.com/dearxcorex/MakeItFast/internal/tracker"
	"github.com/dearxcorex/MakeItFast/internal/tracker/stationapi"
)

// fakeBoundary gates every Patch call: the dispatch goroutine blocks until
// the test decides the verdict, so the optimistic window is observable.
type fakeBoundary struct {
	mu       sync.Mutex
	stations []*station.Station
	listErr  error
	calls    chan patchCall
}

type patchCall struct {
	id      int64
	patch   station.Patch
	respond chan patchResponse
}

type patchResponse struct {
	station *station.Station
	err     error
}

func newFakeBoundary(stations []*station.Station) *fakeBoundary {
	return &fakeBoundary{stations: stations, calls: make(chan patchCall, 8)}
}

func (f *fakeBoundary) List(_ context.Context) ([]*station.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*station.Station, len(f.stations))
	for i, st := range f.stations {
		out[i] = st.Clone()
	}
	return out, nil
}

func (f *fakeBoundary) Patch(_ context.Context, id int64, patch station.Patch) (*station.Station, error) {
	call := patchCall{id: id, patch: patch, respond: make(chan patchResponse)}
	f.calls <- call
	r := <-call.respond
	return r.station, r.err
}

func newTestStore(t *testing.T, policy tracker.FailurePolicy) (*tracker.Store, *fakeBoundary) {
	t.Helper()
	fake := newFakeBoundary(fixtureStations())
	store := tracker.NewStore(tracker.StoreConfig{
		Boundary: fake,
		Policy:   policy,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, store.Load(context.Background()))
	return store, fake
}

func awaitCall(t *testing.T, fake *fakeBoundary) patchCall {
	t.Helper()
	select {
	case c := <-fake.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for patch dispatch")
		return patchCall{}
	}
}

func awaitOutcome(t *testing.T, store *tracker.Store) tracker.UpdateOutcome {
	t.Helper()
	select {
	case o := <-store.Outcomes():
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update outcome")
		return tracker.UpdateOutcome{}
	}
}

func drainChanges(store *tracker.Store) {
	for {
		select {
		case <-store.Changes():
		default:
			return
		}
	}
}

func TestStore_Load_Error(t *testing.T) {
	fake := newFakeBoundary(nil)
	fake.listErr = errors.New("connection refused")

	store := tracker.NewStore(tracker.StoreConfig{Boundary: fake, Logger: zerolog.Nop()})
	err := store.Load(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.Total())
}

func TestStore_Load(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	assert.Equal(t, 6, store.Total())
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(store.Stations()))

	// A change signal is pending after load.
	select {
	case <-store.Changes():
	default:
		t.Fatal("expected a pending change signal after load")
	}
}

func TestStore_Update_OptimisticBeforeVerdict(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)
	ctx := context.Background()

	insp := station.InspectionInspected
	require.NoError(t, store.Update(ctx, 1, station.Patch{Inspection: &insp}))

	// The local record reflects the patch while the server call is still
	// blocked, and the server-owned date stays untouched.
	got := store.Get(1)
	assert.Equal(t, station.InspectionInspected, got.Inspection)
	assert.Nil(t, got.DateInspected)

	call := awaitCall(t, fake)
	assert.Equal(t, int64(1), call.id)
	require.NotNil(t, call.patch.Inspection)

	confirmed := store.Get(1)
	today := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	confirmed.DateInspected = &today
	confirmed.UpdatedAt = time.Now()
	call.respond <- patchResponse{station: confirmed}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateConfirmed, outcome.State)
	assert.Equal(t, int64(1), outcome.StationID)
	assert.False(t, outcome.RolledBack)
	assert.NoError(t, outcome.Err)

	final := store.Get(1)
	require.NotNil(t, final.DateInspected)
	assert.Equal(t, today, *final.DateInspected)
}

func TestStore_Update_Validation(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)
	ctx := context.Background()

	err := store.Update(ctx, 1, station.Patch{})
	assert.ErrorIs(t, err, station.ErrEmptyPatch)

	on := true
	err = store.Update(ctx, 999, station.Patch{OnAir: &on})
	assert.ErrorIs(t, err, tracker.ErrUnknownStation)
}

func TestStore_Update_RejectedKept(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)

	off := false
	require.NoError(t, store.Update(context.Background(), 4, station.Patch{OnAir: &off}))

	call := awaitCall(t, fake)
	call.respond <- patchResponse{err: &stationapi.BoundaryError{
		Status:  403,
		Code:    "read_only_mode",
		Message: "Read-only mode is active",
	}}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateRejected, outcome.State)
	assert.False(t, outcome.RolledBack)
	assert.Error(t, outcome.Err)

	// Keep policy: the optimistic value stays until a reconcile pass.
	assert.False(t, store.Get(4).OnAir)
}

func TestStore_Update_NetworkErrorRolledBack(t *testing.T) {
	store, fake := newTestStore(t, tracker.RollbackOnFailure)

	off := false
	require.NoError(t, store.Update(context.Background(), 4, station.Patch{OnAir: &off}))
	assert.False(t, store.Get(4).OnAir)

	call := awaitCall(t, fake)
	call.respond <- patchResponse{err: errors.New("dial tcp: connection refused")}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateNetworkError, outcome.State)
	assert.True(t, outcome.RolledBack)

	// Rollback policy: the pre-update value is restored.
	assert.True(t, store.Get(4).OnAir)
}

func TestStore_Update_RejectedRolledBack(t *testing.T) {
	store, fake := newTestStore(t, tracker.RollbackOnFailure)

	details := station.DetailSpurious
	require.NoError(t, store.Update(context.Background(), 2, station.Patch{Details: &details}))

	call := awaitCall(t, fake)
	call.respond <- patchResponse{err: &stationapi.BoundaryError{Status: 422, Code: "invalid_field", Message: "details too long"}}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateRejected, outcome.State)
	assert.True(t, outcome.RolledBack)
	assert.Equal(t, station.DetailDeviation, store.Get(2).Details)
}

func TestStore_Update_StaleResponseDiscarded(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)
	ctx := context.Background()

	insp := station.InspectionInspected
	require.NoError(t, store.Update(ctx, 1, station.Patch{Inspection: &insp}))
	details := station.DetailHarmonic
	require.NoError(t, store.Update(ctx, 1, station.Patch{Details: &details}))

	first := awaitCall(t, fake)
	second := awaitCall(t, fake)
	callA, callB := first, second
	if callA.patch.Inspection == nil {
		callA, callB = second, first
	}

	// The verdict for the first write arrives after the second write was
	// applied locally: it must be discarded, not clobber the newer state.
	staleRecord := store.Get(1)
	staleRecord.Details = ""
	callA.respond <- patchResponse{station: staleRecord}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateSuperseded, outcome.State)

	got := store.Get(1)
	assert.Equal(t, station.DetailHarmonic, got.Details)
	assert.Equal(t, station.InspectionInspected, got.Inspection)

	// The newest write's verdict still lands.
	fresh := store.Get(1)
	fresh.UpdatedAt = time.Now()
	callB.respond <- patchResponse{station: fresh}

	outcome = awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateConfirmed, outcome.State)
	assert.Equal(t, station.DetailHarmonic, store.Get(1).Details)
}

func TestStore_Update_StaleConfirmAdoptsInspectionDate(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)
	ctx := context.Background()

	insp := station.InspectionInspected
	require.NoError(t, store.Update(ctx, 1, station.Patch{Inspection: &insp}))
	details := station.DetailHarmonic
	require.NoError(t, store.Update(ctx, 1, station.Patch{Details: &details}))

	first := awaitCall(t, fake)
	second := awaitCall(t, fake)
	callA, callB := first, second
	if callA.patch.Inspection == nil {
		callA, callB = second, first
	}

	// The stale confirm still carries the server-stamped inspection date;
	// that one field is adopted even though the rest is discarded.
	stamped := store.Get(1)
	stamped.Details = ""
	today := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	stamped.DateInspected = &today
	callA.respond <- patchResponse{station: stamped}

	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateSuperseded, outcome.State)

	got := store.Get(1)
	assert.Equal(t, station.DetailHarmonic, got.Details)
	require.NotNil(t, got.DateInspected)
	assert.Equal(t, today, *got.DateInspected)

	fresh := store.Get(1)
	callB.respond <- patchResponse{station: fresh}
	outcome = awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateConfirmed, outcome.State)
}

func TestStore_ReconcileRemote_SkipsPendingUpdate(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)

	before := store.Get(4)
	off := false
	require.NoError(t, store.Update(context.Background(), 4, station.Patch{OnAir: &off}))
	call := awaitCall(t, fake)

	// A feed record produced before the in-flight write must not revert
	// the optimistic value.
	store.ReconcileRemote([]*station.Station{before})
	assert.False(t, store.Get(4).OnAir)

	call.respond <- patchResponse{station: store.Get(4)}
	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateConfirmed, outcome.State)

	// Once the write has settled, feed records overwrite again.
	store.ReconcileRemote([]*station.Station{before})
	assert.True(t, store.Get(4).OnAir)
}

func TestStore_ReplaceAll_KeepsPendingOptimistic(t *testing.T) {
	store, fake := newTestStore(t, tracker.KeepOptimistic)

	off := false
	require.NoError(t, store.Update(context.Background(), 1, station.Patch{OnAir: &off}))
	call := awaitCall(t, fake)

	store.ReplaceAll(fixtureStations())
	assert.False(t, store.Get(1).OnAir)

	call.respond <- patchResponse{station: store.Get(1)}
	outcome := awaitOutcome(t, store)
	assert.Equal(t, tracker.UpdateConfirmed, outcome.State)
}

func TestStore_ReconcileRemote_Overwrites(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	remote := store.Get(2)
	remote.OnAir = false
	remote.UpdatedAt = time.Now()
	store.ReconcileRemote([]*station.Station{remote})

	assert.False(t, store.Get(2).OnAir)
}

func TestStore_ReconcileRemote_EqualRecordIsQuiet(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)
	drainChanges(store)

	store.ReconcileRemote([]*station.Station{store.Get(2)})

	select {
	case <-store.Changes():
		t.Fatal("identical record must not signal a change")
	default:
	}
}

func TestStore_ReconcileRemote_InsertsInNameOrder(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	store.ReconcileRemote([]*station.Station{{
		ID: 7, Name: "Ayutthaya Calling", Frequency: 90.5,
		Latitude: 14.3532, Longitude: 100.5684,
		City: "Phra Nakhon Si Ayutthaya", Province: "Phra Nakhon Si Ayutthaya",
		OnAir: true, Inspection: station.InspectionNotInspected,
	}})

	assert.Equal(t, 7, store.Total())
	assert.Equal(t, []int64{1, 7, 2, 3, 4, 5, 6}, ids(store.Stations()))
}

func TestStore_RemoveStation(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	store.RemoveStation(3)
	assert.Equal(t, 5, store.Total())
	assert.NotContains(t, ids(store.Stations()), int64(3))

	// Unknown ids are a no-op.
	store.RemoveStation(999)
	assert.Equal(t, 5, store.Total())
}

func TestStore_ReplaceAll(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	fresh := fixtureStations()[:2]
	store.ReplaceAll(fresh)

	assert.Equal(t, 2, store.Total())
	assert.Equal(t, []int64{1, 2}, ids(store.Stations()))
}

func TestStore_SetFilter_Normalizes(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	store.SetFilter(tracker.FilterState{Province: "Chiang Mai", City: "Phra Nakhon"})

	f := store.Filter()
	assert.Equal(t, "Chiang Mai", f.Province)
	assert.Empty(t, f.City)
}

func TestStore_FilteredViews(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	store.SetFilter(tracker.FilterState{Province: "Bangkok"})
	store.SetLocation(&tracker.UserLocation{Latitude: 13.7563, Longitude: 100.5018})

	assert.Equal(t, []int64{2, 3, 6}, ids(store.Stations()))

	groups := store.Groups()
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Clustered())

	dists := store.Distances()
	require.Len(t, dists, 3)
	assert.InDelta(t, 0, dists[2], 1e-9)
}

func TestStore_Location(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	assert.Nil(t, store.Location())
	assert.Nil(t, store.Distances())

	loc := tracker.UserLocation{Latitude: 13.7563, Longitude: 100.5018, Accuracy: 12}
	store.SetLocation(&loc)
	got := store.Location()
	require.NotNil(t, got)
	assert.Equal(t, loc, *got)

	store.SetLocation(nil)
	assert.Nil(t, store.Location())
}

func TestStore_Get_ReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t, tracker.KeepOptimistic)

	got := store.Get(1)
	require.NotNil(t, got)
	got.Name = "mutated"

	assert.Equal(t, "Andaman FM", store.Get(1).Name)
	assert.Nil(t, store.Get(999))
}
