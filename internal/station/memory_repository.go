package station

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[int64]*Station
	nextID   int64
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[int64]*Station),
		nextID:   1,
	}
}

// List returns all stations ordered by name ascending.
func (r *InMemoryRepository) List(_ context.Context) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stations := make([]*Station, 0, len(r.stations))
	for _, s := range r.stations {
		stations = append(stations, s.Clone())
	}

	sort.Slice(stations, func(i, j int) bool {
		if stations[i].Name != stations[j].Name {
			return stations[i].Name < stations[j].Name
		}
		return stations[i].ID < stations[j].ID
	})
	return stations, nil
}

// Get returns a single station by id.
func (r *InMemoryRepository) Get(_ context.Context, id int64) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	return s.Clone(), nil
}

// ApplyPatch applies the supplied fields, mirroring the SQL semantics:
// absent fields keep their stored value, and date_inspected is derived
// from the inspection value carried by the patch.
func (r *InMemoryRepository) ApplyPatch(_ context.Context, id int64, patch Patch) (*Station, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}

	if patch.OnAir != nil {
		s.OnAir = *patch.OnAir
	}
	if patch.Inspection != nil {
		s.Inspection = *patch.Inspection
		if s.Inspection == InspectionInspected {
			d := today()
			s.DateInspected = &d
		} else {
			s.DateInspected = nil
		}
	}
	if patch.Details != nil {
		s.Details = *patch.Details
	}
	if patch.Unwanted != nil {
		s.Unwanted = *patch.Unwanted
	}
	if patch.SubmitRequest != nil {
		s.SubmitRequest = *patch.SubmitRequest
	}
	s.UpdatedAt = time.Now().UTC()

	return s.Clone(), nil
}

// RecentlyChanged returns stations updated at or after the given instant,
// most recent first.
func (r *InMemoryRepository) RecentlyChanged(_ context.Context, since time.Time) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stations []*Station
	for _, s := range r.stations {
		if !s.UpdatedAt.Before(since) {
			stations = append(stations, s.Clone())
		}
	}

	sort.Slice(stations, func(i, j int) bool {
		if !stations[i].UpdatedAt.Equal(stations[j].UpdatedAt) {
			return stations[i].UpdatedAt.After(stations[j].UpdatedAt)
		}
		return stations[i].ID < stations[j].ID
	})
	return stations, nil
}

// BulkInsert stores the given stations, assigning ids to those without one.
func (r *InMemoryRepository) BulkInsert(_ context.Context, stations []*Station) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, s := range stations {
		cpy := s.Clone()
		if cpy.ID == 0 {
			cpy.ID = r.nextID
		}
		if cpy.ID >= r.nextID {
			r.nextID = cpy.ID + 1
		}
		if cpy.CreatedAt.IsZero() {
			cpy.CreatedAt = now
		}
		if cpy.UpdatedAt.IsZero() {
			cpy.UpdatedAt = now
		}
		r.stations[cpy.ID] = cpy
	}
	return int64(len(stations)), nil
}

// DeleteAll removes every station.
func (r *InMemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stations = make(map[int64]*Station)
	r.nextID = 1
	return nil
}

// today returns the current UTC date at midnight, matching what the SQL
// CURRENT_DATE stamp produces.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
