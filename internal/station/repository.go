package station

import (
	"context"
	"errors"
	"time"
)

// Predefined repository errors.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrEmptyPatch      = errors.New("patch contains no fields")
)

// Patch carries the fields of a partial update. Nil fields are left
// untouched; the repository applies only what is supplied, so concurrent
// writers overwrite each other per field, not per row.
//
// DateInspected is deliberately absent: it is derived by the store from the
// inspection value in the same write (stamped on inspected, cleared
// otherwise) and never accepted from callers.
type Patch struct {
	OnAir         *bool
	Inspection    *InspectionStatus
	Details       *string
	Unwanted      *bool
	SubmitRequest *SubmitDecision
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.OnAir == nil && p.Inspection == nil && p.Details == nil &&
		p.Unwanted == nil && p.SubmitRequest == nil
}

// Repository defines the interface for station persistence.
type Repository interface {
	// List returns all stations ordered by name ascending. The collection
	// is read in bulk on initial load; it is small enough not to paginate.
	List(ctx context.Context) ([]*Station, error)

	// Get returns a single station by id.
	Get(ctx context.Context, id int64) (*Station, error)

	// ApplyPatch applies the supplied fields to a station and returns the
	// updated canonical record. Returns ErrStationNotFound for unknown ids.
	ApplyPatch(ctx context.Context, id int64, patch Patch) (*Station, error)

	// RecentlyChanged returns the stations whose canonical record changed
	// at or after the given instant.
	RecentlyChanged(ctx context.Context, since time.Time) ([]*Station, error)

	// BulkInsert inserts stations in one pass and returns the count
	// written. Used by the seed tooling only.
	BulkInsert(ctx context.Context, stations []*Station) (int64, error)

	// DeleteAll removes every station. Exists for seed/reset tooling; the
	// serving path never deletes.
	DeleteAll(ctx context.Context) error
}
