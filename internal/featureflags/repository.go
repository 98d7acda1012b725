package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a flag key has no row; callers treat
// missing flags as disabled.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository is the storage boundary for runtime flags.
type Repository interface {
	// GetFlag retrieves a single flag by key.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags retrieves every flag, keyed by flag key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag creates or updates one flag.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags creates or updates multiple flags atomically, so a
	// half-applied toggle is never observable.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes a flag by key.
	DeleteFlag(ctx context.Context, key string) error
}
