// Package geoloc abstracts where the operator's position comes from.
// Field units usually pin their position by flag or environment at the
// start of a site visit; an external GPS bridge can implement Provider to
// stream real fixes instead.
package geoloc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Predefined provider errors.
var (
	// ErrPermissionDenied means the position source refused access. The
	// caller falls back to unsorted lists, never a guessed position.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrUnavailable means no position source is configured or reachable.
	ErrUnavailable = errors.New("location unavailable")

	// ErrTimeout means the source produced no fix in time.
	ErrTimeout = errors.New("location request timed out")
)

// Position is one location fix. Heading and Speed are nil when the source
// does not report them; pinned positions never do.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64  // meters, 0 when unknown
	Heading   *float64 // degrees clockwise from true north
	Speed     *float64 // meters per second
	Timestamp time.Time
}

// DefaultPosition is the fallback fix used when nothing is configured:
// central Bangkok, where the regulator's head office sits.
var DefaultPosition = Position{Latitude: 13.7563, Longitude: 100.5018}

// Provider supplies position fixes.
type Provider interface {
	// Current returns one position fix.
	Current(ctx context.Context) (Position, error)

	// Watch streams fixes until the context is cancelled. The channel is
	// closed when the watch ends.
	Watch(ctx context.Context) (<-chan Position, error)
}

// Static is a Provider pinned to one position. With a non-zero Interval the
// watch re-emits the position periodically, which keeps downstream
// staleness logic honest in tests and demos.
type Static struct {
	Position Position
	Interval time.Duration
}

// NewStatic creates a provider pinned to the given coordinates.
func NewStatic(lat, lon float64) *Static {
	return &Static{Position: Position{Latitude: lat, Longitude: lon}}
}

// Current returns the pinned position.
func (s *Static) Current(_ context.Context) (Position, error) {
	p := s.Position
	p.Timestamp = time.Now()
	return p, nil
}

// Watch emits the pinned position immediately, then on every interval tick.
func (s *Static) Watch(ctx context.Context) (<-chan Position, error) {
	ch := make(chan Position, 1)
	p := s.Position
	p.Timestamp = time.Now()
	ch <- p

	go func() {
		defer close(ch)
		if s.Interval <= 0 {
			<-ctx.Done()
			return
		}
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p := s.Position
				p.Timestamp = time.Now()
				select {
				case ch <- p:
				default: // slow consumer keeps the freshest fix
				}
			}
		}
	}()
	return ch, nil
}

// None is a Provider with no position source; every call fails with
// ErrUnavailable.
type None struct{}

// Current always fails.
func (None) Current(_ context.Context) (Position, error) {
	return Position{}, ErrUnavailable
}

// Watch always fails.
func (None) Watch(_ context.Context) (<-chan Position, error) {
	return nil, ErrUnavailable
}

// Parse reads a "<lat>,<lon>" string, the format used by flags and the
// environment.
func Parse(s string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("position %q: want \"lat,lon\"", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Position{}, fmt.Errorf("position %q: bad latitude: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Position{}, fmt.Errorf("position %q: bad longitude: %w", s, err)
	}

	if lat < -90 || lat > 90 {
		return Position{}, fmt.Errorf("position %q: latitude out of range", s)
	}
	if lon < -180 || lon > 180 {
		return Position{}, fmt.Errorf("position %q: longitude out of range", s)
	}

	return Position{Latitude: lat, Longitude: lon}, nil
}

var (
	_ Provider = (*Static)(nil)
	_ Provider = None{}
)
