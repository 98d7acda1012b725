// Package featureflags provides runtime flags for operational switches.
// Flags live in Postgres so they can be flipped without a deploy; readers
// see changes within the cache TTL.
package featureflags

import "time"

// Well-known flag keys.
const (
	// FlagReadOnlyMode freezes station edits. PATCH requests are rejected
	// with a read-only problem while it is enabled, typically during an
	// audit of the inspection records.
	FlagReadOnlyMode = "read_only_mode"

	// FlagLiveFeed advertises the websocket push path. Trackers fall back
	// to polling when it is disabled.
	FlagLiveFeed = "live_feed"
)

// Flag is a single boolean runtime flag.
type Flag struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultFlags returns the values used when a flag has never been written.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagReadOnlyMode: {
			Key:       FlagReadOnlyMode,
			Enabled:   false,
			UpdatedAt: now,
		},
		FlagLiveFeed: {
			Key:       FlagLiveFeed,
			Enabled:   true,
			UpdatedAt: now,
		},
	}
}
