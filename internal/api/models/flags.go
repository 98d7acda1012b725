package models

// Flag represents a runtime feature flag.
type Flag struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// FlagUpdateRequest is the request body for setting a flag.
type FlagUpdateRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
