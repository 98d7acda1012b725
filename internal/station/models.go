// Package station defines the canonical FM station model shared by the API
// server, the seed tooling, and the tracker client core, together with the
// single translation layer that normalizes the boundary's historical
// string/boolean encodings.
package station

import (
	"strconv"
	"time"
)

// InspectionStatus is the canonical tri-state inspection marker. The two
// named values cover the regular cases; any other non-empty value is an
// uncategorized free-text outcome carried verbatim from the boundary.
type InspectionStatus string

const (
	InspectionInspected    InspectionStatus = "inspected"
	InspectionNotInspected InspectionStatus = "not_inspected"
)

// Inspected reports whether the status is the canonical "inspected" value.
func (s InspectionStatus) Inspected() bool {
	return s == InspectionInspected
}

// SubmitDecision is the canonical tri-state paperwork marker: undecided
// (zero value), submitted, or explicitly not submitted.
type SubmitDecision string

const (
	SubmitUndecided    SubmitDecision = ""
	SubmitSubmitted    SubmitDecision = "submitted"
	SubmitNotSubmitted SubmitDecision = "not_submitted"
)

// Detail annotation tags. At most one is active per station; the empty
// string means no annotation.
const (
	DetailDeviation = "#deviation"
	DetailHarmonic  = "#harmonic"
	DetailSpurious  = "#spurious"
	DetailOverpower = "#overpower"
)

// DetailTags lists the recognized detail annotations.
var DetailTags = []string{DetailDeviation, DetailHarmonic, DetailSpurious, DetailOverpower}

// ValidDetail reports whether tag is a recognized detail annotation or the
// empty string (clear).
func ValidDetail(tag string) bool {
	if tag == "" {
		return true
	}
	for _, t := range DetailTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Station is the canonical record for one licensed FM transmitter.
// The authoritative copy lives in the store; clients hold working copies
// that may transiently diverge until reconciled.
type Station struct {
	ID          int64
	Name        string
	Frequency   float64 // MHz
	Latitude    float64
	Longitude   float64
	City        string
	Province    string
	Genre       string
	Description string

	OnAir      bool
	Inspection InspectionStatus
	// DateInspected is server-owned: stamped when inspection is set to
	// inspected, cleared when it is set back. Clients never compute it.
	DateInspected *time.Time
	Details       string
	Unwanted      bool
	SubmitRequest SubmitDecision

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the station.
func (s *Station) Clone() *Station {
	if s == nil {
		return nil
	}
	clone := *s
	if s.DateInspected != nil {
		d := *s.DateInspected
		clone.DateInspected = &d
	}
	return &clone
}

// Equal reports whether two stations carry the same field values.
// Timestamps compare by instant, so a record decoded from the wire
// compares equal to the in-memory original it round-tripped from.
func (s *Station) Equal(other *Station) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID || s.Name != other.Name || s.Frequency != other.Frequency ||
		s.Latitude != other.Latitude || s.Longitude != other.Longitude ||
		s.City != other.City || s.Province != other.Province ||
		s.Genre != other.Genre || s.Description != other.Description ||
		s.OnAir != other.OnAir || s.Inspection != other.Inspection ||
		s.Details != other.Details || s.Unwanted != other.Unwanted ||
		s.SubmitRequest != other.SubmitRequest {
		return false
	}
	if (s.DateInspected == nil) != (other.DateInspected == nil) {
		return false
	}
	if s.DateInspected != nil && !s.DateInspected.Equal(*other.DateInspected) {
		return false
	}
	return s.CreatedAt.Equal(other.CreatedAt) && s.UpdatedAt.Equal(other.UpdatedAt)
}

// CoordinateKey returns the exact "<latitude>,<longitude>" string used for
// map-position grouping. Equality is string equality of the shortest
// round-trip formatting, not a distance threshold: stations must report
// identical decimal coordinates to share a key.
func (s *Station) CoordinateKey() string {
	return strconv.FormatFloat(s.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(s.Longitude, 'f', -1, 64)
}

// MarkerCategory is the status-derived icon class for map rendering.
type MarkerCategory string

const (
	MarkerNotSubmitted MarkerCategory = "not_submitted"
	MarkerOffAir       MarkerCategory = "off_air"
	MarkerInspected    MarkerCategory = "inspected"
	MarkerNotInspected MarkerCategory = "not_inspected"
)

// Marker derives the icon category for the station. The four categories are
// mutually exclusive and evaluated in precedence order: explicitly not
// submitted, then off-air, then inspected, then everything else.
func (s *Station) Marker() MarkerCategory {
	switch {
	case s.SubmitRequest == SubmitNotSubmitted:
		return MarkerNotSubmitted
	case !s.OnAir:
		return MarkerOffAir
	case s.Inspection.Inspected():
		return MarkerInspected
	default:
		return MarkerNotInspected
	}
}
