// Package events carries station change notifications between the API, the
// live fan-out service, and any other consumer of the station feed. The API
// publishes one envelope per accepted write; consumers must tolerate
// duplicates and out-of-order delivery.
package events

import (
	"encoding/json"
	"time"
)

// Type identifies what happened to the resource in an envelope.
type Type string

const (
	// TypeInit marks a full-list snapshot sent to a consumer that just
	// subscribed. Init envelopes never travel over the bus; the live
	// service synthesizes them per connection.
	TypeInit Type = "INIT"

	// TypeNew marks a newly created record.
	TypeNew Type = "NEW"

	// TypeUpdate marks a change to an existing record.
	TypeUpdate Type = "UPDATE"

	// TypeDelete marks a removed record. Data carries the last known state.
	TypeDelete Type = "DELETE"
)

// ResourceStation is the only resource currently carried on the bus.
const ResourceStation = "station"

// Envelope wraps a single resource change.
type Envelope struct {
	Type      Type            `json:"type"`
	Resource  string          `json:"resource"`
	ID        int64           `json:"id"`
	Province  string          `json:"province,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewStationUpdate builds an UPDATE envelope for a station. Data must be
// the canonical wire JSON of the record after the change.
func NewStationUpdate(id int64, province string, data json.RawMessage) Envelope {
	return Envelope{
		Type:      TypeUpdate,
		Resource:  ResourceStation,
		ID:        id,
		Province:  province,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NewStationSnapshot builds an INIT envelope carrying the full station list
// for one topic. Data must be a JSON array of wire station records; a
// subscriber replaces its working copy with it wholesale, which is what
// heals deletions missed while disconnected.
func NewStationSnapshot(province string, data json.RawMessage) Envelope {
	return Envelope{
		Type:      TypeInit,
		Resource:  ResourceStation,
		Province:  province,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
