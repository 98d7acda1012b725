package models

// Station is the canonical wire representation of an FM station record.
//
// inspection68 is the fiscal-year-2568 inspection status column inherited
// from the source dataset; renaming it would break every downstream
// consumer, so the wire keeps the historical name.
// Inspection and SubmitRequest use TriState because older backends emit
// booleans for these columns; this server always responds with the
// canonical strings.
type Station struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Frequency     float64  `json:"frequency"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	City          string   `json:"city"`
	Province      string   `json:"province"`
	Genre         string   `json:"genre,omitempty"`
	Description   string   `json:"description,omitempty"`
	OnAir         bool     `json:"onAir"`
	Inspection    TriState `json:"inspection68"`
	DateInspected *Date    `json:"dateInspected,omitempty"`
	Details       string   `json:"details,omitempty"`
	Unwanted      bool     `json:"unwanted"`
	SubmitRequest TriState `json:"submitRequest,omitempty"`

	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// StationListResponse is the response body for station collection reads.
type StationListResponse struct {
	Items []Station `json:"items"`
	Count int       `json:"count"`
	AsOf  Timestamp `json:"asOf"`
}

// StationPatchRequest is the request body for partial station updates.
// Absent fields are left untouched; the server merges per field. The
// inspection date is derived server-side and cannot be set here.
type StationPatchRequest struct {
	OnAir         *bool     `json:"onAir,omitempty"`
	Inspection    *TriState `json:"inspection68,omitempty"`
	Details       *string   `json:"details,omitempty"`
	Unwanted      *bool     `json:"unwanted,omitempty"`
	SubmitRequest *TriState `json:"submitRequest,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (r StationPatchRequest) Empty() bool {
	return r.OnAir == nil && r.Inspection == nil && r.Details == nil &&
		r.Unwanted == nil && r.SubmitRequest == nil
}
