package station_test

import (
	"testing"

	"github.com/dearxcorex/MakeItFast/internal/station"
)

func TestParseInspectionStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want station.InspectionStatus
	}{
		{"stringified true", "true", station.InspectionInspected},
		{"stringified false", "false", station.InspectionNotInspected},
		{"canonical inspected", "inspected", station.InspectionInspected},
		{"canonical not inspected", "not_inspected", station.InspectionNotInspected},
		{"spaced not inspected", "not inspected", station.InspectionNotInspected},
		{"thai inspected", "ตรวจแล้ว", station.InspectionInspected},
		{"thai not inspected", "ยังไม่ตรวจ", station.InspectionNotInspected},
		{"empty means not inspected", "", station.InspectionNotInspected},
		{"whitespace only", "   ", station.InspectionNotInspected},
		{"mixed case", "Inspected", station.InspectionInspected},
		{"surrounding whitespace", "  true  ", station.InspectionInspected},
		{"free text survives verbatim", "รอตรวจสอบ", station.InspectionStatus("รอตรวจสอบ")},
		{"free text trimmed", "  pending review ", station.InspectionStatus("pending review")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := station.ParseInspectionStatus(tt.raw); got != tt.want {
				t.Errorf("ParseInspectionStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseSubmitDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want station.SubmitDecision
	}{
		{"stringified true", "true", station.SubmitSubmitted},
		{"stringified false", "false", station.SubmitNotSubmitted},
		{"canonical submitted", "submitted", station.SubmitSubmitted},
		{"canonical not submitted", "not_submitted", station.SubmitNotSubmitted},
		{"spaced not submitted", "not submitted", station.SubmitNotSubmitted},
		{"thai submitted", "ยื่นแล้ว", station.SubmitSubmitted},
		{"thai not submitted", "ไม่ยื่น", station.SubmitNotSubmitted},
		{"empty means undecided", "", station.SubmitUndecided},
		{"unknown value means undecided", "maybe", station.SubmitUndecided},
		{"mixed case", "Submitted", station.SubmitSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := station.ParseSubmitDecision(tt.raw); got != tt.want {
				t.Errorf("ParseSubmitDecision(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// Round-tripping a value that was explicitly set to not submitted must
// survive every display encoding, because the not-submitted filter keys on
// exactly this value.
func TestParseSubmitDecision_NotSubmittedRoundTrip(t *testing.T) {
	encodings := []string{"false", "not_submitted", "not submitted", "ไม่ยื่น"}
	for _, raw := range encodings {
		if got := station.ParseSubmitDecision(raw); got != station.SubmitNotSubmitted {
			t.Errorf("ParseSubmitDecision(%q) = %q, want %q", raw, got, station.SubmitNotSubmitted)
		}
	}
}
