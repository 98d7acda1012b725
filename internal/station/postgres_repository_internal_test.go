package station

import (
	"fmt"
	"testing"
	"time"
)

// storedRow plays back one stored row into scanStation's destinations.
type storedRow struct {
	values []any
}

func (r storedRow) Scan(dest ...any) error {
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d destinations, got %d", len(r.values), len(dest))
	}
	for i, src := range r.values {
		switch d := dest[i].(type) {
		case *int64:
			*d = src.(int64)
		case *string:
			*d = src.(string)
		case *float64:
			*d = src.(float64)
		case *bool:
			*d = src.(bool)
		case **time.Time:
			*d = src.(*time.Time)
		case *time.Time:
			*d = src.(time.Time)
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func legacyRow(inspection, submit string) storedRow {
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	return storedRow{values: []any{
		int64(42), "Lanna Voice", 88.0, 18.9167, 98.8833,
		"Mae Rim", "Chiang Mai", "", "",
		true, inspection, (*time.Time)(nil), "", false, submit,
		now, now,
	}}
}

func TestScanStation_NormalizesLegacyEncodings(t *testing.T) {
	tests := []struct {
		name           string
		inspection     string
		submit         string
		wantInspection InspectionStatus
		wantSubmit     SubmitDecision
	}{
		{"thai strings", "ตรวจแล้ว", "ไม่ยื่น", InspectionInspected, SubmitNotSubmitted},
		{"stringified booleans", "true", "false", InspectionInspected, SubmitNotSubmitted},
		{"canonical passthrough", "not_inspected", "submitted", InspectionNotInspected, SubmitSubmitted},
		{"empty columns", "", "", InspectionNotInspected, SubmitUndecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := scanStation(legacyRow(tt.inspection, tt.submit))
			if err != nil {
				t.Fatalf("failed to scan row: %v", err)
			}
			if s.Inspection != tt.wantInspection {
				t.Errorf("expected inspection %q, got %q", tt.wantInspection, s.Inspection)
			}
			if s.SubmitRequest != tt.wantSubmit {
				t.Errorf("expected submit request %q, got %q", tt.wantSubmit, s.SubmitRequest)
			}
		})
	}
}
