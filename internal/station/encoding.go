package station

import "strings"

// Boundary encodings for the inspection and submission tri-states have
// drifted across store generations: booleans, Thai display strings, and
// English strings all appear in older rows. Everything funnels through the two
// parsers below so display encodings never reach filter or comparison
// logic; writes always emit the canonical English values.

// Thai display strings observed at the boundary.
const (
	thaiInspected    = "ตรวจแล้ว"
	thaiNotInspected = "ยังไม่ตรวจ"
	thaiSubmitted    = "ยื่นแล้ว"
	thaiNotSubmitted = "ไม่ยื่น"
)

// ParseInspectionStatus normalizes a boundary inspection value to the
// canonical enumeration. Booleans arrive here already stringified by the
// wire layer. Unrecognized non-empty values are kept verbatim as free-text
// outcomes; the empty string means not inspected.
func ParseInspectionStatus(raw string) InspectionStatus {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "false", "not inspected", "not_inspected", thaiNotInspected:
		return InspectionNotInspected
	case "true", "inspected", thaiInspected:
		return InspectionInspected
	default:
		return InspectionStatus(trimmed)
	}
}

// ParseSubmitDecision normalizes a boundary submit-request value to the
// canonical tri-state. Unrecognized values fall back to undecided rather
// than guessing.
func ParseSubmitDecision(raw string) SubmitDecision {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true", "submitted", thaiSubmitted:
		return SubmitSubmitted
	case "false", "not submitted", "not_submitted", thaiNotSubmitted:
		return SubmitNotSubmitted
	default:
		return SubmitUndecided
	}
}

// KnownSubmitEncoding reports whether raw is a recognized submit-request
// encoding, including the empty and undecided forms. The lenient fallback
// in ParseSubmitDecision is for legacy rows already in the store; new
// writes carrying an unrecognized value are rejected instead of being
// coerced to undecided.
func KnownSubmitEncoding(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "undecided",
		"true", "submitted", thaiSubmitted,
		"false", "not submitted", "not_submitted", thaiNotSubmitted:
		return true
	}
	return false
}
