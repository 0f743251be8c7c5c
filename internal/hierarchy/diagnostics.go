package hierarchy

// DiagnosticKind classifies a recoverable problem found while resolving a tree.
type DiagnosticKind string

const (
	DiagMalformedMapping DiagnosticKind = "malformed_mapping"
	DiagCycle            DiagnosticKind = "cycle"
	DiagOrphan           DiagnosticKind = "orphan"
	DiagDuplicateID      DiagnosticKind = "duplicate_id"
	DiagMissingID        DiagnosticKind = "missing_id"
	DiagUnknownCriteria  DiagnosticKind = "unknown_criteria"
	DiagInvalidCriteria  DiagnosticKind = "invalid_criteria"
)

// Diagnostic describes one skipped or repaired input row.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	EntityID string         `json:"entity_id,omitempty"`
	Detail   string         `json:"detail"`
}

// Diagnostics is the list returned next to every build.
type Diagnostics []Diagnostic

// Count returns how many diagnostics of kind were recorded.
func (d Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, diag := range d {
		if diag.Kind == kind {
			n++
		}
	}
	return n
}

// CountByKind groups diagnostic counts, used for metrics and log fields.
func (d Diagnostics) CountByKind() map[DiagnosticKind]int {
	out := make(map[DiagnosticKind]int)
	for _, diag := range d {
		out[diag.Kind]++
	}
	return out
}

func (d *Diagnostics) add(kind DiagnosticKind, entityID, detail string) {
	*d = append(*d, Diagnostic{Kind: kind, EntityID: entityID, Detail: detail})
}
