// Package audit records which reference data went into each calculation.
// Every assessment leaves a trail naming the table versions used and a
// summary of the result, so any output can be traced back to its sources.
package audit

import "time"

// Action names the calculation that produced an event.
type Action string

const (
	ActionAssessmentComputed    Action = "assessment_computed"
	ActionInterventionSimulated Action = "intervention_simulated"
	ActionProfileValidated      Action = "profile_validated"
)

// Event is one calculation's provenance record. It carries no raw profile
// fields; the fingerprint links equal inputs without storing them.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	RequestID string    `json:"request_id,omitempty"`

	// ProfileFingerprint is the schema-versioned digest of the input.
	ProfileFingerprint string `json:"profile_fingerprint"`

	// TableVersions maps data source name to the version consulted,
	// e.g. "life_table" -> "ssa-2021".
	TableVersions map[string]string `json:"table_versions"`

	ResultSummary string `json:"result_summary,omitempty"`
	Cached        bool   `json:"cached,omitempty"`

	ClientIP    string `json:"client_ip,omitempty"`
	ClientAgent string `json:"client_agent,omitempty"`
}
