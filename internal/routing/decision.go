package routing

import "garageleadly/internal/leads"

// Action is what an assignment run did to the lead.
type Action string

const (
	ActionAssigned   Action = "assigned"
	ActionUnassigned Action = "unassigned"
	// ActionUnchanged means the lead was already past unassigned when the run started or lost a race.
	ActionUnchanged Action = "unchanged"
)

// Reason explains an Outcome for logs, metrics and the operator queue.
type Reason string

const (
	ReasonSelected         Reason = "selected"
	ReasonNoTerritoryMatch Reason = "no_territory_match"
	ReasonCapacityExceeded Reason = "capacity_exceeded"
	ReasonAlreadyAssigned  Reason = "already_assigned"
	ReasonConflict         Reason = "assignment_conflict"
	ReasonManual           Reason = "manual_assignment"
	ReasonOverCap          Reason = "over_cap_override"
	ReasonUnassigned       Reason = "lead_unassigned"
	ReasonNoop             Reason = "noop"
)

// Outcome is the result of an assignment attempt. No eligible contractor is an outcome, not an error.
type Outcome struct {
	Lead   leads.Lead `json:"lead"`
	Action Action     `json:"action"`
	Reason Reason     `json:"reason"`
	// Candidates is how many targets matched the lead's territory.
	Candidates int `json:"candidates"`
}
