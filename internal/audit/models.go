package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is empty for system-initiated events.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	LeadID       string `json:"lead_id,omitempty" db:"lead_id"`
	ContractorID string `json:"contractor_id,omitempty" db:"contractor_id"`
	CampaignID   string `json:"campaign_id,omitempty" db:"campaign_id"`

	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeManualAssignment   EventType = "manual_assignment"
	EventTypeOverCapOverride    EventType = "over_cap_override"
	EventTypeAssignmentConflict EventType = "assignment_conflict"
	EventTypeLeadUnassigned     EventType = "lead_unassigned"
	EventTypeNotificationFailed EventType = "notification_failed"
	EventTypeContractorStatus   EventType = "contractor_status_changed"
	EventTypeTerritoryUpdated   EventType = "territory_updated"
	EventTypeChargeFailed       EventType = "charge_failed"
)
