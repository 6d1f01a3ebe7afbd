package routing

import (
	"context"
	"encoding/json"
	"time"

	"garageleadly/internal/audit"
)

// AuditLogger records internal-only assignment events.
type AuditLogger interface {
	LogAssignment(ctx context.Context, e AssignmentAuditEvent) error
}

type AssignmentAuditEvent struct {
	Kind Reason

	LeadID               string
	ContractorID         string
	CampaignID           string
	PreviousContractorID string

	ActorUserID string
	ActorRole   string
	IPAddress   string

	Note string
	At   time.Time
}

// AuditAdapter bridges routing's audit hook to the shared audit.Service.
type AuditAdapter struct {
	Audit *audit.Service
}

var auditTypes = map[Reason]audit.EventType{
	ReasonManual:     audit.EventTypeManualAssignment,
	ReasonOverCap:    audit.EventTypeOverCapOverride,
	ReasonConflict:   audit.EventTypeAssignmentConflict,
	ReasonUnassigned: audit.EventTypeLeadUnassigned,
}

func (a AuditAdapter) LogAssignment(ctx context.Context, e AssignmentAuditEvent) error {
	if a.Audit == nil {
		return nil
	}
	t, ok := auditTypes[e.Kind]
	if !ok {
		t = audit.EventType(e.Kind)
	}

	meta := ""
	if e.PreviousContractorID != "" {
		b, err := json.Marshal(map[string]string{"previous_contractor_id": e.PreviousContractorID})
		if err != nil {
			return err
		}
		meta = string(b)
	}

	return a.Audit.Append(ctx, audit.Event{
		Type:         t,
		ActorUserID:  e.ActorUserID,
		ActorRole:    e.ActorRole,
		IPAddress:    e.IPAddress,
		LeadID:       e.LeadID,
		ContractorID: e.ContractorID,
		CampaignID:   e.CampaignID,
		Message:      e.Note,
		Metadata:     meta,
		CreatedAt:    e.At,
	})
}
