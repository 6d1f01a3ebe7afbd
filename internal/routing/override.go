package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/metrics"
	"garageleadly/internal/rbac"
)

var (
	// ErrCapacityExceeded is returned by force assignment when the contractor is full
	// and no over-cap override was allowed. Auto-assignment reports capacity as an Outcome.
	ErrCapacityExceeded   = errors.New("contractor daily cap reached")
	ErrForbidden          = errors.New("forbidden")
	ErrContractorInactive = errors.New("contractor is inactive")
	ErrAssignmentConflict = errors.New("lead was changed by a concurrent assignment")
)

// Actor is the staff member performing a manual action.
type Actor struct {
	UserID string
	Role   string
	IP     string
}

type ForceAssignRequest struct {
	LeadID       string
	ContractorID string
	// AllowOverCap lets a super_admin assign past the contractor's daily cap.
	AllowOverCap bool
	Reason       string
	Actor        Actor
}

// ForceAssign assigns a lead to a chosen contractor regardless of territory.
// The daily cap still applies unless a super_admin allows going over it, in which case
// the lead is flagged over_cap. A previous contractor gets its slot back.
func (a *Assigner) ForceAssign(ctx context.Context, req ForceAssignRequest) (Outcome, error) {
	if req.LeadID == "" || req.ContractorID == "" {
		return Outcome{}, leads.ErrInvalidArgument
	}
	if !rbac.IsStaff(req.Actor.Role) {
		return Outcome{}, ErrForbidden
	}
	if req.AllowOverCap && !rbac.IsSuperAdmin(req.Actor.Role) {
		return Outcome{}, fmt.Errorf("%w: over-cap assignment requires super_admin", ErrForbidden)
	}

	l, err := a.leads.Get(ctx, req.LeadID)
	if err != nil {
		return Outcome{}, err
	}
	c, err := a.roster.Get(ctx, req.ContractorID)
	if err != nil {
		return Outcome{}, err
	}
	if !c.Active() {
		return Outcome{}, ErrContractorInactive
	}

	if l.ContractorID == c.ID {
		return a.reassertAssignment(ctx, l, req)
	}

	day := a.quota.Day(l.SubmittedAt)
	target := contractorTarget(c)
	ok, err := a.quota.Reserve(ctx, target, day)
	if err != nil {
		return Outcome{}, err
	}
	overCap := false
	if !ok {
		if !req.AllowOverCap {
			return Outcome{}, ErrCapacityExceeded
		}
		if _, err := a.quota.Force(ctx, target, day); err != nil {
			return Outcome{}, err
		}
		overCap = true
	}

	won, err := a.leads.Assign(ctx, leads.Assignment{
		LeadID:             l.ID,
		ContractorID:       c.ID,
		OverCap:            overCap,
		AssignedAt:         a.clock().UTC(),
		ExpectStatus:       l.Status,
		ExpectContractorID: l.ContractorID,
	})
	if err != nil || !won {
		if rerr := a.quota.Release(ctx, target, day); rerr != nil {
			a.log(ctx).Error("release contractor slot", "contractor_id", c.ID, "day", day.Key, "error", rerr)
		}
		if err != nil {
			return Outcome{}, err
		}
		metrics.AssignmentConflicts.Inc()
		return Outcome{}, ErrAssignmentConflict
	}

	a.releaseLead(ctx, l)

	base := AssignmentAuditEvent{
		LeadID:               l.ID,
		ContractorID:         c.ID,
		PreviousContractorID: l.ContractorID,
		ActorUserID:          req.Actor.UserID,
		ActorRole:            req.Actor.Role,
		IPAddress:            req.Actor.IP,
		Note:                 strings.TrimSpace(req.Reason),
	}
	manual := base
	manual.Kind = ReasonManual
	a.recordAudit(ctx, manual)

	reason := ReasonManual
	if overCap {
		over := base
		over.Kind = ReasonOverCap
		a.recordAudit(ctx, over)
		reason = ReasonOverCap
	}

	assigned, err := a.leads.Get(ctx, l.ID)
	if err != nil {
		return Outcome{}, err
	}
	a.afterAssign(ctx, assigned, c)
	metrics.AssignmentOutcomes.WithLabelValues(string(ActionAssigned), string(reason)).Inc()
	a.log(ctx).Info("lead force assigned",
		"lead_id", l.ID,
		"contractor_id", c.ID,
		"previous_contractor_id", l.ContractorID,
		"over_cap", overCap,
		"actor_user_id", req.Actor.UserID,
	)
	return Outcome{Lead: assigned, Action: ActionAssigned, Reason: reason}, nil
}

// reassertAssignment handles forcing a lead onto the contractor that already has it.
// The slot is already held and the lead was already charged, so only the notification
// goes out again.
func (a *Assigner) reassertAssignment(ctx context.Context, l leads.Lead, req ForceAssignRequest) (Outcome, error) {
	if l.Status == leads.StatusAssigned {
		return Outcome{Lead: l, Action: ActionUnchanged, Reason: ReasonNoop}, nil
	}
	won, err := a.leads.Assign(ctx, leads.Assignment{
		LeadID:             l.ID,
		ContractorID:       l.ContractorID,
		CampaignID:         l.CampaignID,
		OverCap:            l.OverCap,
		AssignedAt:         a.clock().UTC(),
		ExpectStatus:       l.Status,
		ExpectContractorID: l.ContractorID,
	})
	if err != nil {
		return Outcome{}, err
	}
	if !won {
		return Outcome{}, ErrAssignmentConflict
	}
	a.recordAudit(ctx, AssignmentAuditEvent{
		Kind:         ReasonManual,
		LeadID:       l.ID,
		ContractorID: l.ContractorID,
		CampaignID:   l.CampaignID,
		ActorUserID:  req.Actor.UserID,
		ActorRole:    req.Actor.Role,
		IPAddress:    req.Actor.IP,
		Note:         "status reset to assigned: " + strings.TrimSpace(req.Reason),
	})
	a.notifyAssigned(ctx, l.ID)
	cur, err := a.leads.Get(ctx, l.ID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Lead: cur, Action: ActionAssigned, Reason: ReasonManual}, nil
}

// Unassign returns a lead to the operator queue and gives its slot back.
// Completed and lost leads are final and cannot be unassigned.
func (a *Assigner) Unassign(ctx context.Context, leadID, reason string, actor Actor) (leads.Lead, error) {
	if leadID == "" {
		return leads.Lead{}, leads.ErrInvalidArgument
	}
	if !rbac.IsStaff(actor.Role) {
		return leads.Lead{}, ErrForbidden
	}
	l, err := a.leads.Get(ctx, leadID)
	if err != nil {
		return leads.Lead{}, err
	}
	if l.Status == leads.StatusUnassigned {
		return l, nil
	}
	if l.Status.Terminal() {
		return leads.Lead{}, fmt.Errorf("%w: %s lead cannot be unassigned", leads.ErrInvalidTransition, l.Status)
	}

	won, err := a.leads.Unassign(ctx, l.ID, l.Status, l.ContractorID, a.clock().UTC())
	if err != nil {
		return leads.Lead{}, err
	}
	if !won {
		return leads.Lead{}, ErrAssignmentConflict
	}
	a.releaseLead(ctx, l)
	a.recordAudit(ctx, AssignmentAuditEvent{
		Kind:                 ReasonUnassigned,
		LeadID:               l.ID,
		ContractorID:         l.ContractorID,
		PreviousContractorID: l.ContractorID,
		CampaignID:           l.CampaignID,
		ActorUserID:          actor.UserID,
		ActorRole:            actor.Role,
		IPAddress:            actor.IP,
		Note:                 strings.TrimSpace(reason),
	})
	return a.leads.Get(ctx, l.ID)
}

var _ Roster = (*contractors.Service)(nil)
