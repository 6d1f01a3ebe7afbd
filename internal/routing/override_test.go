package routing

import (
	"context"
	"errors"
	"testing"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/rbac"
)

var (
	operator   = Actor{UserID: "u-op", Role: rbac.RoleOperator, IP: "10.0.0.1"}
	superAdmin = Actor{UserID: "u-root", Role: rbac.RoleSuperAdmin, IP: "10.0.0.2"}
)

func TestForceAssign_AtCapRejectedForOperator(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "b", 2, "Fort Bend")
	f.delivered(t, "b", 2)
	l := f.lead(t, "Harris")

	_, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "b", Actor: operator})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	got, _ := f.leads.Get(context.Background(), l.ID)
	if got.Status != leads.StatusUnassigned {
		t.Fatalf("lead must stay unassigned, got %s", got.Status)
	}

	_, err = f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "b", AllowOverCap: true, Actor: operator})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for operator over-cap, got %v", err)
	}
}

func TestForceAssign_SuperAdminOverCapIsFlagged(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "b", 2, "Fort Bend")
	f.delivered(t, "b", 2)
	l := f.lead(t, "Harris")

	out, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{
		LeadID: l.ID, ContractorID: "b", AllowOverCap: true, Reason: "customer asked for b", Actor: superAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Reason != ReasonOverCap || !out.Lead.OverCap || out.Lead.ContractorID != "b" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	n, _, _ := f.counter.Count(context.Background(), Slot{Scope: ScopeContractor, ID: "b", Day: DayOf(testNow, chicago).Key})
	if n != 3 {
		t.Fatalf("expected counter past cap at 3, got %d", n)
	}
	kinds := f.audit.kinds()
	if len(kinds) != 2 || kinds[0] != ReasonManual || kinds[1] != ReasonOverCap {
		t.Fatalf("expected manual + over-cap audit, got %v", kinds)
	}
	if f.audit.events[1].IPAddress != "10.0.0.2" || f.audit.events[1].ActorUserID != "u-root" {
		t.Fatalf("expected actor recorded, got %+v", f.audit.events[1])
	}
}

func TestForceAssign_IgnoresTerritoryButRespectsCap(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "b", 1, "Fort Bend")
	l := f.lead(t, "Harris")

	out, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "b", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Action != ActionAssigned || out.Reason != ReasonManual || out.Lead.OverCap {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(f.notify.leads) != 1 || len(f.biller.charged) != 1 {
		t.Fatalf("expected notify and charge after manual assignment")
	}
}

func TestForceAssign_ReassignReleasesPreviousSlot(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "a", 1, "Harris")
	f.contractor(t, "b", 1, "Harris")
	l := f.lead(t, "Harris")

	first, err := f.a.AutoAssign(context.Background(), l.ID)
	if err != nil || first.Lead.ContractorID != "a" {
		t.Fatalf("expected auto assign to a, got %+v err=%v", first, err)
	}

	out, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "b", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Lead.ContractorID != "b" {
		t.Fatalf("expected b, got %s", out.Lead.ContractorID)
	}

	day := DayOf(testNow, chicago).Key
	if n, _, _ := f.counter.Count(context.Background(), Slot{Scope: ScopeContractor, ID: "a", Day: day}); n != 0 {
		t.Fatalf("expected a's slot released, got %d", n)
	}
	if f.audit.events[0].PreviousContractorID != "a" {
		t.Fatalf("expected previous contractor in audit, got %+v", f.audit.events[0])
	}

	// a has capacity again for the next lead.
	next, err := f.a.AutoAssign(context.Background(), f.lead(t, "Harris").ID)
	if err != nil || next.Lead.ContractorID != "a" {
		t.Fatalf("expected next lead to a, got %+v err=%v", next, err)
	}
}

func TestForceAssign_SameContractor(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "a", 2, "Harris")
	l := f.lead(t, "Harris")
	if _, err := f.a.AutoAssign(context.Background(), l.ID); err != nil {
		t.Fatalf("auto: %v", err)
	}

	out, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Action != ActionUnchanged || out.Reason != ReasonNoop {
		t.Fatalf("expected noop, got %+v", out)
	}

	// From the outcome track the override resets the lead to assigned without a new slot.
	if _, err := f.leads.UpdateOutcome(context.Background(), l.ID, leads.StatusAssigned, leads.OutcomeUpdate{Status: leads.StatusCalled}, testNow); err != nil {
		t.Fatalf("outcome: %v", err)
	}
	out, err = f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Lead.Status != leads.StatusAssigned {
		t.Fatalf("expected status reset to assigned, got %s", out.Lead.Status)
	}
	n, _, _ := f.counter.Count(context.Background(), Slot{Scope: ScopeContractor, ID: "a", Day: DayOf(testNow, chicago).Key})
	if n != 1 {
		t.Fatalf("expected a single slot held, got %d", n)
	}
}

func TestForceAssign_SameContractorResetRenotifiesWithoutCharge(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "a", 2, "Harris")
	l := f.lead(t, "Harris")
	ctx := context.Background()
	if _, err := f.a.AutoAssign(ctx, l.ID); err != nil {
		t.Fatalf("auto: %v", err)
	}
	if _, err := f.leads.UpdateOutcome(ctx, l.ID, leads.StatusAssigned, leads.OutcomeUpdate{Status: leads.StatusCalled}, testNow); err != nil {
		t.Fatalf("outcome: %v", err)
	}
	if err := f.leads.SetNotificationStatus(ctx, l.ID, leads.NotificationSent); err != nil {
		t.Fatalf("notification status: %v", err)
	}

	out, err := f.a.ForceAssign(ctx, ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Action != ActionAssigned || out.Lead.NotificationStatus != leads.NotificationPending {
		t.Fatalf("expected pending notification after reset, got %+v", out)
	}
	if len(f.notify.leads) != 2 || f.notify.leads[1] != l.ID {
		t.Fatalf("expected a second dispatch for %s, got %v", l.ID, f.notify.leads)
	}
	if len(f.biller.charged) != 1 {
		t.Fatalf("expected the lead charged once, got %v", f.biller.charged)
	}
}

func TestForceAssign_SameContractorDispatchFailureFlagsLead(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "a", 2, "Harris")
	l := f.lead(t, "Harris")
	ctx := context.Background()
	if _, err := f.a.AutoAssign(ctx, l.ID); err != nil {
		t.Fatalf("auto: %v", err)
	}
	if _, err := f.leads.UpdateOutcome(ctx, l.ID, leads.StatusAssigned, leads.OutcomeUpdate{Status: leads.StatusCalled}, testNow); err != nil {
		t.Fatalf("outcome: %v", err)
	}

	f.notify.err = errors.New("queue down")
	out, err := f.a.ForceAssign(ctx, ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: operator})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Lead.Status != leads.StatusAssigned || out.Lead.NotificationStatus != leads.NotificationFailed {
		t.Fatalf("expected assigned lead flagged for resend, got %+v", out.Lead)
	}
}

func TestForceAssign_RejectsInactiveAndNonStaff(t *testing.T) {
	f := newFixture(t)
	c := f.contractor(t, "a", 2, "Harris")
	c.Status = contractors.StatusInactive
	if err := f.roster.Update(context.Background(), c); err != nil {
		t.Fatalf("update: %v", err)
	}
	l := f.lead(t, "Harris")

	if _, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: operator}); !errors.Is(err, ErrContractorInactive) {
		t.Fatalf("expected ErrContractorInactive, got %v", err)
	}
	if _, err := f.a.ForceAssign(context.Background(), ForceAssignRequest{LeadID: l.ID, ContractorID: "a", Actor: Actor{Role: rbac.RoleContractor}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUnassign_ReturnsLeadToQueue(t *testing.T) {
	f := newFixture(t)
	f.contractor(t, "a", 1, "Harris")
	l := f.lead(t, "Harris")
	if _, err := f.a.AutoAssign(context.Background(), l.ID); err != nil {
		t.Fatalf("auto: %v", err)
	}

	got, err := f.a.Unassign(context.Background(), l.ID, "wrong county", operator)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != leads.StatusUnassigned || got.ContractorID != "" {
		t.Fatalf("unexpected lead: %+v", got)
	}
	n, _, _ := f.counter.Count(context.Background(), Slot{Scope: ScopeContractor, ID: "a", Day: DayOf(testNow, chicago).Key})
	if n != 0 {
		t.Fatalf("expected slot released, got %d", n)
	}
	if k := f.audit.kinds(); len(k) != 1 || k[0] != ReasonUnassigned {
		t.Fatalf("expected unassign audit, got %v", k)
	}
}

func TestUnassign_TerminalLeadRejected(t *testing.T) {
	f := newFixture(t)
	l := leads.Lead{ID: "done", Status: leads.StatusCompleted, ContractorID: "a", SubmittedAt: testNow}
	_ = f.leads.Create(context.Background(), l)

	if _, err := f.a.Unassign(context.Background(), l.ID, "", operator); !errors.Is(err, leads.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAuditAdapter_MapsKinds(t *testing.T) {
	repo := audit.NewMemoryRepo()
	ad := AuditAdapter{Audit: audit.NewService(repo)}

	err := ad.LogAssignment(context.Background(), AssignmentAuditEvent{
		Kind: ReasonOverCap, LeadID: "l1", ContractorID: "b", PreviousContractorID: "a", ActorRole: rbac.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	events := repo.OfType(audit.EventTypeOverCapOverride)
	if len(events) != 1 {
		t.Fatalf("expected one over-cap event, got %d", len(events))
	}
	if events[0].Metadata != `{"previous_contractor_id":"a"}` {
		t.Fatalf("unexpected metadata: %s", events[0].Metadata)
	}
}
