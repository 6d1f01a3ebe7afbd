package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/metrics"
	"garageleadly/pkg/logger"
)

// LeadStore is the slice of the lead repository the assigner needs.
type LeadStore interface {
	Get(ctx context.Context, id string) (leads.Lead, error)
	Assign(ctx context.Context, a leads.Assignment) (bool, error)
	Unassign(ctx context.Context, id string, expectStatus leads.Status, expectContractorID string, at time.Time) (bool, error)
	SetNotificationStatus(ctx context.Context, id string, st leads.NotificationStatus) error
}

// Roster lists who can receive leads. contractors.Service implements it.
type Roster interface {
	Get(ctx context.Context, id string) (contractors.Contractor, error)
	ListActive(ctx context.Context) ([]contractors.Contractor, error)
	ListActiveCampaigns(ctx context.Context) ([]contractors.Campaign, error)
}

// Dispatcher hands an assigned lead to the notifier. It must not block on delivery.
type Dispatcher interface {
	DispatchLeadAssigned(ctx context.Context, leadID string) error
}

// Biller records the per-lead charge for an assignment.
type Biller interface {
	ChargeLead(ctx context.Context, lead leads.Lead, contractor contractors.Contractor) error
}

// Assigner runs match, rank, reserve and commit for leads.
type Assigner struct {
	leads  LeadStore
	roster Roster
	quota  *QuotaChecker

	Audit      AuditLogger
	Dispatcher Dispatcher
	Biller     Biller

	Log   *slog.Logger
	clock func() time.Time
}

func NewAssigner(store LeadStore, roster Roster, quota *QuotaChecker) *Assigner {
	return &Assigner{leads: store, roster: roster, quota: quota, Log: slog.Default(), clock: time.Now}
}

func (a *Assigner) log(ctx context.Context) *slog.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

// AutoAssign tries to give an unassigned lead to the best candidate with capacity.
// Leads that are not unassigned are returned unchanged. When nobody can take the lead
// it stays unassigned and the Outcome says why.
func (a *Assigner) AutoAssign(ctx context.Context, leadID string) (Outcome, error) {
	start := a.clock()
	defer func() { metrics.AssignmentDuration.Observe(time.Since(start).Seconds()) }()

	out, err := a.autoAssign(ctx, leadID)
	if err != nil {
		return Outcome{}, err
	}
	metrics.AssignmentOutcomes.WithLabelValues(string(out.Action), string(out.Reason)).Inc()
	a.log(ctx).Info("lead assignment",
		"lead_id", leadID,
		"action", out.Action,
		"reason", out.Reason,
		"contractor_id", out.Lead.ContractorID,
		"campaign_id", out.Lead.CampaignID,
		"candidates", out.Candidates,
	)
	return out, nil
}

func (a *Assigner) autoAssign(ctx context.Context, leadID string) (Outcome, error) {
	if leadID == "" {
		return Outcome{}, leads.ErrInvalidArgument
	}
	l, err := a.leads.Get(ctx, leadID)
	if err != nil {
		return Outcome{}, err
	}
	if l.Status != leads.StatusUnassigned {
		return Outcome{Lead: l, Action: ActionUnchanged, Reason: ReasonAlreadyAssigned}, nil
	}

	roster, err := a.roster.ListActive(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("routing: list contractors: %w", err)
	}
	campaigns, err := a.roster.ListActiveCampaigns(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("routing: list campaigns: %w", err)
	}

	cands := Match(l.County, l.JobType, roster, campaigns)
	if len(cands) == 0 {
		return Outcome{Lead: l, Action: ActionUnassigned, Reason: ReasonNoTerritoryMatch}, nil
	}

	day := a.quota.Day(l.SubmittedAt)
	scored, err := a.score(ctx, cands, day)
	if err != nil {
		return Outcome{}, err
	}

	// A failed reservation means another run took the last slot; move on to the next candidate.
	for _, s := range Rank(scored) {
		ok, err := a.reserve(ctx, s.Candidate, day)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			continue
		}

		won, err := a.leads.Assign(ctx, leads.Assignment{
			LeadID:       l.ID,
			ContractorID: s.ContractorID(),
			CampaignID:   s.CampaignID(),
			AssignedAt:   a.clock().UTC(),
			ExpectStatus: leads.StatusUnassigned,
		})
		if err != nil {
			a.release(ctx, s.Candidate, day)
			return Outcome{}, err
		}
		if !won {
			a.release(ctx, s.Candidate, day)
			return a.conflict(ctx, l, s.Candidate, len(cands))
		}

		assigned, err := a.leads.Get(ctx, l.ID)
		if err != nil {
			return Outcome{}, err
		}
		a.afterAssign(ctx, assigned, s.Contractor)
		return Outcome{Lead: assigned, Action: ActionAssigned, Reason: ReasonSelected, Candidates: len(cands)}, nil
	}

	return Outcome{Lead: l, Action: ActionUnassigned, Reason: ReasonCapacityExceeded, Candidates: len(cands)}, nil
}

// conflict handles a lost conditional write: the lead was assigned elsewhere meanwhile.
func (a *Assigner) conflict(ctx context.Context, l leads.Lead, c Candidate, n int) (Outcome, error) {
	metrics.AssignmentConflicts.Inc()
	a.recordAudit(ctx, AssignmentAuditEvent{
		Kind:         ReasonConflict,
		LeadID:       l.ID,
		ContractorID: c.ContractorID(),
		CampaignID:   c.CampaignID(),
		Note:         "reservation released after concurrent assignment",
	})
	cur, err := a.leads.Get(ctx, l.ID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Lead: cur, Action: ActionUnchanged, Reason: ReasonConflict, Candidates: n}, nil
}

func (a *Assigner) score(ctx context.Context, cands []Candidate, day Day) ([]Scored, error) {
	type usage struct{ delivered, remaining int }
	byContractor := make(map[string]usage, len(cands))

	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		u, ok := byContractor[c.ContractorID()]
		if !ok {
			t := contractorTarget(c.Contractor)
			n, err := a.quota.Delivered(ctx, t, day)
			if err != nil {
				return nil, fmt.Errorf("routing: delivered count: %w", err)
			}
			u = usage{delivered: n, remaining: clampRemaining(t.Limit, n)}
			byContractor[c.ContractorID()] = u
		}

		remaining := u.remaining
		if c.Campaign != nil {
			r, err := a.quota.RemainingCapacity(ctx, campaignTarget(*c.Campaign), day)
			if err != nil {
				return nil, fmt.Errorf("routing: campaign capacity: %w", err)
			}
			remaining = min(remaining, r)
		}
		out = append(out, Scored{Candidate: c, DeliveredToday: u.delivered, Remaining: remaining})
	}
	return out, nil
}

// reserve takes the contractor slot and, for campaign candidates, the campaign slot.
// It holds both or neither.
func (a *Assigner) reserve(ctx context.Context, c Candidate, day Day) (bool, error) {
	ok, err := a.quota.Reserve(ctx, contractorTarget(c.Contractor), day)
	if err != nil || !ok {
		return false, err
	}
	if c.Campaign == nil {
		return true, nil
	}
	ok, err = a.quota.Reserve(ctx, campaignTarget(*c.Campaign), day)
	if err != nil || !ok {
		if rerr := a.quota.Release(ctx, contractorTarget(c.Contractor), day); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return false, err
	}
	return true, nil
}

// release is best effort. A leaked slot only costs capacity for the rest of the day.
func (a *Assigner) release(ctx context.Context, c Candidate, day Day) {
	if err := a.quota.Release(ctx, contractorTarget(c.Contractor), day); err != nil {
		a.log(ctx).Error("release contractor slot", "contractor_id", c.ContractorID(), "day", day.Key, "error", err)
	}
	if c.Campaign != nil {
		if err := a.quota.Release(ctx, campaignTarget(*c.Campaign), day); err != nil {
			a.log(ctx).Error("release campaign slot", "campaign_id", c.CampaignID(), "day", day.Key, "error", err)
		}
	}
}

func (a *Assigner) releaseLead(ctx context.Context, l leads.Lead) {
	if l.ContractorID == "" {
		return
	}
	day := a.quota.Day(l.SubmittedAt)
	if err := a.quota.Release(ctx, Target{Scope: ScopeContractor, ID: l.ContractorID}, day); err != nil {
		a.log(ctx).Error("release contractor slot", "contractor_id", l.ContractorID, "day", day.Key, "error", err)
	}
	if l.CampaignID != "" {
		if err := a.quota.Release(ctx, Target{Scope: ScopeCampaign, ID: l.CampaignID}, day); err != nil {
			a.log(ctx).Error("release campaign slot", "campaign_id", l.CampaignID, "day", day.Key, "error", err)
		}
	}
}

// afterAssign bills and notifies. Neither failure undoes the assignment.
func (a *Assigner) afterAssign(ctx context.Context, l leads.Lead, c contractors.Contractor) {
	if a.Biller != nil {
		if err := a.Biller.ChargeLead(ctx, l, c); err != nil {
			a.log(ctx).Warn("lead charge failed", "lead_id", l.ID, "contractor_id", c.ID, "error", err)
		}
	}
	a.notifyAssigned(ctx, l.ID)
}

// notifyAssigned queues the new-lead notification. A dispatch error flags the lead for resend.
func (a *Assigner) notifyAssigned(ctx context.Context, leadID string) {
	if a.Dispatcher == nil {
		return
	}
	if err := a.Dispatcher.DispatchLeadAssigned(ctx, leadID); err != nil {
		a.log(ctx).Error("dispatch lead notification", "lead_id", leadID, "error", err)
		if serr := a.leads.SetNotificationStatus(ctx, leadID, leads.NotificationFailed); serr != nil {
			a.log(ctx).Error("flag notification failed", "lead_id", leadID, "error", serr)
		}
	}
}

func (a *Assigner) recordAudit(ctx context.Context, e AssignmentAuditEvent) {
	if a.Audit == nil {
		return
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	if e.At.IsZero() {
		e.At = a.clock().UTC()
	}
	if err := a.Audit.LogAssignment(ctx, e); err != nil {
		a.log(ctx).Warn("audit write failed", "kind", e.Kind, "lead_id", e.LeadID, "error", err)
	}
}

func contractorTarget(c contractors.Contractor) Target {
	return Target{Scope: ScopeContractor, ID: c.ID, Limit: c.DailyLeadCap}
}

func campaignTarget(c contractors.Campaign) Target {
	return Target{Scope: ScopeCampaign, ID: c.ID, Limit: c.DailyCap}
}
