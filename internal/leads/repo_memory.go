package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository for tests and local runs.
// Conditional writes are serialized by a single mutex.
type MemoryRepo struct {
	mu    sync.Mutex
	leads map[string]Lead
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{leads: map[string]Lead{}} }

func (r *MemoryRepo) Create(ctx context.Context, l Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[l.ID] = l
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range r.leads {
		if f.ContractorID != "" && l.ContractorID != f.ContractorID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && l.SubmittedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !l.SubmittedAt.Before(f.To) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Assign(ctx context.Context, a Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[a.LeadID]
	if !ok {
		return false, ErrNotFound
	}
	if l.Status != a.ExpectStatus || l.ContractorID != a.ExpectContractorID {
		return false, nil
	}
	at := a.AssignedAt
	l.Status = StatusAssigned
	l.ContractorID = a.ContractorID
	l.CampaignID = a.CampaignID
	l.OverCap = a.OverCap
	l.AssignedAt = &at
	l.NotificationStatus = NotificationPending
	l.UpdatedAt = at
	r.leads[l.ID] = l
	return true, nil
}

func (r *MemoryRepo) Unassign(ctx context.Context, id string, expectStatus Status, expectContractorID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return false, ErrNotFound
	}
	if l.Status != expectStatus || l.ContractorID != expectContractorID {
		return false, nil
	}
	l.Status = StatusUnassigned
	l.ContractorID = ""
	l.CampaignID = ""
	l.OverCap = false
	l.AssignedAt = nil
	l.NotificationStatus = NotificationNone
	l.UpdatedAt = at
	r.leads[id] = l
	return true, nil
}

func (r *MemoryRepo) UpdateOutcome(ctx context.Context, id string, from Status, u OutcomeUpdate, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return false, ErrNotFound
	}
	if l.Status != from {
		return false, nil
	}
	l.Status = u.Status
	if u.JobValueMinor != nil {
		v := *u.JobValueMinor
		l.JobValueMinor = &v
	}
	if u.Notes != "" {
		l.Notes = u.Notes
	}
	l.UpdatedAt = at
	r.leads[id] = l
	return true, nil
}

func (r *MemoryRepo) SetNotificationStatus(ctx context.Context, id string, st NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.NotificationStatus = st
	r.leads[id] = l
	return nil
}

func (r *MemoryRepo) SetCharge(ctx context.Context, id string, amountMinor int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.ChargeMinor = &amountMinor
	r.leads[id] = l
	return nil
}

func (r *MemoryRepo) CountDelivered(ctx context.Context, contractorID string, from, to time.Time) (int, error) {
	if contractorID == "" {
		return 0, nil
	}
	return r.count(func(l Lead) bool { return l.ContractorID == contractorID }, from, to), nil
}

func (r *MemoryRepo) CountDeliveredForCampaign(ctx context.Context, campaignID string, from, to time.Time) (int, error) {
	if campaignID == "" {
		return 0, nil
	}
	return r.count(func(l Lead) bool { return l.CampaignID == campaignID }, from, to), nil
}

func (r *MemoryRepo) count(match func(Lead) bool, from, to time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.leads {
		if !match(l) {
			continue
		}
		if l.SubmittedAt.Before(from) || !l.SubmittedAt.Before(to) {
			continue
		}
		n++
	}
	return n
}
