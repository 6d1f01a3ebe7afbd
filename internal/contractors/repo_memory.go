package contractors

import (
	"context"
	"sort"
	"sync"

	"github.com/lib/pq"
)

// MemoryRepo is a Repository for tests and local runs.
type MemoryRepo struct {
	mu          sync.RWMutex
	contractors map[string]Contractor
	campaigns   map[string]Campaign
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contractors: map[string]Contractor{}, campaigns: map[string]Campaign{}}
}

func (r *MemoryRepo) Create(ctx context.Context, c Contractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contractors[c.ID] = copyContractor(c)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Contractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contractors[id]
	if !ok {
		return Contractor{}, ErrNotFound
	}
	return copyContractor(c), nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Contractor, error) {
	return r.list(func(Contractor) bool { return true }), nil
}

func (r *MemoryRepo) ListActive(ctx context.Context) ([]Contractor, error) {
	return r.list(Contractor.Active), nil
}

func (r *MemoryRepo) list(keep func(Contractor) bool) []Contractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Contractor, 0, len(r.contractors))
	for _, c := range r.contractors {
		if keep(c) {
			out = append(out, copyContractor(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRepo) FindByBillingCustomer(ctx context.Context, customerID string) (Contractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contractors {
		if c.BillingCustomerID == customerID {
			return copyContractor(c), nil
		}
	}
	return Contractor{}, ErrNotFound
}

func (r *MemoryRepo) Update(ctx context.Context, c Contractor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contractors[c.ID]; !ok {
		return ErrNotFound
	}
	r.contractors[c.ID] = copyContractor(c)
	return nil
}

func (r *MemoryRepo) CreateCampaign(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (r *MemoryRepo) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return Campaign{}, ErrCampaignNotFound
	}
	return copyCampaign(c), nil
}

func (r *MemoryRepo) ListCampaigns(ctx context.Context, contractorID string) ([]Campaign, error) {
	return r.listCampaigns(func(c Campaign) bool { return c.ContractorID == contractorID }), nil
}

func (r *MemoryRepo) ListActiveCampaigns(ctx context.Context) ([]Campaign, error) {
	return r.listCampaigns(Campaign.Active), nil
}

func (r *MemoryRepo) listCampaigns(keep func(Campaign) bool) []Campaign {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Campaign, 0)
	for _, c := range r.campaigns {
		if keep(c) {
			out = append(out, copyCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractorID != out[j].ContractorID {
			return out[i].ContractorID < out[j].ContractorID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MemoryRepo) UpdateCampaign(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[c.ID]; !ok {
		return ErrCampaignNotFound
	}
	r.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (r *MemoryRepo) DeleteCampaign(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return ErrCampaignNotFound
	}
	delete(r.campaigns, id)
	return nil
}

func copyContractor(c Contractor) Contractor {
	c.Counties = append(pq.StringArray(nil), c.Counties...)
	c.JobTypes = append(pq.StringArray(nil), c.JobTypes...)
	return c
}

func copyCampaign(c Campaign) Campaign {
	c.Counties = append(pq.StringArray(nil), c.Counties...)
	c.JobTypes = append(pq.StringArray(nil), c.JobTypes...)
	return c
}
