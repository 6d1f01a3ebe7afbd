package pricing

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo holds price rows for tests and local runs.
type MemoryRepo struct {
	mu     sync.RWMutex
	Prices []LeadPrice
}

func (r *MemoryRepo) Put(p LeadPrice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Prices = append(r.Prices, p)
}

func (r *MemoryRepo) ListLeadPrices(ctx context.Context, county string) ([]LeadPrice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []LeadPrice
	for _, p := range r.Prices {
		if p.County == "" || strings.EqualFold(p.County, county) {
			out = append(out, p)
		}
	}
	return out, nil
}
