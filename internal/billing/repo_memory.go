package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository used by tests and local runs.
type MemoryRepo struct {
	mu   sync.Mutex
	txns map[string]Transaction
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{txns: map[string]Transaction{}} }

func (r *MemoryRepo) Begin(ctx context.Context, t Transaction) (Transaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txns {
		if existing.IdempotencyKey == t.IdempotencyKey {
			return existing, false, nil
		}
	}
	r.txns[t.ID] = t
	return t, true, nil
}

func (r *MemoryRepo) SetProviderRef(ctx context.Context, id, providerRef string, at time.Time) error {
	return r.update(id, func(t *Transaction) {
		t.ProviderRef = providerRef
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) Complete(ctx context.Context, id, providerRef string, at time.Time) error {
	return r.update(id, func(t *Transaction) {
		t.Status = TransactionCompleted
		if providerRef != "" {
			t.ProviderRef = providerRef
		}
		t.FailureReason = ""
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) Fail(ctx context.Context, id, providerRef, reason string, at time.Time) error {
	return r.update(id, func(t *Transaction) {
		t.Status = TransactionFailed
		if providerRef != "" {
			t.ProviderRef = providerRef
		}
		t.FailureReason = reason
		t.UpdatedAt = at
	})
}

func (r *MemoryRepo) update(id string, fn func(*Transaction)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[id]
	if !ok {
		return ErrNotFound
	}
	fn(&t)
	r.txns[id] = t
	return nil
}

func (r *MemoryRepo) FindByKey(ctx context.Context, key string) (Transaction, error) {
	return r.find(func(t Transaction) bool { return t.IdempotencyKey == key })
}

func (r *MemoryRepo) FindByProviderRef(ctx context.Context, ref string) (Transaction, error) {
	if ref == "" {
		return Transaction{}, ErrNotFound
	}
	return r.find(func(t Transaction) bool { return t.ProviderRef == ref })
}

func (r *MemoryRepo) find(match func(Transaction) bool) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if match(t) {
			return t, nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (r *MemoryRepo) ListByContractor(ctx context.Context, contractorID string, limit int) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transaction, 0)
	for _, t := range r.txns {
		if t.ContractorID == contractorID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) SumCompleted(ctx context.Context, contractorID string, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, t := range r.txns {
		if t.ContractorID != contractorID || t.Status != TransactionCompleted {
			continue
		}
		if !from.IsZero() && t.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !t.CreatedAt.Before(to) {
			continue
		}
		sum += t.AmountMinor
	}
	return sum, nil
}
