package routing

import (
	"context"
	"errors"
	"sync"
	"time"
)

type Scope string

const (
	ScopeContractor Scope = "contractor"
	ScopeCampaign   Scope = "campaign"
)

// Slot identifies one daily counter and carries what is needed to seed it.
type Slot struct {
	Scope Scope
	ID    string
	Day   string // YYYY-MM-DD in the business timezone

	Limit int
	// Baseline is the delivered count from the lead table, used only when the counter does not exist yet.
	Baseline int
	// ExpireAt is when the counter may be dropped.
	ExpireAt time.Time
}

func (s Slot) key() string { return "leadcap:" + string(s.Scope) + ":" + s.ID + ":" + s.Day }

func (s Slot) validate() error {
	if s.Scope == "" || s.ID == "" || s.Day == "" {
		return errors.New("routing: incomplete counter slot")
	}
	return nil
}

// Counter is the atomic per-day lead counter. Reserve is the check-and-assign primitive:
// it takes a slot only if that keeps the count within Limit.
type Counter interface {
	Reserve(ctx context.Context, s Slot) (bool, error)
	// Increment takes a slot regardless of Limit and returns the new count.
	Increment(ctx context.Context, s Slot) (int, error)
	// Release gives a slot back. The count never goes below zero.
	Release(ctx context.Context, s Slot) error
	// Count returns the current count and whether the counter exists.
	Count(ctx context.Context, s Slot) (int, bool, error)
}

// MemoryCounter is a process-local Counter for tests and single-instance runs.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryCounter() *MemoryCounter { return &MemoryCounter{counts: map[string]int{}} }

func (m *MemoryCounter) Reserve(ctx context.Context, s Slot) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[s.key()]
	if !ok {
		n = s.Baseline
	}
	if n+1 > s.Limit {
		m.counts[s.key()] = n
		return false, nil
	}
	m.counts[s.key()] = n + 1
	return true, nil
}

func (m *MemoryCounter) Increment(ctx context.Context, s Slot) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[s.key()]
	if !ok {
		n = s.Baseline
	}
	n++
	m.counts[s.key()] = n
	return n, nil
}

func (m *MemoryCounter) Release(ctx context.Context, s Slot) error {
	if err := s.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.counts[s.key()]; ok && n > 0 {
		m.counts[s.key()] = n - 1
	}
	return nil
}

func (m *MemoryCounter) Count(ctx context.Context, s Slot) (int, bool, error) {
	if err := s.validate(); err != nil {
		return 0, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[s.key()]
	return n, ok, nil
}
