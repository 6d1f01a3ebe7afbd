package routing

import (
	"context"
	"time"
)

// counterGrace keeps a day's counter a little past midnight so late releases still find it.
const counterGrace = 6 * time.Hour

// Day is a calendar day in the business timezone as a [Start, End) window.
type Day struct {
	Key   string
	Start time.Time
	End   time.Time
}

// DayOf returns the business day containing t.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Day{Key: start.Format("2006-01-02"), Start: start, End: start.AddDate(0, 0, 1)}
}

// DeliveryCounter counts committed leads. It is implemented by the lead repository.
type DeliveryCounter interface {
	CountDelivered(ctx context.Context, contractorID string, from, to time.Time) (int, error)
	CountDeliveredForCampaign(ctx context.Context, campaignID string, from, to time.Time) (int, error)
}

// Target is one capped subject: a contractor or a campaign.
type Target struct {
	Scope Scope
	ID    string
	Limit int
}

// QuotaChecker answers capacity questions and takes reservations against a Counter.
type QuotaChecker struct {
	counter   Counter
	delivered DeliveryCounter
	loc       *time.Location
}

func NewQuotaChecker(counter Counter, delivered DeliveryCounter, loc *time.Location) *QuotaChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaChecker{counter: counter, delivered: delivered, loc: loc}
}

func (q *QuotaChecker) Day(t time.Time) Day { return DayOf(t, q.loc) }

func (q *QuotaChecker) baseline(ctx context.Context, t Target, d Day) (int, error) {
	if q.delivered == nil {
		return 0, nil
	}
	if t.Scope == ScopeCampaign {
		return q.delivered.CountDeliveredForCampaign(ctx, t.ID, d.Start, d.End)
	}
	return q.delivered.CountDelivered(ctx, t.ID, d.Start, d.End)
}

// slot skips the lead table when the counter is already live.
func (q *QuotaChecker) slot(ctx context.Context, t Target, d Day) (Slot, error) {
	s := Slot{Scope: t.Scope, ID: t.ID, Day: d.Key, Limit: t.Limit, ExpireAt: d.End.Add(counterGrace)}
	if _, ok, err := q.counter.Count(ctx, s); err != nil {
		return Slot{}, err
	} else if ok {
		return s, nil
	}
	n, err := q.baseline(ctx, t, d)
	if err != nil {
		return Slot{}, err
	}
	s.Baseline = n
	return s, nil
}

// Delivered is the count used for capacity decisions: the live counter if present,
// otherwise the lead table.
func (q *QuotaChecker) Delivered(ctx context.Context, t Target, d Day) (int, error) {
	n, ok, err := q.counter.Count(ctx, Slot{Scope: t.Scope, ID: t.ID, Day: d.Key})
	if err != nil {
		return 0, err
	}
	if ok {
		return n, nil
	}
	return q.baseline(ctx, t, d)
}

// RemainingCapacity is Limit minus delivered, never below zero.
func (q *QuotaChecker) RemainingCapacity(ctx context.Context, t Target, d Day) (int, error) {
	n, err := q.Delivered(ctx, t, d)
	if err != nil {
		return 0, err
	}
	return clampRemaining(t.Limit, n), nil
}

func clampRemaining(limit, delivered int) int {
	if r := limit - delivered; r > 0 {
		return r
	}
	return 0
}

// Reserve atomically takes one slot if that keeps the target within its limit.
func (q *QuotaChecker) Reserve(ctx context.Context, t Target, d Day) (bool, error) {
	s, err := q.slot(ctx, t, d)
	if err != nil {
		return false, err
	}
	return q.counter.Reserve(ctx, s)
}

// Force takes a slot past the limit. Used only for super_admin overrides.
func (q *QuotaChecker) Force(ctx context.Context, t Target, d Day) (int, error) {
	s, err := q.slot(ctx, t, d)
	if err != nil {
		return 0, err
	}
	return q.counter.Increment(ctx, s)
}

func (q *QuotaChecker) Release(ctx context.Context, t Target, d Day) error {
	return q.counter.Release(ctx, Slot{Scope: t.Scope, ID: t.ID, Day: d.Key, ExpireAt: d.End.Add(counterGrace)})
}
