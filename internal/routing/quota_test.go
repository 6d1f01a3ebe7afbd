package routing

import (
	"context"
	"testing"
	"time"
)

type fixedDelivered struct {
	contractor map[string]int
	campaign   map[string]int
	calls      int
}

func (f *fixedDelivered) CountDelivered(ctx context.Context, id string, from, to time.Time) (int, error) {
	f.calls++
	return f.contractor[id], nil
}

func (f *fixedDelivered) CountDeliveredForCampaign(ctx context.Context, id string, from, to time.Time) (int, error) {
	f.calls++
	return f.campaign[id], nil
}

func TestDayOf_UsesBusinessTimezone(t *testing.T) {
	// 03:30 UTC on Mar 6 is still Mar 5 in Chicago.
	d := DayOf(time.Date(2024, 3, 6, 3, 30, 0, 0, time.UTC), chicago)
	if d.Key != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %s", d.Key)
	}
	if d.End.Sub(d.Start) != 24*time.Hour {
		t.Fatalf("expected 24h window, got %s", d.End.Sub(d.Start))
	}

	// DST starts on Mar 10 2024 in Chicago: the day is 23h long.
	d = DayOf(time.Date(2024, 3, 10, 12, 0, 0, 0, chicago), chicago)
	if d.End.Sub(d.Start) != 23*time.Hour {
		t.Fatalf("expected 23h window on DST day, got %s", d.End.Sub(d.Start))
	}
}

func TestRemainingCapacity_ClampsAtZero(t *testing.T) {
	del := &fixedDelivered{contractor: map[string]int{"a": 5, "b": 1}}
	q := NewQuotaChecker(NewMemoryCounter(), del, chicago)
	d := q.Day(testNow)

	n, err := q.RemainingCapacity(context.Background(), Target{Scope: ScopeContractor, ID: "a", Limit: 3}, d)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}

	n, _ = q.RemainingCapacity(context.Background(), Target{Scope: ScopeContractor, ID: "b", Limit: 3}, d)
	if n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestReserve_SeedsFromDeliveredOnce(t *testing.T) {
	del := &fixedDelivered{contractor: map[string]int{"a": 2}, campaign: map[string]int{"k": 4}}
	q := NewQuotaChecker(NewMemoryCounter(), del, chicago)
	d := q.Day(testNow)
	a := Target{Scope: ScopeContractor, ID: "a", Limit: 3}

	ok, err := q.Reserve(context.Background(), a, d)
	if err != nil || !ok {
		t.Fatalf("expected reserve ok, got ok=%v err=%v", ok, err)
	}
	calls := del.calls

	if ok, _ := q.Reserve(context.Background(), a, d); ok {
		t.Fatalf("expected cap reached after seeding 2 and reserving 1")
	}
	if del.calls != calls {
		t.Fatalf("expected live counter to skip the lead table")
	}

	n, _ := q.Delivered(context.Background(), a, d)
	if n != 3 {
		t.Fatalf("expected delivered 3, got %d", n)
	}

	k := Target{Scope: ScopeCampaign, ID: "k", Limit: 5}
	if ok, _ := q.Reserve(context.Background(), k, d); !ok {
		t.Fatalf("expected campaign reserve ok")
	}
	if ok, _ := q.Reserve(context.Background(), k, d); ok {
		t.Fatalf("expected campaign cap reached")
	}
}

func TestForceAndRelease(t *testing.T) {
	q := NewQuotaChecker(NewMemoryCounter(), &fixedDelivered{contractor: map[string]int{"a": 3}}, chicago)
	d := q.Day(testNow)
	a := Target{Scope: ScopeContractor, ID: "a", Limit: 3}

	n, err := q.Force(context.Background(), a, d)
	if err != nil || n != 4 {
		t.Fatalf("expected forced count 4, got %d err=%v", n, err)
	}
	if r, _ := q.RemainingCapacity(context.Background(), a, d); r != 0 {
		t.Fatalf("expected remaining clamped to 0, got %d", r)
	}
	for i := 0; i < 6; i++ {
		if err := q.Release(context.Background(), a, d); err != nil {
			t.Fatalf("release: %v", err)
		}
	}
	if n, _ := q.Delivered(context.Background(), a, d); n != 0 {
		t.Fatalf("expected release to stop at 0, got %d", n)
	}
}
