package audit

import (
	"context"
	"testing"
	"time"
)

func TestService_AppendRequiresTypeAndSubject(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{LeadID: "l"}); err == nil {
		t.Fatalf("expected error for missing type")
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeManualAssignment}); err == nil {
		t.Fatalf("expected error for missing lead and contractor")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogStaffAction(context.Background(), EventTypeContractorStatus, "u", "operator", "1.2.3.4", "c1", "deactivated"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp filled")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
}

func TestService_LeadHistoryNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	base := time.Unix(1700000000, 0).UTC()

	_ = svc.Append(context.Background(), Event{Type: EventTypeManualAssignment, LeadID: "l1", CreatedAt: base})
	_ = svc.Append(context.Background(), Event{Type: EventTypeNotificationFailed, LeadID: "l1", CreatedAt: base.Add(time.Minute)})
	_ = svc.Append(context.Background(), Event{Type: EventTypeManualAssignment, LeadID: "l2", CreatedAt: base})

	evs, err := svc.LeadHistory(context.Background(), "l1", 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 2 || evs[0].Type != EventTypeNotificationFailed {
		t.Fatalf("unexpected history: %+v", evs)
	}
}
