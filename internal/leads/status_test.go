package leads

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusAssigned, StatusCalled},
		{StatusCalled, StatusScheduled},
		{StatusScheduled, StatusCompleted},
		{StatusScheduled, StatusLost},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s allowed", tr[0], tr[1])
		}
	}

	denied := [][2]Status{
		{StatusUnassigned, StatusAssigned},
		{StatusUnassigned, StatusCalled},
		{StatusAssigned, StatusCompleted},
		{StatusCompleted, StatusLost},
		{StatusLost, StatusAssigned},
		{StatusCalled, StatusAssigned},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s denied", tr[0], tr[1])
		}
	}
}

func TestStatusValidAndTerminal(t *testing.T) {
	if Status("archived").Valid() {
		t.Fatalf("unexpected valid status")
	}
	if !StatusLost.Terminal() || !StatusCompleted.Terminal() || StatusScheduled.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}
