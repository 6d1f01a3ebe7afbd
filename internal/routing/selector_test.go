package routing

import (
	"testing"

	"garageleadly/internal/contractors"
)

func scored(id, campaign string, delivered, remaining int) Scored {
	c := Candidate{Contractor: contractors.Contractor{ID: id}}
	if campaign != "" {
		c.Campaign = &contractors.Campaign{ID: campaign, ContractorID: id}
	}
	return Scored{Candidate: c, DeliveredToday: delivered, Remaining: remaining}
}

func TestRank_TieBreakOrder(t *testing.T) {
	in := []Scored{
		scored("c", "", 2, 5),
		scored("b", "", 1, 1),
		scored("a", "", 1, 3),
		scored("d", "k2", 1, 3),
		scored("d", "k1", 1, 3),
		scored("e", "", 0, 0),
	}
	got := Rank(in)

	want := []string{"a/", "d/k1", "d/k2", "b/", "c/"}
	if len(got) != len(want) {
		t.Fatalf("expected %d ranked, got %d", len(want), len(got))
	}
	for i, s := range got {
		if k := s.ContractorID() + "/" + s.CampaignID(); k != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], k)
		}
	}
}

func TestSelect_NoneWithoutCapacity(t *testing.T) {
	if _, ok := Select([]Scored{scored("a", "", 3, 0)}); ok {
		t.Fatalf("expected no selection")
	}
	if _, ok := Select(nil); ok {
		t.Fatalf("expected no selection for empty input")
	}
	s, ok := Select([]Scored{scored("z", "", 0, 1), scored("y", "", 0, 1)})
	if !ok || s.ContractorID() != "y" {
		t.Fatalf("expected y, got %+v", s)
	}
}
