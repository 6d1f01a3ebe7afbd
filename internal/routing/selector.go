package routing

import "sort"

// Scored is a candidate with its capacity numbers for the lead's day.
type Scored struct {
	Candidate
	DeliveredToday int
	// Remaining is the tighter of the contractor and campaign remaining capacity.
	Remaining int
}

// Rank orders candidates: fewest delivered today, then most remaining, then contractor id,
// then campaign id. Candidates without remaining capacity are dropped.
func Rank(in []Scored) []Scored {
	out := make([]Scored, 0, len(in))
	for _, s := range in {
		if s.Remaining > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DeliveredToday != b.DeliveredToday {
			return a.DeliveredToday < b.DeliveredToday
		}
		if a.Remaining != b.Remaining {
			return a.Remaining > b.Remaining
		}
		if a.ContractorID() != b.ContractorID() {
			return a.ContractorID() < b.ContractorID()
		}
		return a.CampaignID() < b.CampaignID()
	})
	return out
}

// Select returns the best candidate, or false when none has capacity.
func Select(in []Scored) (Scored, bool) {
	ranked := Rank(in)
	if len(ranked) == 0 {
		return Scored{}, false
	}
	return ranked[0], true
}
