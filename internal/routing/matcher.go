package routing

import (
	"sort"

	"garageleadly/internal/contractors"
)

// Candidate is one assignable target: a contractor, optionally through one of its campaigns.
type Candidate struct {
	Contractor contractors.Contractor
	Campaign   *contractors.Campaign
}

func (c Candidate) ContractorID() string { return c.Contractor.ID }

func (c Candidate) CampaignID() string {
	if c.Campaign == nil {
		return ""
	}
	return c.Campaign.ID
}

// Match returns the candidates whose territory covers the county and job type.
// A contractor with active campaigns is matched through those campaigns only;
// otherwise its own territory applies. Inactive contractors and paused campaigns never match.
// The result is sorted by contractor id, then campaign id.
func Match(county, jobType string, roster []contractors.Contractor, campaigns []contractors.Campaign) []Candidate {
	byContractor := make(map[string][]contractors.Campaign)
	for _, c := range campaigns {
		if c.Active() {
			byContractor[c.ContractorID] = append(byContractor[c.ContractorID], c)
		}
	}

	out := make([]Candidate, 0)
	for _, c := range roster {
		if !c.Active() {
			continue
		}
		camps := byContractor[c.ID]
		if len(camps) == 0 {
			if contractors.ServesCounty(c.Counties, county) && contractors.ServesJobType(c.JobTypes, jobType) {
				out = append(out, Candidate{Contractor: c})
			}
			continue
		}
		for i := range camps {
			camp := camps[i]
			if contractors.ServesCounty(camp.Counties, county) && contractors.ServesJobType(camp.JobTypes, jobType) {
				out = append(out, Candidate{Contractor: c, Campaign: &camp})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractorID() != out[j].ContractorID() {
			return out[i].ContractorID() < out[j].ContractorID()
		}
		return out[i].CampaignID() < out[j].CampaignID()
	})
	return out
}
