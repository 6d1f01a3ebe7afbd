package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ContractorDashboard summarizes a contractor's lead history.
// Money is in minor units; rates are percentages.
type ContractorDashboard struct {
	ContractorID string `json:"contractor_id"`

	TotalLeads     int   `json:"total_leads"`
	CompletedLeads int   `json:"completed_leads"`
	TotalSpent     int64 `json:"total_spent_minor"`
	Revenue        int64 `json:"revenue_minor"`

	CloseRate       float64 `json:"close_rate"`
	AverageJobValue int64   `json:"average_job_value_minor"`
	ROI             float64 `json:"roi"`

	Today Usage `json:"today"`
}

// Usage is today's count against a daily cap.
type Usage struct {
	Day       string `json:"day"`
	Delivered int    `json:"delivered"`
	DailyCap  int    `json:"daily_cap"`
	Remaining int    `json:"remaining"`
}

// Overview is the operator view of today's routing.
type Overview struct {
	Day string `json:"day"`

	LeadsToday      int `json:"leads_today"`
	AssignedToday   int `json:"assigned_today"`
	UnassignedQueue int `json:"unassigned_queue"`
	TotalDailyCap   int `json:"total_daily_cap"`

	// DemandFulfilment is leads today over total daily cap, as a percentage.
	DemandFulfilment float64 `json:"demand_fulfilment"`

	// Rotation lists active contractors in the order the selector would prefer them.
	Rotation []RotationEntry `json:"rotation"`
}

type RotationEntry struct {
	ContractorID string `json:"contractor_id"`
	Name         string `json:"name"`
	CompanyName  string `json:"company_name,omitempty"`
	Usage
}

// CampaignUsage is a campaign with its leads delivered today.
type CampaignUsage struct {
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	LeadsToday int    `json:"leads_today"`
	DailyCap   int    `json:"daily_cap"`
}
