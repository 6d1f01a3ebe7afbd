package pricing

import "time"

// LeadPrice is the amount charged per delivered lead for a territory.
// Amounts are in minor units (cents).
//
// An empty JobType applies to every job type in the county. An empty County
// additionally makes the row the house default.
type LeadPrice struct {
	ID      string `json:"id" db:"id"`
	County  string `json:"county" db:"county"`
	JobType string `json:"job_type" db:"job_type"`

	Currency    string `json:"currency" db:"currency"`
	AmountMinor int64  `json:"amount_minor" db:"amount_minor"`

	// Effective window for pricing.
	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status PricingStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PricingStatus string

const (
	PricingStatusActive   PricingStatus = "active"
	PricingStatusInactive PricingStatus = "inactive"
)

// Match ranks how specifically a row applies to a lead.
type Match int

const (
	MatchNone Match = iota
	MatchDefault
	MatchCounty
	MatchExact
)

func (p LeadPrice) effective(at time.Time) bool {
	if p.Status != PricingStatusActive {
		return false
	}
	if at.Before(p.EffectiveFrom) {
		return false
	}
	return p.EffectiveTo == nil || at.Before(*p.EffectiveTo)
}
