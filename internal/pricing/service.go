package pricing

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultLeadPriceMinor is charged when no rule matches.
const DefaultLeadPriceMinor int64 = 4500

var ErrInvalidPricingReq = errors.New("invalid pricing request")

// Service resolves the price of a lead from territory rules.
//
// Precedence: county and job type, then county only, then the house default row,
// then the configured fallback amount. Within one level the most recently
// effective row wins.
type Service struct {
	repo     RateRepository
	fallback int64
	currency string
	clock    func() time.Time
}

func NewService(repo RateRepository, fallbackMinor int64, currency string) *Service {
	if fallbackMinor <= 0 {
		fallbackMinor = DefaultLeadPriceMinor
	}
	if currency == "" {
		currency = "usd"
	}
	return &Service{repo: repo, fallback: fallbackMinor, currency: currency, clock: time.Now}
}

type Quote struct {
	County      string
	JobType     string
	Currency    string
	AmountMinor int64
	// RuleID is empty when the fallback amount applied.
	RuleID string
	Match  Match
}

// PriceFor quotes the charge for a lead in county for jobType at the current time.
func (s *Service) PriceFor(ctx context.Context, county, jobType string) (Quote, error) {
	return s.PriceAt(ctx, county, jobType, time.Time{})
}

func (s *Service) PriceAt(ctx context.Context, county, jobType string, at time.Time) (Quote, error) {
	county = strings.TrimSpace(county)
	jobType = strings.TrimSpace(jobType)
	if county == "" {
		return Quote{}, ErrInvalidPricingReq
	}
	if at.IsZero() {
		at = s.clock().UTC()
	}

	q := Quote{County: county, JobType: jobType, Currency: s.currency, AmountMinor: s.fallback}
	if s.repo == nil {
		return q, nil
	}

	rows, err := s.repo.ListLeadPrices(ctx, county)
	if err != nil {
		return Quote{}, err
	}
	best, m := selectPrice(rows, county, jobType, at)
	if m == MatchNone {
		return q, nil
	}
	q.AmountMinor = best.AmountMinor
	q.RuleID = best.ID
	q.Match = m
	if best.Currency != "" {
		q.Currency = strings.ToLower(best.Currency)
	}
	return q, nil
}

// RateRepository abstracts pricing persistence.
// ListLeadPrices returns rows for the county plus the house default rows.
type RateRepository interface {
	ListLeadPrices(ctx context.Context, county string) ([]LeadPrice, error)
}

func matchOf(p LeadPrice, county, jobType string) Match {
	switch {
	case p.County == "" && p.JobType == "":
		return MatchDefault
	case !strings.EqualFold(p.County, county):
		return MatchNone
	case p.JobType == "":
		return MatchCounty
	case jobType != "" && strings.EqualFold(p.JobType, jobType):
		return MatchExact
	default:
		return MatchNone
	}
}

func selectPrice(rows []LeadPrice, county, jobType string, at time.Time) (LeadPrice, Match) {
	var (
		best  LeadPrice
		bestM = MatchNone
	)
	for _, p := range rows {
		if !p.effective(at) {
			continue
		}
		m := matchOf(p, county, jobType)
		if m == MatchNone {
			continue
		}
		if m > bestM || (m == bestM && p.EffectiveFrom.After(best.EffectiveFrom)) {
			best, bestM = p, m
		}
	}
	return best, bestM
}
