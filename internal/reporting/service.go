package reporting

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/routing"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// LeadLister reads leads; the lead repository satisfies it.
type LeadLister interface {
	List(ctx context.Context, f leads.Filter) ([]leads.Lead, error)
}

type RosterReader interface {
	Get(ctx context.Context, id string) (contractors.Contractor, error)
	ListActive(ctx context.Context) ([]contractors.Contractor, error)
	ListCampaigns(ctx context.Context, contractorID string) ([]contractors.Campaign, error)
}

// UsageReader reports today's delivered counts. It is the routing quota checker.
type UsageReader interface {
	Day(t time.Time) routing.Day
	Delivered(ctx context.Context, t routing.Target, d routing.Day) (int, error)
}

// fanout bounds concurrent per-contractor counter reads.
const fanout = 8

type Service struct {
	leads  LeadLister
	roster RosterReader
	usage  UsageReader
	clock  func() time.Time
}

func NewService(l LeadLister, roster RosterReader, usage UsageReader) *Service {
	return &Service{leads: l, roster: roster, usage: usage, clock: time.Now}
}

func (s *Service) ready() error {
	if s.leads == nil || s.roster == nil || s.usage == nil {
		return errors.New("reporting: sources not configured")
	}
	return nil
}

// Dashboard computes a contractor's totals over all their leads plus today's usage.
func (s *Service) Dashboard(ctx context.Context, contractorID string) (ContractorDashboard, error) {
	if contractorID == "" {
		return ContractorDashboard{}, ErrInvalidRequest
	}
	if err := s.ready(); err != nil {
		return ContractorDashboard{}, err
	}
	day := s.usage.Day(s.clock())

	var (
		rows []leads.Lead
		c    contractors.Contractor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.leads.List(gctx, leads.Filter{ContractorID: contractorID})
		return err
	})
	g.Go(func() error {
		var err error
		c, err = s.roster.Get(gctx, contractorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ContractorDashboard{}, err
	}

	out := summarize(contractorID, rows)
	today, err := s.todayUsage(ctx, c, day)
	if err != nil {
		return ContractorDashboard{}, err
	}
	out.Today = today
	return out, nil
}

func summarize(contractorID string, rows []leads.Lead) ContractorDashboard {
	out := ContractorDashboard{ContractorID: contractorID, TotalLeads: len(rows)}
	for _, l := range rows {
		if l.ChargeMinor != nil {
			out.TotalSpent += *l.ChargeMinor
		}
		if l.Status == leads.StatusCompleted {
			out.CompletedLeads++
			if l.JobValueMinor != nil {
				out.Revenue += *l.JobValueMinor
			}
		}
	}
	if out.TotalLeads > 0 {
		out.CloseRate = pct(float64(out.CompletedLeads), float64(out.TotalLeads))
	}
	if out.CompletedLeads > 0 {
		out.AverageJobValue = out.Revenue / int64(out.CompletedLeads)
	}
	if out.TotalSpent > 0 {
		out.ROI = pct(float64(out.Revenue-out.TotalSpent), float64(out.TotalSpent))
	}
	return out
}

func (s *Service) todayUsage(ctx context.Context, c contractors.Contractor, day routing.Day) (Usage, error) {
	t := routing.Target{Scope: routing.ScopeContractor, ID: c.ID, Limit: c.DailyLeadCap}
	n, err := s.usage.Delivered(ctx, t, day)
	if err != nil {
		return Usage{}, err
	}
	rem := c.DailyLeadCap - n
	if rem < 0 {
		rem = 0
	}
	return Usage{Day: day.Key, Delivered: n, DailyCap: c.DailyLeadCap, Remaining: rem}, nil
}

// Overview is the operator summary for the current business day.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if err := s.ready(); err != nil {
		return Overview{}, err
	}
	day := s.usage.Day(s.clock())

	var (
		today      []leads.Lead
		unassigned []leads.Lead
		active     []contractors.Contractor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.leads.List(gctx, leads.Filter{From: day.Start, To: day.End})
		return err
	})
	g.Go(func() error {
		var err error
		unassigned, err = s.leads.List(gctx, leads.Filter{Status: leads.StatusUnassigned})
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.roster.ListActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	out := Overview{Day: day.Key, LeadsToday: len(today), UnassignedQueue: len(unassigned)}
	for _, l := range today {
		if l.ContractorID != "" {
			out.AssignedToday++
		}
	}
	for _, c := range active {
		out.TotalDailyCap += c.DailyLeadCap
	}
	if out.TotalDailyCap > 0 {
		out.DemandFulfilment = pct(float64(out.LeadsToday), float64(out.TotalDailyCap))
	}

	rotation, err := s.rotation(ctx, active, day)
	if err != nil {
		return Overview{}, err
	}
	out.Rotation = rotation
	return out, nil
}

func (s *Service) rotation(ctx context.Context, active []contractors.Contractor, day routing.Day) ([]RotationEntry, error) {
	var mu sync.Mutex
	out := make([]RotationEntry, 0, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for _, c := range active {
		g.Go(func() error {
			u, err := s.todayUsage(gctx, c, day)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, RotationEntry{ContractorID: c.ID, Name: c.Name, CompanyName: c.CompanyName, Usage: u})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Remaining == 0) != (b.Remaining == 0) {
			return a.Remaining > 0
		}
		if a.Delivered != b.Delivered {
			return a.Delivered < b.Delivered
		}
		if a.Remaining != b.Remaining {
			return a.Remaining > b.Remaining
		}
		return a.ContractorID < b.ContractorID
	})
	return out, nil
}

// RosterUsage returns today's usage for each of cs, keyed by contractor id.
func (s *Service) RosterUsage(ctx context.Context, cs []contractors.Contractor) (map[string]Usage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	entries, err := s.rotation(ctx, cs, s.usage.Day(s.clock()))
	if err != nil {
		return nil, err
	}
	out := make(map[string]Usage, len(entries))
	for _, e := range entries {
		out[e.ContractorID] = e.Usage
	}
	return out, nil
}

// Campaigns lists a contractor's campaigns with today's delivered counts.
func (s *Service) Campaigns(ctx context.Context, contractorID string) ([]CampaignUsage, error) {
	if contractorID == "" {
		return nil, ErrInvalidRequest
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	day := s.usage.Day(s.clock())

	camps, err := s.roster.ListCampaigns(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	out := make([]CampaignUsage, len(camps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, c := range camps {
		g.Go(func() error {
			n, err := s.usage.Delivered(gctx, routing.Target{Scope: routing.ScopeCampaign, ID: c.ID, Limit: c.DailyCap}, day)
			if err != nil {
				return err
			}
			out[i] = CampaignUsage{CampaignID: c.ID, Name: c.Name, Status: string(c.Status), LeadsToday: n, DailyCap: c.DailyCap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// pct is num/den as a percentage rounded to one decimal place.
func pct(num, den float64) float64 {
	return math.Round(num/den*1000) / 10
}
