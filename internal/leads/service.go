package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garageleadly/pkg/phone"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("lead not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("lead changed concurrently")
)

// Repository is the persistence contract for leads.
// Conditional writes return false when the expected state no longer holds.
type Repository interface {
	Create(ctx context.Context, l Lead) error
	Get(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, f Filter) ([]Lead, error)

	Assign(ctx context.Context, a Assignment) (bool, error)
	Unassign(ctx context.Context, id string, expectStatus Status, expectContractorID string, at time.Time) (bool, error)
	UpdateOutcome(ctx context.Context, id string, from Status, u OutcomeUpdate, at time.Time) (bool, error)

	SetNotificationStatus(ctx context.Context, id string, st NotificationStatus) error
	SetCharge(ctx context.Context, id string, amountMinor int64) error

	// CountDelivered counts leads of a contractor submitted in [from, to).
	CountDelivered(ctx context.Context, contractorID string, from, to time.Time) (int, error)
	CountDeliveredForCampaign(ctx context.Context, campaignID string, from, to time.Time) (int, error)
}

// Service owns lead intake and outcome tracking. Assignment lives in internal/routing.
type Service struct {
	repo     Repository
	validate *validator.Validate
	clock    func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		clock:    time.Now,
	}
}

// Submit validates and stores a new lead as unassigned.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Lead, error) {
	req = trimSubmit(req)
	if err := s.validate.Struct(req); err != nil {
		return Lead{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	e164, err := phone.NormalizeE164(req.Phone, phone.DefaultRegion)
	if err != nil {
		return Lead{}, fmt.Errorf("%w: phone number is not valid", ErrInvalidArgument)
	}

	now := s.clock().UTC()
	l := Lead{
		ID:                 uuid.NewString(),
		CustomerName:       req.CustomerName,
		Phone:              e164,
		Email:              strings.ToLower(req.Email),
		Address:            req.Address,
		City:               req.City,
		Zip:                req.Zip,
		County:             req.County,
		JobType:            req.JobType,
		Issue:              req.Issue,
		SubmittedAt:        now,
		Status:             StatusUnassigned,
		NotificationStatus: NotificationNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return Lead{}, err
	}
	return l, nil
}

// Get returns a lead. A non-empty contractorID scopes the read to that contractor;
// other contractors' leads are reported as not found.
func (s *Service) Get(ctx context.Context, contractorID, id string) (Lead, error) {
	if id == "" {
		return Lead{}, ErrInvalidArgument
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	if contractorID != "" && l.ContractorID != contractorID {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Lead, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidArgument
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.List(ctx, f)
}

// Unassigned is the operator queue.
func (s *Service) Unassigned(ctx context.Context, limit int) ([]Lead, error) {
	return s.List(ctx, Filter{Status: StatusUnassigned, Limit: limit})
}

// UpdateOutcome records contractor/operator progress on an assigned lead.
func (s *Service) UpdateOutcome(ctx context.Context, contractorID, id string, u OutcomeUpdate) (Lead, error) {
	if err := s.validate.Struct(u); err != nil {
		return Lead{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if !u.Status.Valid() {
		return Lead{}, ErrInvalidArgument
	}
	if u.JobValueMinor != nil && u.Status != StatusCompleted {
		return Lead{}, fmt.Errorf("%w: job value only applies to completed leads", ErrInvalidArgument)
	}

	l, err := s.Get(ctx, contractorID, id)
	if err != nil {
		return Lead{}, err
	}
	if !CanTransition(l.Status, u.Status) {
		return Lead{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, u.Status)
	}

	now := s.clock().UTC()
	ok, err := s.repo.UpdateOutcome(ctx, id, l.Status, u, now)
	if err != nil {
		return Lead{}, err
	}
	if !ok {
		return Lead{}, ErrConflict
	}
	return s.repo.Get(ctx, id)
}

func trimSubmit(r SubmitRequest) SubmitRequest {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.Zip = strings.TrimSpace(r.Zip)
	r.County = strings.TrimSpace(r.County)
	r.JobType = strings.TrimSpace(r.JobType)
	r.Issue = strings.TrimSpace(r.Issue)
	return r
}
