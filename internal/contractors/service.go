package contractors

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
	ErrNotFound         = errors.New("contractor not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrInvalidArgument  = errors.New("invalid argument")
)

type Repository interface {
	Create(ctx context.Context, c Contractor) error
	Get(ctx context.Context, id string) (Contractor, error)
	List(ctx context.Context) ([]Contractor, error)
	ListActive(ctx context.Context) ([]Contractor, error)
	FindByBillingCustomer(ctx context.Context, customerID string) (Contractor, error)
	Update(ctx context.Context, c Contractor) error

	CreateCampaign(ctx context.Context, c Campaign) error
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context, contractorID string) ([]Campaign, error)
	// ListActiveCampaigns returns active campaigns of every contractor.
	ListActiveCampaigns(ctx context.Context) ([]Campaign, error)
	UpdateCampaign(ctx context.Context, c Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
}

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

func (s *Service) Create(ctx context.Context, req CreateRequest) (Contractor, error) {
	if err := s.validate.Struct(req); err != nil {
		return Contractor{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	ph := ""
	if strings.TrimSpace(req.Phone) != "" {
		e164, err := phone.NormalizeE164(req.Phone, phone.DefaultRegion)
		if err != nil {
			return Contractor{}, fmt.Errorf("%w: phone number is not valid", ErrInvalidArgument)
		}
		ph = e164
	}

	now := s.clock().UTC()
	c := Contractor{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        ph,
		Counties:     cleanList(req.Counties),
		JobTypes:     cleanList(req.JobTypes),
		DailyLeadCap: req.DailyLeadCap,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Contractor, error) {
	if id == "" {
		return Contractor{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Contractor, error) { return s.repo.List(ctx) }

func (s *Service) ListActive(ctx context.Context) ([]Contractor, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) FindByBillingCustomer(ctx context.Context, customerID string) (Contractor, error) {
	if customerID == "" {
		return Contractor{}, ErrInvalidArgument
	}
	return s.repo.FindByBillingCustomer(ctx, customerID)
}

// UpdateTerritory edits counties, job types and the daily cap.
func (s *Service) UpdateTerritory(ctx context.Context, id string, u TerritoryUpdate) (Contractor, error) {
	if err := s.validate.Struct(u); err != nil {
		return Contractor{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contractor{}, err
	}
	if u.Counties != nil {
		c.Counties = cleanList(u.Counties)
	}
	if u.JobTypes != nil {
		c.JobTypes = cleanList(u.JobTypes)
	}
	if u.DailyLeadCap != nil {
		c.DailyLeadCap = *u.DailyLeadCap
	}
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

// SetStatus activates or deactivates a contractor. Inactive contractors never match new leads.
func (s *Service) SetStatus(ctx context.Context, id string, st Status) (Contractor, error) {
	if st != StatusActive && st != StatusInactive {
		return Contractor{}, ErrInvalidArgument
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contractor{}, err
	}
	if c.Status == st {
		return c, nil
	}
	c.Status = st
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

// AttachBilling stores the payment provider identifiers used for per-lead charges.
func (s *Service) AttachBilling(ctx context.Context, id, customerID, paymentMethodID string) (Contractor, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contractor{}, err
	}
	c.BillingCustomerID = strings.TrimSpace(customerID)
	c.BillingPaymentMethodID = strings.TrimSpace(paymentMethodID)
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Contractor{}, err
	}
	return c, nil
}

func (s *Service) CreateCampaign(ctx context.Context, contractorID string, req CampaignRequest) (Campaign, error) {
	if err := s.validate.Struct(req); err != nil {
		return Campaign{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	if _, err := s.Get(ctx, contractorID); err != nil {
		return Campaign{}, err
	}

	now := s.clock().UTC()
	c := Campaign{
		ID:           uuid.NewString(),
		ContractorID: contractorID,
		Name:         strings.TrimSpace(req.Name),
		Counties:     cleanList(req.Counties),
		JobTypes:     cleanList(req.JobTypes),
		DailyCap:     DefaultCampaignCap,
		Status:       CampaignActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.DailyCap != nil {
		c.DailyCap = *req.DailyCap
	}
	if req.Status != "" {
		c.Status = req.Status
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

// Campaign returns a campaign owned by contractorID.
func (s *Service) Campaign(ctx context.Context, contractorID, id string) (Campaign, error) {
	if id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	if contractorID != "" && c.ContractorID != contractorID {
		return Campaign{}, ErrCampaignNotFound
	}
	return c, nil
}

func (s *Service) ListCampaigns(ctx context.Context, contractorID string) ([]Campaign, error) {
	if contractorID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListCampaigns(ctx, contractorID)
}

func (s *Service) ListActiveCampaigns(ctx context.Context) ([]Campaign, error) {
	return s.repo.ListActiveCampaigns(ctx)
}

func (s *Service) UpdateCampaign(ctx context.Context, contractorID, id string, req CampaignRequest) (Campaign, error) {
	if err := s.validate.Struct(req); err != nil {
		return Campaign{}, fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	c, err := s.Campaign(ctx, contractorID, id)
	if err != nil {
		return Campaign{}, err
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Counties = cleanList(req.Counties)
	c.JobTypes = cleanList(req.JobTypes)
	if req.DailyCap != nil {
		c.DailyCap = *req.DailyCap
	}
	if req.Status != "" {
		c.Status = req.Status
	}
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateCampaign(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (s *Service) DeleteCampaign(ctx context.Context, contractorID, id string) error {
	if _, err := s.Campaign(ctx, contractorID, id); err != nil {
		return err
	}
	return s.repo.DeleteCampaign(ctx, id)
}
