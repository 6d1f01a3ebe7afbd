package contractors

import (
	"time"

	"github.com/lib/pq"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Contractor is a paying customer that receives leads. Contractors are soft-disabled, never deleted.
type Contractor struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	CompanyName string `json:"company_name" db:"company_name"`
	Email       string `json:"email" db:"email"`
	Phone       string `json:"phone" db:"phone"`

	Counties     pq.StringArray `json:"counties" db:"counties"`
	JobTypes     pq.StringArray `json:"job_types" db:"job_types"`
	DailyLeadCap int            `json:"daily_lead_cap" db:"daily_lead_cap"`
	Status       Status         `json:"status" db:"status"`

	BillingCustomerID      string `json:"-" db:"billing_customer_id"`
	BillingPaymentMethodID string `json:"-" db:"billing_payment_method_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (c Contractor) Active() bool { return c.Status == StatusActive }

type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
)

const DefaultCampaignCap = 5

// Campaign narrows a contractor's territory and carries its own daily cap.
type Campaign struct {
	ID           string         `json:"id" db:"id"`
	ContractorID string         `json:"contractor_id" db:"contractor_id"`
	Name         string         `json:"name" db:"name"`
	Counties     pq.StringArray `json:"counties" db:"counties"`
	JobTypes     pq.StringArray `json:"job_types" db:"job_types"`
	DailyCap     int            `json:"daily_cap" db:"daily_cap"`
	Status       CampaignStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

func (c Campaign) Active() bool { return c.Status == CampaignActive }

type CreateRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	CompanyName  string   `json:"company_name" validate:"max=200"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone"`
	Counties     []string `json:"counties" validate:"required,min=1,dive,required"`
	JobTypes     []string `json:"job_types" validate:"dive,required"`
	DailyLeadCap int      `json:"daily_lead_cap" validate:"gte=0,lte=1000"`
}

// TerritoryUpdate replaces whatever fields are set.
type TerritoryUpdate struct {
	Counties     []string `json:"counties" validate:"omitempty,min=1,dive,required"`
	JobTypes     []string `json:"job_types" validate:"omitempty,dive,required"`
	DailyLeadCap *int     `json:"daily_lead_cap" validate:"omitempty,gte=0,lte=1000"`
}

type CampaignRequest struct {
	Name     string         `json:"name" validate:"required,max=200"`
	Counties []string       `json:"counties" validate:"required,min=1,dive,required"`
	JobTypes []string       `json:"job_types" validate:"required,min=1,dive,required"`
	DailyCap *int           `json:"daily_cap" validate:"omitempty,gte=0,lte=1000"`
	Status   CampaignStatus `json:"status" validate:"omitempty,oneof=active paused"`
}
