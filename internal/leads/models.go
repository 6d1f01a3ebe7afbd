package leads

import "time"

// Lead is a customer's service request. Leads are never deleted.
type Lead struct {
	ID string `json:"id" db:"id"`

	CustomerName string `json:"customer_name" db:"customer_name"`
	Phone        string `json:"phone" db:"phone"`
	Email        string `json:"email,omitempty" db:"email"`
	Address      string `json:"address,omitempty" db:"address"`
	City         string `json:"city,omitempty" db:"city"`
	Zip          string `json:"zip,omitempty" db:"zip"`
	County       string `json:"county" db:"county"`
	JobType      string `json:"job_type,omitempty" db:"job_type"`
	Issue        string `json:"issue,omitempty" db:"issue"`

	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
	Status      Status    `json:"status" db:"status"`

	// ContractorID and CampaignID are empty while the lead is unassigned.
	ContractorID string     `json:"contractor_id,omitempty" db:"contractor_id"`
	CampaignID   string     `json:"campaign_id,omitempty" db:"campaign_id"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`
	// OverCap marks a lead pushed past the contractor's daily cap by a super_admin.
	OverCap bool `json:"over_cap" db:"over_cap"`

	ChargeMinor   *int64 `json:"charge_minor,omitempty" db:"charge_minor"`
	JobValueMinor *int64 `json:"job_value_minor,omitempty" db:"job_value_minor"`

	NotificationStatus NotificationStatus `json:"notification_status" db:"notification_status"`
	Notes              string             `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NotificationStatus string

const (
	NotificationNone    NotificationStatus = "none"
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Assignment is a conditional write. It only applies while the stored lead still has
// ExpectStatus and ExpectContractorID, so two writers cannot both win.
type Assignment struct {
	LeadID       string
	ContractorID string
	CampaignID   string
	OverCap      bool
	AssignedAt   time.Time

	ExpectStatus       Status
	ExpectContractorID string
}

// Filter narrows List queries. Zero values mean "any".
type Filter struct {
	ContractorID string
	Status       Status
	From         time.Time
	To           time.Time
	Limit        int
}

// SubmitRequest is the public intake payload.
type SubmitRequest struct {
	CustomerName string `json:"customer_name" validate:"required,max=200"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Address      string `json:"address" validate:"max=300"`
	City         string `json:"city" validate:"max=100"`
	Zip          string `json:"zip" validate:"omitempty,max=10"`
	County       string `json:"county" validate:"required,max=100"`
	JobType      string `json:"job_type" validate:"max=100"`
	Issue        string `json:"issue" validate:"max=2000"`
}

// OutcomeUpdate moves a lead along the outcome track.
type OutcomeUpdate struct {
	Status        Status `json:"status" validate:"required"`
	JobValueMinor *int64 `json:"job_value_minor" validate:"omitempty,gte=0"`
	Notes         string `json:"notes" validate:"max=2000"`
}
