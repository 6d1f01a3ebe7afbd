package billing

import (
	"fmt"
	"time"
)

// Transaction records one per-lead charge attempt.
// Invariant: at most one row per idempotency key; a retried charge reuses it.
type Transaction struct {
	ID           string `json:"id" db:"id"`
	LeadID       string `json:"lead_id" db:"lead_id"`
	ContractorID string `json:"contractor_id" db:"contractor_id"`

	Type TransactionType `json:"type" db:"type"`

	// AmountMinor is the charge in minor units (cents).
	AmountMinor int64  `json:"amount_minor" db:"amount_minor"`
	Currency    string `json:"currency" db:"currency"`

	Status TransactionStatus `json:"status" db:"status"`

	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	// ProviderRef is the payment intent id once the processor has seen the charge.
	ProviderRef   string `json:"provider_ref,omitempty" db:"provider_ref"`
	FailureReason string `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type TransactionType string

const TransactionTypeLeadCharge TransactionType = "lead_charge"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// IdempotencyKey identifies the charge of one lead to one contractor. A lead moved
// to another contractor by an operator is a separate charge.
func IdempotencyKey(leadID, contractorID string) string {
	return fmt.Sprintf("lead_charge:%s:%s", leadID, contractorID)
}
