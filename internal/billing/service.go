package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/internal/metrics"
	"garageleadly/internal/pricing"
	"garageleadly/pkg/logger"

	"github.com/google/uuid"
)

// ErrNoPaymentMethod means the contractor has no billing customer on file.
var ErrNoPaymentMethod = errors.New("contractor has no payment method")

type PriceResolver interface {
	PriceFor(ctx context.Context, county, jobType string) (pricing.Quote, error)
}

// LeadCharger records the settled charge on the lead row.
type LeadCharger interface {
	SetCharge(ctx context.Context, id string, amountMinor int64) error
}

// ContractorDirectory is the contractor side used by webhooks.
type ContractorDirectory interface {
	FindByBillingCustomer(ctx context.Context, customerID string) (contractors.Contractor, error)
	SetStatus(ctx context.Context, id string, st contractors.Status) (contractors.Contractor, error)
	AttachBilling(ctx context.Context, id, customerID, paymentMethodID string) (contractors.Contractor, error)
}

type EventRecorder interface {
	Append(ctx context.Context, e audit.Event) error
}

// Service charges contractors per delivered lead.
//
// Invariants:
// - One transaction per (lead, contractor); retries reuse it and the processor idempotency key.
// - A failed charge never undoes the assignment.
type Service struct {
	repo        Repository
	processor   PaymentProcessor
	prices      PriceResolver
	leads       LeadCharger
	contractors ContractorDirectory
	audit       EventRecorder

	webhookSecret string
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

type Options struct {
	Repo          Repository
	Processor     PaymentProcessor
	Prices        PriceResolver
	Leads         LeadCharger
	Contractors   ContractorDirectory
	Audit         EventRecorder
	WebhookSecret string
}

func NewService(o Options) *Service {
	return &Service{
		repo:          o.Repo,
		processor:     o.Processor,
		prices:        o.Prices,
		leads:         o.Leads,
		contractors:   o.Contractors,
		audit:         o.Audit,
		webhookSecret: o.WebhookSecret,
		clock:         time.Now,
	}
}

// ChargeLead charges c for lead l. Called once the assignment is committed.
func (s *Service) ChargeLead(ctx context.Context, l leads.Lead, c contractors.Contractor) error {
	if l.ID == "" || c.ID == "" {
		return ErrInvalidArgument
	}
	log := logger.From(ctx).With("lead_id", l.ID, "contractor_id", c.ID)

	quote, err := s.prices.PriceFor(ctx, l.County, l.JobType)
	if err != nil {
		return fmt.Errorf("billing: price lead: %w", err)
	}

	now := s.clock().UTC()
	txn, created, err := s.repo.Begin(ctx, Transaction{
		ID:             uuid.NewString(),
		LeadID:         l.ID,
		ContractorID:   c.ID,
		Type:           TransactionTypeLeadCharge,
		AmountMinor:    quote.AmountMinor,
		Currency:       quote.Currency,
		Status:         TransactionPending,
		IdempotencyKey: IdempotencyKey(l.ID, c.ID),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return fmt.Errorf("billing: begin transaction: %w", err)
	}
	if !created && txn.Status == TransactionCompleted {
		log.Debug("lead already charged", "transaction_id", txn.ID)
		return nil
	}

	if c.BillingCustomerID == "" {
		return s.fail(ctx, txn, "", ErrNoPaymentMethod)
	}

	res, err := s.processor.Charge(ctx, ChargeRequest{
		CustomerID:      c.BillingCustomerID,
		PaymentMethodID: c.BillingPaymentMethodID,
		AmountMinor:     txn.AmountMinor,
		Currency:        txn.Currency,
		IdempotencyKey:  txn.IdempotencyKey,
		LeadID:          l.ID,
		ContractorID:    c.ID,
		Description:     fmt.Sprintf("GarageLeadly lead %s (%s)", l.ID, l.County),
	})
	if err != nil {
		return s.fail(ctx, txn, res.ProviderRef, err)
	}
	if !res.Settled {
		if res.ProviderRef != "" {
			if err := s.repo.SetProviderRef(ctx, txn.ID, res.ProviderRef, s.clock().UTC()); err != nil {
				return fmt.Errorf("billing: record provider ref: %w", err)
			}
		}
		log.Info("lead charge awaiting confirmation", "transaction_id", txn.ID, "provider_ref", res.ProviderRef)
		metrics.Charges.WithLabelValues(string(TransactionPending)).Inc()
		return nil
	}
	return s.complete(ctx, txn, res.ProviderRef)
}

func (s *Service) complete(ctx context.Context, txn Transaction, providerRef string) error {
	if err := s.repo.Complete(ctx, txn.ID, providerRef, s.clock().UTC()); err != nil {
		return fmt.Errorf("billing: complete transaction: %w", err)
	}
	if s.leads != nil {
		if err := s.leads.SetCharge(ctx, txn.LeadID, txn.AmountMinor); err != nil {
			return fmt.Errorf("billing: record lead charge: %w", err)
		}
	}
	metrics.Charges.WithLabelValues(string(TransactionCompleted)).Inc()
	logger.From(ctx).Info("lead charged",
		"lead_id", txn.LeadID,
		"contractor_id", txn.ContractorID,
		"amount_minor", txn.AmountMinor,
		"provider_ref", providerRef,
	)
	return nil
}

// fail marks the transaction failed, audits it and returns cause.
func (s *Service) fail(ctx context.Context, txn Transaction, providerRef string, cause error) error {
	log := logger.From(ctx).With("lead_id", txn.LeadID, "contractor_id", txn.ContractorID)
	if err := s.repo.Fail(ctx, txn.ID, providerRef, cause.Error(), s.clock().UTC()); err != nil {
		log.Error("mark transaction failed", "error", err)
	}
	metrics.Charges.WithLabelValues(string(TransactionFailed)).Inc()
	log.Warn("lead charge failed", "transaction_id", txn.ID, "error", cause)
	s.recordChargeFailed(ctx, txn.LeadID, txn.ContractorID, cause.Error())
	return fmt.Errorf("billing: charge lead %s: %w", txn.LeadID, cause)
}

func (s *Service) recordChargeFailed(ctx context.Context, leadID, contractorID, reason string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, audit.Event{
		Type:         audit.EventTypeChargeFailed,
		LeadID:       leadID,
		ContractorID: contractorID,
		Message:      reason,
	}); err != nil {
		logger.From(ctx).Warn("audit write failed", "error", err)
	}
}

// Transactions lists a contractor's charges, newest first.
func (s *Service) Transactions(ctx context.Context, contractorID string, limit int) ([]Transaction, error) {
	if contractorID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByContractor(ctx, contractorID, limit)
}

// TotalSpent is what the contractor has been charged in [from, to).
func (s *Service) TotalSpent(ctx context.Context, contractorID string, from, to time.Time) (int64, error) {
	return s.repo.SumCompleted(ctx, contractorID, from, to)
}
