package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"garageleadly/internal/audit"
	"garageleadly/internal/contractors"
	"garageleadly/pkg/logger"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrInvalidSignature means the payload did not verify against the webhook secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// HandleWebhook verifies and applies one Stripe event. Unknown event types are ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log := logger.From(ctx).With("stripe_event_id", event.ID, "stripe_event_type", string(event.Type))
	ctx = logger.With(ctx, log)

	switch event.Type {
	case "charge.failed":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return fmt.Errorf("decode charge: %w", err)
		}
		return s.onChargeFailed(ctx, ch)
	case "charge.succeeded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return fmt.Errorf("decode charge: %w", err)
		}
		return s.onChargeSucceeded(ctx, ch)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return s.onSubscriptionDeleted(ctx, sub)
	case "payment_method.attached":
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
			return fmt.Errorf("decode payment method: %w", err)
		}
		return s.onPaymentMethodAttached(ctx, pm)
	default:
		log.Info("unhandled stripe event")
		return nil
	}
}

// lookup finds our transaction for a charge by metadata, then by payment intent.
func (s *Service) lookup(ctx context.Context, ch stripe.Charge) (Transaction, error) {
	leadID, contractorID := ch.Metadata["lead_id"], ch.Metadata["contractor_id"]
	if leadID != "" && contractorID != "" {
		t, err := s.repo.FindByKey(ctx, IdempotencyKey(leadID, contractorID))
		if err == nil || !errors.Is(err, ErrNotFound) {
			return t, err
		}
	}
	if ch.PaymentIntent != nil {
		return s.repo.FindByProviderRef(ctx, ch.PaymentIntent.ID)
	}
	return Transaction{}, ErrNotFound
}

func providerRef(ch stripe.Charge) string {
	if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
		return ch.PaymentIntent.ID
	}
	return ch.ID
}

func (s *Service) onChargeFailed(ctx context.Context, ch stripe.Charge) error {
	log := logger.From(ctx)
	reason := ch.FailureMessage
	if reason == "" {
		reason = "charge failed"
	}

	txn, err := s.lookup(ctx, ch)
	switch {
	case err == nil:
		if err := s.repo.Fail(ctx, txn.ID, providerRef(ch), reason, s.clock().UTC()); err != nil {
			return err
		}
		s.recordChargeFailed(ctx, txn.LeadID, txn.ContractorID, reason)
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	// No local row: record the failure if the charge names a lead.
	leadID, contractorID := ch.Metadata["lead_id"], ch.Metadata["contractor_id"]
	if leadID == "" || contractorID == "" {
		log.Warn("charge failed for unknown lead", "charge_id", ch.ID)
		return nil
	}
	now := s.clock().UTC()
	if _, _, err := s.repo.Begin(ctx, Transaction{
		ID:             uuid.NewString(),
		LeadID:         leadID,
		ContractorID:   contractorID,
		Type:           TransactionTypeLeadCharge,
		AmountMinor:    ch.Amount,
		Currency:       string(ch.Currency),
		Status:         TransactionFailed,
		IdempotencyKey: IdempotencyKey(leadID, contractorID),
		ProviderRef:    providerRef(ch),
		FailureReason:  reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return err
	}
	s.recordChargeFailed(ctx, leadID, contractorID, reason)
	return nil
}

func (s *Service) onChargeSucceeded(ctx context.Context, ch stripe.Charge) error {
	txn, err := s.lookup(ctx, ch)
	if errors.Is(err, ErrNotFound) {
		logger.From(ctx).Info("charge succeeded for unknown transaction", "charge_id", ch.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if txn.Status == TransactionCompleted {
		return nil
	}
	return s.complete(ctx, txn, providerRef(ch))
}

func (s *Service) onSubscriptionDeleted(ctx context.Context, sub stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil
	}
	c, err := s.contractors.FindByBillingCustomer(ctx, sub.Customer.ID)
	if errors.Is(err, contractors.ErrNotFound) {
		logger.From(ctx).Warn("subscription deleted for unknown customer", "customer_id", sub.Customer.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.contractors.SetStatus(ctx, c.ID, contractors.StatusInactive); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Append(ctx, audit.Event{
			Type:         audit.EventTypeContractorStatus,
			ContractorID: c.ID,
			Message:      "deactivated: subscription " + sub.ID + " deleted",
		}); err != nil {
			logger.From(ctx).Warn("audit write failed", "error", err)
		}
	}
	logger.From(ctx).Info("contractor deactivated", "contractor_id", c.ID)
	return nil
}

func (s *Service) onPaymentMethodAttached(ctx context.Context, pm stripe.PaymentMethod) error {
	if pm.Customer == nil || pm.Customer.ID == "" {
		return nil
	}
	c, err := s.contractors.FindByBillingCustomer(ctx, pm.Customer.ID)
	if errors.Is(err, contractors.ErrNotFound) {
		logger.From(ctx).Warn("payment method for unknown customer", "customer_id", pm.Customer.ID)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.contractors.AttachBilling(ctx, c.ID, pm.Customer.ID, pm.ID)
	return err
}
