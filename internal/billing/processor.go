package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrPaymentDeclined means the processor refused the charge. The transaction is failed.
var ErrPaymentDeclined = errors.New("payment declined")

type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	AmountMinor     int64
	Currency        string
	IdempotencyKey  string
	LeadID          string
	ContractorID    string
	Description     string
}

type ChargeResult struct {
	ProviderRef string
	// Settled is false while the processor still needs to confirm (webhook completes it).
	Settled bool
}

// PaymentProcessor charges a stored payment method off-session.
type PaymentProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// StripeProcessor charges through Stripe PaymentIntents.
type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(secretKey string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{api: client.New(secretKey, backends)}
}

func (p *StripeProcessor) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.CustomerID == "" || req.AmountMinor <= 0 || req.Currency == "" || req.IdempotencyKey == "" {
		return ChargeResult{}, ErrInvalidArgument
	}

	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(req.AmountMinor),
		Currency:   stripe.String(req.Currency),
		Customer:   stripe.String(req.CustomerID),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
	}
	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("lead_id", req.LeadID)
	params.AddMetadata("contractor_id", req.ContractorID)
	params.AddMetadata("type", string(TransactionTypeLeadCharge))

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			return ChargeResult{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, serr.Msg)
		}
		return ChargeResult{}, fmt.Errorf("stripe payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return ChargeResult{ProviderRef: pi.ID, Settled: true}, nil
	case stripe.PaymentIntentStatusProcessing:
		return ChargeResult{ProviderRef: pi.ID}, nil
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return ChargeResult{ProviderRef: pi.ID}, fmt.Errorf("%w: payment intent %s", ErrPaymentDeclined, pi.Status)
	default:
		// requires_action and friends cannot be completed off-session.
		return ChargeResult{ProviderRef: pi.ID}, fmt.Errorf("%w: payment intent %s", ErrPaymentDeclined, pi.Status)
	}
}
