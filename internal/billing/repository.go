package billing

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Repository persists lead transactions.
type Repository interface {
	// Begin inserts t unless a row with the same idempotency key exists, in which case
	// the existing row is returned and created is false.
	Begin(ctx context.Context, t Transaction) (out Transaction, created bool, err error)
	// SetProviderRef records the processor reference on a transaction still awaiting settlement.
	SetProviderRef(ctx context.Context, id, providerRef string, at time.Time) error
	Complete(ctx context.Context, id, providerRef string, at time.Time) error
	Fail(ctx context.Context, id, providerRef, reason string, at time.Time) error

	FindByKey(ctx context.Context, key string) (Transaction, error)
	FindByProviderRef(ctx context.Context, ref string) (Transaction, error)
	ListByContractor(ctx context.Context, contractorID string, limit int) ([]Transaction, error)
	// SumCompleted is the total charged to a contractor in [from, to). Zero times mean unbounded.
	SumCompleted(ctx context.Context, contractorID string, from, to time.Time) (int64, error)
}
