package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"garageleadly/pkg/utils"

	"github.com/jmoiron/sqlx"
)

// NOTE: lead_transactions carries UNIQUE (idempotency_key).
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const transactionColumns = `
  id, lead_id, contractor_id, type, amount_minor, currency, status, idempotency_key,
  COALESCE(provider_ref, '') AS provider_ref,
  COALESCE(failure_reason, '') AS failure_reason,
  created_at, updated_at`

func (r *PostgresRepo) Begin(ctx context.Context, t Transaction) (Transaction, bool, error) {
	var (
		out     Transaction
		created bool
	)
	err := utils.WithTxx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sqlx.Tx) error {
		// Lock an existing row so a concurrent retry waits for this one to settle.
		err := tx.GetContext(ctx, &out,
			`SELECT `+transactionColumns+` FROM lead_transactions WHERE idempotency_key = $1 FOR UPDATE`,
			t.IdempotencyKey)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		const q = `
INSERT INTO lead_transactions (
  id, lead_id, contractor_id, type, amount_minor, currency, status, idempotency_key,
  provider_ref, failure_reason, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),NULLIF($10,''),$11,$12
)
ON CONFLICT (idempotency_key) DO NOTHING
`
		res, err := tx.ExecContext(ctx, q,
			t.ID,
			t.LeadID,
			t.ContractorID,
			t.Type,
			t.AmountMinor,
			t.Currency,
			t.Status,
			t.IdempotencyKey,
			t.ProviderRef,
			t.FailureReason,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			// Lost the insert race; return the winner.
			return tx.GetContext(ctx, &out,
				`SELECT `+transactionColumns+` FROM lead_transactions WHERE idempotency_key = $1`,
				t.IdempotencyKey)
		}
		out, created = t, true
		return nil
	})
	if err != nil {
		return Transaction{}, false, err
	}
	return out, created, nil
}

func (r *PostgresRepo) SetProviderRef(ctx context.Context, id, providerRef string, at time.Time) error {
	const q = `
UPDATE lead_transactions
SET provider_ref = $2,
    updated_at = $3
WHERE id = $1
`
	return r.exec(ctx, q, id, providerRef, at)
}

func (r *PostgresRepo) Complete(ctx context.Context, id, providerRef string, at time.Time) error {
	const q = `
UPDATE lead_transactions
SET status = 'completed',
    provider_ref = COALESCE(NULLIF($2, ''), provider_ref),
    failure_reason = NULL,
    updated_at = $3
WHERE id = $1
`
	return r.exec(ctx, q, id, providerRef, at)
}

func (r *PostgresRepo) Fail(ctx context.Context, id, providerRef, reason string, at time.Time) error {
	const q = `
UPDATE lead_transactions
SET status = 'failed',
    provider_ref = COALESCE(NULLIF($2, ''), provider_ref),
    failure_reason = $3,
    updated_at = $4
WHERE id = $1
`
	return r.exec(ctx, q, id, providerRef, reason, at)
}

func (r *PostgresRepo) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) FindByKey(ctx context.Context, key string) (Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM lead_transactions WHERE idempotency_key = $1`, key)
}

func (r *PostgresRepo) FindByProviderRef(ctx context.Context, ref string) (Transaction, error) {
	if ref == "" {
		return Transaction{}, ErrNotFound
	}
	return r.get(ctx, `SELECT `+transactionColumns+` FROM lead_transactions WHERE provider_ref = $1 ORDER BY created_at DESC LIMIT 1`, ref)
}

func (r *PostgresRepo) get(ctx context.Context, q string, args ...any) (Transaction, error) {
	var t Transaction
	if err := r.db.GetContext(ctx, &t, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *PostgresRepo) ListByContractor(ctx context.Context, contractorID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	out := make([]Transaction, 0)
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+transactionColumns+` FROM lead_transactions WHERE contractor_id = $1 ORDER BY created_at DESC, id LIMIT $2`,
		contractorID, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) SumCompleted(ctx context.Context, contractorID string, from, to time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount_minor), 0)
FROM lead_transactions
WHERE contractor_id = $1 AND status = 'completed'
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
`
	var sum int64
	err := r.db.GetContext(ctx, &sum, q, contractorID, nullTime(from), nullTime(to))
	return sum, err
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
