package pricing

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const listLeadPricesSQL = `
SELECT id, county, job_type, currency, amount_minor, effective_from, effective_to, status, created_at, updated_at
FROM lead_prices
WHERE status = 'active' AND (county = '' OR lower(county) = lower($1))
`

func (r *PostgresRepo) ListLeadPrices(ctx context.Context, county string) ([]LeadPrice, error) {
	out := make([]LeadPrice, 0)
	if err := r.db.SelectContext(ctx, &out, listLeadPricesSQL, county); err != nil {
		return nil, err
	}
	return out, nil
}
