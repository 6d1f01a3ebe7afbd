package contractors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo stores contractors and campaigns. Counties and job types are TEXT[] columns.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const contractorColumns = `
  id, name, company_name, email, phone, counties, job_types, daily_lead_cap, status,
  COALESCE(billing_customer_id, '') AS billing_customer_id,
  COALESCE(billing_payment_method_id, '') AS billing_payment_method_id,
  created_at, updated_at`

const campaignColumns = `id, contractor_id, name, counties, job_types, daily_cap, status, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, c Contractor) error {
	const q = `
INSERT INTO contractors (
  id, name, company_name, email, phone, counties, job_types, daily_lead_cap, status,
  billing_customer_id, billing_payment_method_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),NULLIF($11,''),$12,$13
)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.CompanyName, c.Email, c.Phone, c.Counties, c.JobTypes, c.DailyLeadCap, c.Status,
		c.BillingCustomerID, c.BillingPaymentMethodID, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Contractor, error) {
	var c Contractor
	err := r.db.GetContext(ctx, &c, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Contractor{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Contractor, error) {
	out := make([]Contractor, 0)
	err := r.db.SelectContext(ctx, &out, `SELECT `+contractorColumns+` FROM contractors ORDER BY id`)
	return out, err
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]Contractor, error) {
	out := make([]Contractor, 0)
	err := r.db.SelectContext(ctx, &out, `SELECT `+contractorColumns+` FROM contractors WHERE status = 'active' ORDER BY id`)
	return out, err
}

func (r *PostgresRepo) FindByBillingCustomer(ctx context.Context, customerID string) (Contractor, error) {
	var c Contractor
	err := r.db.GetContext(ctx, &c, `SELECT `+contractorColumns+` FROM contractors WHERE billing_customer_id = $1`, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Contractor{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) Update(ctx context.Context, c Contractor) error {
	const q = `
UPDATE contractors
SET name = $2, company_name = $3, email = $4, phone = $5, counties = $6, job_types = $7,
    daily_lead_cap = $8, status = $9,
    billing_customer_id = NULLIF($10, ''), billing_payment_method_id = NULLIF($11, ''),
    updated_at = $12
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.CompanyName, c.Email, c.Phone, c.Counties, c.JobTypes, c.DailyLeadCap, c.Status,
		c.BillingCustomerID, c.BillingPaymentMethodID, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireOne(res, ErrNotFound)
}

func (r *PostgresRepo) CreateCampaign(ctx context.Context, c Campaign) error {
	const q = `
INSERT INTO campaigns (` + campaignColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.ContractorID, c.Name, c.Counties, c.JobTypes, c.DailyCap, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	var c Campaign
	err := r.db.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrCampaignNotFound
	}
	return c, err
}

func (r *PostgresRepo) ListCampaigns(ctx context.Context, contractorID string) ([]Campaign, error) {
	out := make([]Campaign, 0)
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+campaignColumns+` FROM campaigns WHERE contractor_id = $1 ORDER BY created_at DESC, id`, contractorID)
	return out, err
}

func (r *PostgresRepo) ListActiveCampaigns(ctx context.Context) ([]Campaign, error) {
	out := make([]Campaign, 0)
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+campaignColumns+` FROM campaigns WHERE status = 'active' ORDER BY contractor_id, id`)
	return out, err
}

func (r *PostgresRepo) UpdateCampaign(ctx context.Context, c Campaign) error {
	const q = `
UPDATE campaigns
SET name = $2, counties = $3, job_types = $4, daily_cap = $5, status = $6, updated_at = $7
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.Name, c.Counties, c.JobTypes, c.DailyCap, c.Status, c.UpdatedAt)
	if err != nil {
		return err
	}
	return requireOne(res, ErrCampaignNotFound)
}

func (r *PostgresRepo) DeleteCampaign(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireOne(res, ErrCampaignNotFound)
}

func requireOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return notFound
	}
	return nil
}
