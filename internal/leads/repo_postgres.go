package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo stores leads in the leads table.
// Nullable references are read back as empty strings.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const leadColumns = `
  id, customer_name, phone, email, address, city, zip, county, job_type, issue,
  submitted_at, status,
  COALESCE(contractor_id, '') AS contractor_id,
  COALESCE(campaign_id, '') AS campaign_id,
  assigned_at, over_cap, charge_minor, job_value_minor, notification_status, notes,
  created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, l Lead) error {
	const q = `
INSERT INTO leads (
  id, customer_name, phone, email, address, city, zip, county, job_type, issue,
  submitted_at, status, notification_status, notes, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
`
	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.CustomerName, l.Phone, l.Email, l.Address, l.City, l.Zip, l.County, l.JobType, l.Issue,
		l.SubmittedAt, l.Status, l.NotificationStatus, l.Notes, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Lead, error) {
	var l Lead
	err := r.db.GetContext(ctx, &l, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return l, nil
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Lead, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ContractorID != "" {
		add("contractor_id = $%d", f.ContractorID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		add("submitted_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("submitted_at < $%d", f.To)
	}

	q := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY submitted_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	out := make([]Lead, 0)
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) Assign(ctx context.Context, a Assignment) (bool, error) {
	const q = `
UPDATE leads
SET status = 'assigned',
    contractor_id = $2,
    campaign_id = NULLIF($3, ''),
    over_cap = $4,
    assigned_at = $5,
    notification_status = 'pending',
    updated_at = $5
WHERE id = $1 AND status = $6 AND COALESCE(contractor_id, '') = $7
`
	res, err := r.db.ExecContext(ctx, q, a.LeadID, a.ContractorID, a.CampaignID, a.OverCap, a.AssignedAt, a.ExpectStatus, a.ExpectContractorID)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *PostgresRepo) Unassign(ctx context.Context, id string, expectStatus Status, expectContractorID string, at time.Time) (bool, error) {
	const q = `
UPDATE leads
SET status = 'unassigned',
    contractor_id = NULL,
    campaign_id = NULL,
    over_cap = false,
    assigned_at = NULL,
    notification_status = 'none',
    updated_at = $4
WHERE id = $1 AND status = $2 AND COALESCE(contractor_id, '') = $3
`
	res, err := r.db.ExecContext(ctx, q, id, expectStatus, expectContractorID, at)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *PostgresRepo) UpdateOutcome(ctx context.Context, id string, from Status, u OutcomeUpdate, at time.Time) (bool, error) {
	const q = `
UPDATE leads
SET status = $2,
    job_value_minor = COALESCE($3, job_value_minor),
    notes = CASE WHEN $4 = '' THEN notes ELSE $4 END,
    updated_at = $5
WHERE id = $1 AND status = $6
`
	res, err := r.db.ExecContext(ctx, q, id, u.Status, u.JobValueMinor, u.Notes, at, from)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (r *PostgresRepo) SetNotificationStatus(ctx context.Context, id string, st NotificationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET notification_status = $2 WHERE id = $1`, id, st)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *PostgresRepo) SetCharge(ctx context.Context, id string, amountMinor int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET charge_minor = $2 WHERE id = $1`, id, amountMinor)
	if err != nil {
		return err
	}
	return requireOne(res)
}

func (r *PostgresRepo) CountDelivered(ctx context.Context, contractorID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM leads WHERE contractor_id = $1 AND submitted_at >= $2 AND submitted_at < $3`,
		contractorID, from, to)
	return n, err
}

func (r *PostgresRepo) CountDeliveredForCampaign(ctx context.Context, campaignID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM leads WHERE campaign_id = $1 AND submitted_at >= $2 AND submitted_at < $3`,
		campaignID, from, to)
	return n, err
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func requireOne(res sql.Result) error {
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
