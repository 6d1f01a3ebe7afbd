package routing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresCounter keeps daily counters in daily_lead_counts. Each operation is one statement,
// so the row lock taken by ON CONFLICT serializes concurrent reservations.
type PostgresCounter struct {
	db *sqlx.DB
}

func NewPostgresCounter(db *sqlx.DB) *PostgresCounter { return &PostgresCounter{db: db} }

// The insert arm only seeds when the baseline is under the limit; the update arm only
// increments while the stored count is under the limit. No row returned means rejected.
const reserveCountSQL = `
INSERT INTO daily_lead_counts (scope, subject_id, day, lead_count, updated_at)
SELECT $1, $2, $3::date, $4::int + 1, now()
WHERE $4::int < $5::int
ON CONFLICT (scope, subject_id, day) DO UPDATE
SET lead_count = daily_lead_counts.lead_count + 1, updated_at = now()
WHERE daily_lead_counts.lead_count < $5::int
RETURNING lead_count
`

const incrementCountSQL = `
INSERT INTO daily_lead_counts (scope, subject_id, day, lead_count, updated_at)
VALUES ($1, $2, $3::date, $4::int + 1, now())
ON CONFLICT (scope, subject_id, day) DO UPDATE
SET lead_count = daily_lead_counts.lead_count + 1, updated_at = now()
RETURNING lead_count
`

const releaseCountSQL = `
UPDATE daily_lead_counts
SET lead_count = lead_count - 1, updated_at = now()
WHERE scope = $1 AND subject_id = $2 AND day = $3::date AND lead_count > 0
`

const selectCountSQL = `
SELECT lead_count FROM daily_lead_counts WHERE scope = $1 AND subject_id = $2 AND day = $3::date
`

func (c *PostgresCounter) Reserve(ctx context.Context, s Slot) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	var n int
	err := c.db.GetContext(ctx, &n, reserveCountSQL, string(s.Scope), s.ID, s.Day, s.Baseline, s.Limit)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *PostgresCounter) Increment(ctx context.Context, s Slot) (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	var n int
	err := c.db.GetContext(ctx, &n, incrementCountSQL, string(s.Scope), s.ID, s.Day, s.Baseline)
	return n, err
}

func (c *PostgresCounter) Release(ctx context.Context, s Slot) error {
	if err := s.validate(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, releaseCountSQL, string(s.Scope), s.ID, s.Day)
	return err
}

func (c *PostgresCounter) Count(ctx context.Context, s Slot) (int, bool, error) {
	if err := s.validate(); err != nil {
		return 0, false, err
	}
	var n int
	err := c.db.GetContext(ctx, &n, selectCountSQL, string(s.Scope), s.ID, s.Day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
