package audit

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo stores events in audit_events. The table has no UPDATE/DELETE grants.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const insertEventSQL = `
INSERT INTO audit_events (
  id, type, actor_user_id, actor_role, ip_address, lead_id, contractor_id, campaign_id, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.LeadID,
		e.ContractorID,
		e.CampaignID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

const listByLeadSQL = `
SELECT id, type, actor_user_id, actor_role, ip_address, lead_id, contractor_id, campaign_id, message, metadata, created_at
FROM audit_events
WHERE lead_id = $1
ORDER BY created_at DESC
LIMIT $2
`

func (r *PostgresRepo) ListByLead(ctx context.Context, leadID string, limit int) ([]Event, error) {
	var out []Event
	if err := r.db.SelectContext(ctx, &out, listByLeadSQL, leadID, limit); err != nil {
		return nil, err
	}
	return out, nil
}
