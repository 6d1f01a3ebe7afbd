package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestPostgresRepo_ListLeadPrices(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepo(sqlx.NewDb(db, "postgres"))

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "county", "job_type", "currency", "amount_minor", "effective_from", "effective_to", "status", "created_at", "updated_at"}).
		AddRow("p1", "Harris", "", "usd", int64(5000), now, nil, "active", now, now)
	mock.ExpectQuery(`FROM lead_prices WHERE status = 'active' AND \(county = '' OR lower\(county\) = lower\(\$1\)\)`).
		WithArgs("Harris").
		WillReturnRows(rows)

	got, err := repo.ListLeadPrices(context.Background(), "Harris")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].AmountMinor != 5000 || got[0].EffectiveTo != nil {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
