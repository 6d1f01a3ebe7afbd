package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrations_AreEmbeddedInOrder(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) < 4 {
		t.Fatalf("expected embedded migrations, got %d", len(entries))
	}
	prev := ""
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			t.Fatalf("unexpected file %s", e.Name())
		}
		if e.Name() <= prev {
			t.Fatalf("migrations out of order: %s after %s", e.Name(), prev)
		}
		prev = e.Name()

		body, err := fs.ReadFile(Migrations(), e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Fatalf("%s missing goose annotations", e.Name())
		}
	}
}

func TestMigrations_CreateRepositoryTables(t *testing.T) {
	var all strings.Builder
	entries, _ := fs.ReadDir(Migrations(), ".")
	for _, e := range entries {
		body, _ := fs.ReadFile(Migrations(), e.Name())
		all.Write(body)
	}
	for _, table := range []string{"contractors", "campaigns", "leads", "daily_lead_counts", "lead_prices", "lead_transactions", "audit_events"} {
		if !strings.Contains(all.String(), "CREATE TABLE "+table+" (") {
			t.Fatalf("missing table %s", table)
		}
	}
}
