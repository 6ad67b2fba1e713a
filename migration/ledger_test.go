package migration

import (
	"context"
	"testing"

	"github.com/ormforge/ormforge/connection"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	r := connection.NewResolver()
	r.SetConnectionDetails(map[string]*connection.Config{
		"default": {Driver: "sqlite", Database: ":memory:"},
	})
	return &Ledger{Resolver: r}
}

func createPetsMigration() Migration {
	return Func{
		MigrationName: "20260101000000_create_pets",
		UpFn: func(s *Schema) {
			s.Create("pets", func(bp *Blueprint) {
				bp.ID("id")
				bp.String("name", 0)
				bp.Timestamps()
			})
		},
		DownFn: func(s *Schema) {
			s.DropIfExists("pets")
		},
	}
}

func TestMigrateIsIdempotentAndRecordsBatches(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.Migrations = []Migration{createPetsMigration()}

	ran, err := l.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(ran) != 1 || ran[0] != "20260101000000_create_pets" {
		t.Fatalf("ran = %v, want one migration", ran)
	}

	ran2, err := l.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if len(ran2) != 0 {
		t.Fatalf("second Migrate ran %v, want none (already applied)", ran2)
	}

	status, err := l.StatusReport(ctx)
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if len(status) != 1 || !status[0].Applied {
		t.Fatalf("status = %+v, want one applied migration", status)
	}
}

func TestRollbackReversesLastBatch(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.Migrations = []Migration{createPetsMigration()}

	if _, err := l.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	rolled, err := l.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if len(rolled) != 1 {
		t.Fatalf("rolled = %v, want one migration reversed", rolled)
	}

	status, err := l.StatusReport(ctx)
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if status[0].Applied {
		t.Fatal("expected the migration to be pending again after rollback")
	}
}

func TestRefreshResetsThenMigrates(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.Migrations = []Migration{createPetsMigration()}

	if _, err := l.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := l.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	status, err := l.StatusReport(ctx)
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if !status[0].Applied {
		t.Fatal("expected the migration to be applied again after refresh")
	}
}
