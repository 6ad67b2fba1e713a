package connection

import (
	"context"
	"errors"
	"testing"
)

var errInduced = errors.New("induced failure")

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver()
	r.SetConnectionDetails(map[string]*Config{
		"default": {Driver: "sqlite", Database: ":memory:"},
	})
	return r
}

func TestResolver_GetConnectionIsPooled(t *testing.T) {
	r := newTestResolver(t)
	a, err := r.GetConnection("default")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	b, err := r.GetConnection("")
	if err != nil {
		t.Fatalf("GetConnection(default via empty name): %v", err)
	}
	if a != b {
		t.Fatal("expected the same pooled *Connection for the default name and an empty name")
	}
}

func TestResolver_UnknownConnection(t *testing.T) {
	r := newTestResolver(t)
	if _, err := r.GetConnection("nope"); err == nil {
		t.Fatal("expected an error for an unregistered connection name")
	}
}

func TestResolver_TableAndStatement(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	if _, err := r.Statement(ctx, "", "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}

	builder, err := r.Table("", "widgets")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if _, err := builder.Create(ctx, map[string]any{"name": "sprocket"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	builder2, err := r.Table("", "widgets")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	rows, err := builder2.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "sprocket" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestResolver_NestedTransactionSavepoints(t *testing.T) {
	r := newTestResolver(t)
	ctx := context.Background()

	if _, err := r.Statement(ctx, "", "CREATE TABLE counters (n INTEGER)", nil); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := r.Transaction(ctx, "", func(conn *Connection) error {
		if _, err := conn.Statement(ctx, "INSERT INTO counters (n) VALUES (?)", []any{1}); err != nil {
			return err
		}
		// Nested scope fails and should roll back only its own savepoint,
		// leaving the outer insert intact.
		innerErr := conn.Transaction(ctx, func(inner *Connection) error {
			if _, err := inner.Statement(ctx, "INSERT INTO counters (n) VALUES (?)", []any{2}); err != nil {
				return err
			}
			return errInduced
		})
		if innerErr == nil {
			t.Fatal("expected the nested transaction to report its induced failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer transaction: %v", err)
	}

	conn, err := r.GetConnection("")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	rows, err := conn.Statement(ctx, "SELECT n FROM counters ORDER BY n", nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the outer insert to survive the nested rollback, got %+v", rows)
	}
}
