package migration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ormforge/ormforge/connection"
	"github.com/ormforge/ormforge/migration/compile"
)

// LedgerTable is the bookkeeping table name spec §4.6 fixes as
// `{id, migration, batch}`.
const LedgerTable = "migrations"

// Ledger runs migrations against a named connection, recording applied
// migrations in LedgerTable so repeated Migrate calls are idempotent and
// Rollback/Reset/Refresh can address a specific batch (spec §4.6,
// generalizing the teacher's db/portsql/migrate/run.go and tracking.go from
// portsql's fixed public_id convention to the spec's batch model).
type Ledger struct {
	Resolver       *connection.Resolver
	ConnectionName string
	Migrations     []Migration // registered in any order; Migrate sorts by Name
}

// EnsureTable creates the migrations ledger table if it does not exist yet.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	conn, err := l.Resolver.GetConnection(l.ConnectionName)
	if err != nil {
		return err
	}
	comp, err := compile.For(conn.Dialect())
	if err != nil {
		return err
	}
	bp := &Blueprint{Table: LedgerTable, Mode: ModeCreate}
	bp.ID("id")
	bp.String("migration", 255).Unique()
	bp.Int("batch")
	stmts, err := comp.Compile(bp)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := l.Resolver.Statement(ctx, l.ConnectionName, stmt, nil); err != nil {
			// The table already existing is not a failure; every other
			// driver error is (spec §5 "two concurrent migrate runs ...
			// resolved by the database").
			if strings.Contains(strings.ToLower(err.Error()), "already") {
				continue
			}
			return err
		}
	}
	return nil
}

// appliedNames returns every migration name already recorded in the ledger.
func (l *Ledger) appliedNames(ctx context.Context) (map[string]bool, error) {
	b, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return nil, err
	}
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	applied := map[string]bool{}
	for _, r := range rows {
		if name, ok := r["migration"].(string); ok {
			applied[name] = true
		}
	}
	return applied, nil
}

func (l *Ledger) lastBatch(ctx context.Context) (int64, error) {
	b, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return 0, err
	}
	v, err := b.Max(ctx, "batch")
	if err != nil {
		return 0, err
	}
	return toInt64(v), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func (l *Ledger) sorted() []Migration {
	out := make([]Migration, len(l.Migrations))
	copy(out, l.Migrations)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (l *Ledger) run(ctx context.Context, m Migration, forward bool) error {
	conn, err := l.Resolver.GetConnection(l.ConnectionName)
	if err != nil {
		return err
	}
	comp, err := compile.For(conn.Dialect())
	if err != nil {
		return err
	}
	s := &Schema{}
	if forward {
		m.Up(s)
	} else {
		m.Down(s)
	}
	var stmts []string
	for _, bp := range s.Blueprints() {
		out, err := comp.Compile(bp)
		if err != nil {
			return &Error{Migration: m.Name(), Cause: fmt.Errorf("compiling %s: %w", bp.Table, err)}
		}
		stmts = append(stmts, out...)
	}
	// Single-file transaction (spec §7 MigrationError): PostgreSQL commits
	// all-or-nothing because it supports DDL transactions; MySQL auto-
	// commits each DDL statement regardless, so a partial failure there
	// leaves earlier statements applied — both are the driver's own
	// behavior, not something the ledger can paper over.
	return l.Resolver.Transaction(ctx, l.ConnectionName, func(c *connection.Connection) error {
		for _, stmt := range stmts {
			if _, err := c.Statement(ctx, stmt, nil); err != nil {
				return &Error{Migration: m.Name(), Cause: err}
			}
		}
		return nil
	})
}

// Error is the MigrationError taxonomy entry from spec §7.
type Error struct {
	Migration string
	Cause     error
}

func (e *Error) Error() string { return fmt.Sprintf("migration %s: %v", e.Migration, e.Cause) }
func (e *Error) Unwrap() error  { return e.Cause }

// Migrate runs every unapplied migration in lexicographic name order under
// the next batch number (spec §4.6 "migrate").
func (l *Ledger) Migrate(ctx context.Context) ([]string, error) {
	if err := l.EnsureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := l.appliedNames(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := l.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch++

	var ran []string
	ledgerTable, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return nil, err
	}
	for _, m := range l.sorted() {
		if applied[m.Name()] {
			continue
		}
		if err := l.run(ctx, m, true); err != nil {
			return ran, err
		}
		if _, err := ledgerTable.Clone().Create(ctx, map[string]any{"migration": m.Name(), "batch": batch}); err != nil {
			return ran, err
		}
		ran = append(ran, m.Name())
	}
	return ran, nil
}

// batchMigrations returns the migrations recorded in the ledger row set,
// resolved against l.Migrations by name, newest name first within the
// batch (for rollback ordering).
func (l *Ledger) batchMigrations(ctx context.Context, batch int64) ([]Migration, error) {
	b, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return nil, err
	}
	rows, err := b.Where("batch", "=", batch).Get(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]Migration{}
	for _, m := range l.Migrations {
		byName[m.Name()] = m
	}
	var names []string
	for _, r := range rows {
		if name, ok := r["migration"].(string); ok {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	var out []Migration
	for _, name := range names {
		m, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("migration/ledger: migration %q recorded in ledger but not registered", name)
		}
		out = append(out, m)
	}
	return out, nil
}

// Rollback reverses every migration in the last batch (spec §4.6
// "migrate:rollback").
func (l *Ledger) Rollback(ctx context.Context) ([]string, error) {
	batch, err := l.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		return nil, nil
	}
	return l.rollbackBatch(ctx, batch)
}

func (l *Ledger) rollbackBatch(ctx context.Context, batch int64) ([]string, error) {
	migs, err := l.batchMigrations(ctx, batch)
	if err != nil {
		return nil, err
	}
	ledgerTable, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return nil, err
	}
	var rolled []string
	for _, m := range migs {
		if err := l.run(ctx, m, false); err != nil {
			return rolled, err
		}
		if _, err := ledgerTable.Clone().Where("migration", "=", m.Name()).Delete(ctx); err != nil {
			return rolled, err
		}
		rolled = append(rolled, m.Name())
	}
	return rolled, nil
}

// Reset reverses every applied batch, newest first (spec §4.6
// "migrate:reset").
func (l *Ledger) Reset(ctx context.Context) ([]string, error) {
	var all []string
	for {
		batch, err := l.lastBatch(ctx)
		if err != nil {
			return all, err
		}
		if batch == 0 {
			return all, nil
		}
		rolled, err := l.rollbackBatch(ctx, batch)
		if err != nil {
			return all, err
		}
		all = append(all, rolled...)
	}
}

// Refresh resets then re-runs every migration (spec §4.6 "migrate:refresh").
func (l *Ledger) Refresh(ctx context.Context) ([]string, error) {
	if _, err := l.Reset(ctx); err != nil {
		return nil, err
	}
	return l.Migrate(ctx)
}

// Status is one row of `migrate:status` output: a migration name and
// whether it has been applied.
type Status struct {
	Name    string
	Applied bool
	Batch   int64
}

// StatusReport returns every registered migration's applied/pending state,
// in name order (spec §4.6 "migrate:status").
func (l *Ledger) StatusReport(ctx context.Context) ([]Status, error) {
	if err := l.EnsureTable(ctx); err != nil {
		return nil, err
	}
	b, err := l.Resolver.Table(l.ConnectionName, LedgerTable)
	if err != nil {
		return nil, err
	}
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	batches := map[string]int64{}
	for _, r := range rows {
		name, _ := r["migration"].(string)
		batches[name] = toInt64(r["batch"])
	}
	var out []Status
	for _, m := range l.sorted() {
		batch, applied := batches[m.Name()]
		out = append(out, Status{Name: m.Name(), Applied: applied, Batch: batch})
	}
	return out, nil
}
