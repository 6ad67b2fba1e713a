// Package cli is the thin migration-CLI shell spec §1 frames as an external
// collaborator around the core ("command-line scaffolding ... are thin
// shells around the core; the core exposes ... a migration blueprint object
// whose compiled output is a list of SQL statements"). It wires
// migration.Ledger to the verbs and exit codes spec §6 names, using the
// teacher's cli output package for terminal messages.
package cli

import (
	"context"
	"fmt"

	"github.com/ormforge/ormforge/cli"
	"github.com/ormforge/ormforge/migration"
	"github.com/ormforge/ormforge/migration/compile"
)

// ExitCode runs one migrate verb against ledger and returns the process
// exit code spec §6 specifies: 0 on success, 1 on any failure.
//
// show, when true, implements --show: it never executes anything and
// returns 0 after printing the SQL, or 1 when the connection cannot be
// resolved or a blueprint fails to compile (spec §7 "Dry-run (--show)
// never executes; it prints SQL and returns success").
func ExitCode(ctx context.Context, ledger *migration.Ledger, verb string, show bool) int {
	if show {
		return runShow(ledger, verb)
	}

	switch verb {
	case "migrate":
		return report(ledger.Migrate(ctx))
	case "migrate:rollback":
		return report(ledger.Rollback(ctx))
	case "migrate:reset":
		return report(ledger.Reset(ctx))
	case "migrate:refresh":
		return report(ledger.Refresh(ctx))
	case "migrate:status":
		return reportStatus(ledger.StatusReport(ctx))
	default:
		cli.Fatal(fmt.Sprintf("unknown verb %q", verb))
		return 1
	}
}

func report(names []string, err error) int {
	if err != nil {
		cli.FatalErr("migration failed", err)
		return 1
	}
	if len(names) == 0 {
		cli.Info("nothing to do")
		return 0
	}
	for _, name := range names {
		cli.Successf("%s", name)
	}
	return 0
}

func reportStatus(statuses []migration.Status, err error) int {
	if err != nil {
		cli.FatalErr("status failed", err)
		return 1
	}
	for _, s := range statuses {
		if s.Applied {
			cli.Infof("[applied batch %d] %s", s.Batch, s.Name)
		} else {
			cli.Infof("[pending] %s", s.Name)
		}
	}
	return 0
}

// runShow prints the SQL each registered migration would run, without
// touching the database or the ledger table (spec §7 "--show ... prints
// SQL and returns success").
func runShow(ledger *migration.Ledger, verb string) int {
	conn, err := ledger.Resolver.GetConnection(ledger.ConnectionName)
	if err != nil {
		cli.FatalErr("--show", err)
		return 1
	}
	comp, err := compile.For(conn.Dialect())
	if err != nil {
		cli.FatalErr("--show", err)
		return 1
	}
	for _, m := range ledger.Migrations {
		s := &migration.Schema{}
		if verb == "migrate:rollback" || verb == "migrate:reset" {
			m.Down(s)
		} else {
			m.Up(s)
		}
		cli.Infof("-- %s", m.Name())
		for _, bp := range s.Blueprints() {
			stmts, err := comp.Compile(bp)
			if err != nil {
				cli.FatalErr("--show", err)
				return 1
			}
			for _, stmt := range stmts {
				cli.Info(stmt + ";")
			}
		}
	}
	return 0
}
