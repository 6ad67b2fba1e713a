// Command ormforge is the thin CLI shell spec §6 names around the core:
// it discovers connection details (package config), then runs one of the
// migrate verbs against the registered migrations. Model/migration/
// observer/seed generators are explicitly out of scope (spec §1); this
// binary only drives the migration ledger a real project would register
// its own migrations.Migrations slice with.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/ormforge/ormforge/cli"
	"github.com/ormforge/ormforge/config"
	"github.com/ormforge/ormforge/connection"
	"github.com/ormforge/ormforge/migration"
	migratecli "github.com/ormforge/ormforge/migration/cli"
)

// registeredMigrations is where a real project would list its own
// migration.Migration values; this binary ships with none so `migrate`
// reports "nothing to do" against an empty schema out of the box.
var registeredMigrations []migration.Migration

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		cli.Fatal("usage: ormforge <migrate|migrate:rollback|migrate:reset|migrate:refresh|migrate:status> [flags]")
		return 1
	}
	verb := args[0]

	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	connName := fs.String("connection", "", "connection name (defaults to the config's default connection)")
	show := fs.Bool("show", false, "print SQL instead of executing")
	force := fs.Bool("force", false, "required to run against a production environment")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	if os.Getenv("APP_ENV") == "production" && !*force {
		cli.Fatal("refusing to run against APP_ENV=production without --force")
		return 1
	}

	configs, defaultName, err := config.Load("DATABASE_URL")
	if err != nil {
		cli.FatalErr("loading configuration", err)
		return 1
	}
	resolver := connection.NewResolver()
	config.Apply(resolver, configs, defaultName)
	defer resolver.Close()

	ledger := &migration.Ledger{
		Resolver:       resolver,
		ConnectionName: *connName,
		Migrations:     registeredMigrations,
	}

	return migratecli.ExitCode(context.Background(), ledger, verb, *show)
}
