package compile

import "fmt"

// For returns the Compiler for a normalized dialect name ("mysql",
// "postgres", "sqlite", "mssql"), mirroring connection.Resolver's own
// dialect switch so the migration ledger and the query builder agree on
// dialect naming.
func For(dialect string) (Compiler, error) {
	switch dialect {
	case "mysql":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	case "mssql":
		return MSSQL{}, nil
	default:
		return nil, fmt.Errorf("migration/compile: unsupported dialect %q", dialect)
	}
}
