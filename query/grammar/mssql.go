package grammar

import (
	"fmt"
	"strings"
)

// MSSQL implements Dialect for Microsoft SQL Server: bracket-quoted
// identifiers, `?` placeholders (go-mssqldb accepts positional `?` via its
// "mssql" compatibility mode as well as named `@p1`; the core only ever
// emits `?` so the driver layer handles translation, matching how the query
// package stays placeholder-style-agnostic elsewhere), OUTPUT instead of
// RETURNING, and no native LIMIT/OFFSET or regexp operator.
type MSSQL struct{}

func (MSSQL) Name() string { return "mssql" }

func (MSSQL) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (MSSQL) Placeholder(int) string { return "?" }

func (MSSQL) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (MSSQL) NowFunc() string { return "GETUTCDATE()" }

// SupportsReturning is false: MSSQL uses OUTPUT INSERTED.* instead of the
// RETURNING clause; the compiler special-cases this dialect for INSERT.
func (MSSQL) SupportsReturning() bool { return false }

func (MSSQL) SupportsRegexp() bool { return false }

func (MSSQL) RegexpOperator(bool) string { return "" }

func (MSSQL) LockClause(mode LockMode) string {
	switch mode {
	case LockUpdate:
		return "" // rendered as a table hint by the compiler, not a trailing clause
	case LockShared:
		return ""
	default:
		return ""
	}
}

// TableHint returns the WITH (...) table hint MSSQL uses in place of a
// trailing FOR UPDATE/SHARE clause (spec §4.2 lock_for_update).
func (MSSQL) TableHint(mode LockMode) string {
	switch mode {
	case LockUpdate:
		return " WITH (UPDLOCK, ROWLOCK)"
	case LockShared:
		return " WITH (HOLDLOCK, ROWLOCK)"
	default:
		return ""
	}
}

func (MSSQL) RequiresOrderByForPaging() bool { return true }

func (MSSQL) truncateStatements(table string, disableFK bool) []string {
	quoted := MSSQL{}.QuoteIdentifier(table)
	if !disableFK {
		return []string{fmt.Sprintf("TRUNCATE TABLE %s", quoted)}
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s NOCHECK CONSTRAINT ALL", quoted),
		fmt.Sprintf("TRUNCATE TABLE %s", quoted),
		fmt.Sprintf("ALTER TABLE %s WITH CHECK CHECK CONSTRAINT ALL", quoted),
	}
}
