package grammar

import (
	"fmt"
	"strings"
)

// SQLite implements Dialect for SQLite: double-quoted identifiers, `?`
// placeholders, RETURNING support (3.35+), no native regexp operator unless
// the REGEXP extension function is loaded — the core compiles to the
// REGEXP operator and lets SQLite fail at runtime if the extension is absent,
// matching the teacher's "let the driver be the source of truth" posture.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (SQLite) NowFunc() string { return "datetime('now')" }

func (SQLite) SupportsReturning() bool { return true }

func (SQLite) SupportsRegexp() bool { return true }

func (SQLite) RegexpOperator(negated bool) string {
	if negated {
		return "NOT REGEXP"
	}
	return "REGEXP"
}

func (SQLite) LockClause(LockMode) string {
	// SQLite has no row-level locking; the whole database is locked by the
	// write transaction, so FOR UPDATE/SHARE has no SQL equivalent.
	return ""
}

func (SQLite) RequiresOrderByForPaging() bool { return false }

func (SQLite) truncateStatements(table string, disableFK bool) []string {
	quoted := SQLite{}.QuoteIdentifier(table)
	if !disableFK {
		return []string{fmt.Sprintf("DELETE FROM %s", quoted)}
	}
	return []string{
		"PRAGMA foreign_keys = OFF",
		fmt.Sprintf("DELETE FROM %s", quoted),
		"PRAGMA foreign_keys = ON",
	}
}
