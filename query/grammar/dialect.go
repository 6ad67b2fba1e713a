// Package grammar compiles a github.com/ormforge/ormforge/query.AST into
// dialect-specific SQL plus a positional bindings vector, for MySQL/MariaDB,
// PostgreSQL, SQLite, and MSSQL (spec §4.1).
package grammar

import "fmt"

// Dialect captures everything that differs between the four supported
// backends: identifier quoting, placeholder syntax, boolean/now literals,
// RETURNING support, and the LIMIT/OFFSET/lock-clause oddities of MSSQL.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(index int) string
	BoolLiteral(val bool) string
	NowFunc() string
	SupportsReturning() bool
	SupportsRegexp() bool
	RegexpOperator(negated bool) string
	LockClause(mode LockMode) string
	// RequiresOrderByForPaging reports whether the dialect's paging clause
	// (rendered by the Compiler: LIMIT/OFFSET, or for MSSQL OFFSET ... FETCH
	// NEXT ... ROWS ONLY) requires an ORDER BY to precede it (MSSQL does;
	// spec §4.1 injects `ORDER BY (SELECT NULL)` when the caller supplied none).
	RequiresOrderByForPaging() bool
}

// LockMode mirrors query.LockMode without importing the query package from
// this file (kept local to avoid a cyclic doc reference); the compiler
// translates query.LockMode to this type at the call site.
type LockMode string

const (
	LockNone   LockMode = ""
	LockShared LockMode = "shared"
	LockUpdate LockMode = "update"
)

// ErrUnsupportedRegexp is returned when a `regexp`/`not regexp` operator is
// compiled against a dialect with no native regular-expression operator
// (spec §9 Open Question: MSSQL has none).
var ErrUnsupportedRegexp = fmt.Errorf("grammar: dialect does not support the regexp operator")
