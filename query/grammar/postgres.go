package grammar

import (
	"fmt"
	"strings"
)

// Postgres implements Dialect for PostgreSQL: double-quoted identifiers,
// `$n` numbered placeholders, RETURNING support, native `~`/`!~` regexp.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (Postgres) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (Postgres) NowFunc() string { return "NOW()" }

func (Postgres) SupportsReturning() bool { return true }

func (Postgres) SupportsRegexp() bool { return true }

func (Postgres) RegexpOperator(negated bool) string {
	if negated {
		return "!~"
	}
	return "~"
}

func (Postgres) LockClause(mode LockMode) string {
	switch mode {
	case LockUpdate:
		return " FOR UPDATE"
	case LockShared:
		return " FOR SHARE"
	default:
		return ""
	}
}

func (Postgres) RequiresOrderByForPaging() bool { return false }

func (Postgres) truncateStatements(table string, disableFK bool) []string {
	quoted := Postgres{}.QuoteIdentifier(table)
	stmt := fmt.Sprintf("TRUNCATE TABLE %s", quoted)
	if disableFK {
		stmt += " CASCADE"
	}
	return []string{stmt}
}
