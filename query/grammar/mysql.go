package grammar

import (
	"fmt"
	"strings"
)

// MySQL implements Dialect for MySQL/MariaDB: backtick-quoted identifiers,
// `?` placeholders, no RETURINING, native REGEXP operator.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (MySQL) NowFunc() string { return "NOW()" }

func (MySQL) SupportsReturning() bool { return false }

func (MySQL) SupportsRegexp() bool { return true }

func (MySQL) RegexpOperator(negated bool) string {
	if negated {
		return "NOT REGEXP"
	}
	return "REGEXP"
}

func (MySQL) LockClause(mode LockMode) string {
	switch mode {
	case LockUpdate:
		return " FOR UPDATE"
	case LockShared:
		return " LOCK IN SHARE MODE"
	default:
		return ""
	}
}

func (MySQL) RequiresOrderByForPaging() bool { return false }

func (MySQL) truncateStatements(table string, disableFK bool) []string {
	quoted := MySQL{}.QuoteIdentifier(table)
	if !disableFK {
		return []string{fmt.Sprintf("TRUNCATE TABLE %s", quoted)}
	}
	return []string{
		"SET FOREIGN_KEY_CHECKS = 0",
		fmt.Sprintf("TRUNCATE TABLE %s", quoted),
		"SET FOREIGN_KEY_CHECKS = 1",
	}
}
