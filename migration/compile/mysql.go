package compile

import (
	"fmt"

	"github.com/ormforge/ormforge/migration"
)

// MySQL compiles a Blueprint into MySQL/MariaDB DDL: backtick-quoted
// identifiers, AUTO_INCREMENT primary keys, TINYINT(1) booleans.
type MySQL struct{}

func (MySQL) Compile(bp *migration.Blueprint) ([]string, error) {
	return compileGeneric(bp, dialectHooks{
		quote:                 mysqlQuote,
		columnType:            mysqlColumnType,
		boolDefault:           func(b bool) string { return map[bool]string{true: "1", false: "0"}[b] },
		autoIncrement:         "AUTO_INCREMENT",
		dropIfExistsSupported: true,
		alterColumnKeyword:    "MODIFY COLUMN",
	})
}

func mysqlQuote(name string) string { return "`" + name + "`" }

func mysqlColumnType(col migration.Column) (string, error) {
	switch col.Type {
	case migration.ColBigInt:
		return "BIGINT", nil
	case migration.ColInt:
		return "INT", nil
	case migration.ColString:
		length := col.Length
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case migration.ColText:
		return "TEXT", nil
	case migration.ColBool:
		return "TINYINT(1)", nil
	case migration.ColDateTime:
		return "DATETIME", nil
	case migration.ColDate:
		return "DATE", nil
	case migration.ColFloat:
		return "DOUBLE", nil
	case migration.ColDecimal:
		precision, scale := col.Length, col.Scale
		if precision == 0 {
			precision = 10
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", precision, scale), nil
	case migration.ColJSON:
		return "JSON", nil
	case migration.ColBinary:
		return "BLOB", nil
	case migration.ColUUID:
		return "CHAR(36)", nil
	default:
		return "", fmt.Errorf("migration/compile/mysql: unknown column type %q", col.Type)
	}
}
