package compile

import (
	"fmt"

	"github.com/ormforge/ormforge/migration"
)

// SQLite compiles a Blueprint into SQLite DDL: double-quoted identifiers,
// dynamic typing (INTEGER PRIMARY KEY is the rowid alias and therefore
// self-incrementing), and ALTER TABLE's limited feature set (no DROP
// COLUMN/MODIFY COLUMN support pre-3.35 is out of scope; this targets
// modern SQLite as the teacher's modernc.org/sqlite driver does).
type SQLite struct{}

func (SQLite) Compile(bp *migration.Blueprint) ([]string, error) {
	return compileGeneric(bp, dialectHooks{
		quote:                 sqliteQuote,
		columnType:            sqliteColumnType,
		boolDefault:           func(b bool) string { return map[bool]string{true: "1", false: "0"}[b] },
		autoIncrement:         "", // INTEGER PRIMARY KEY is already the rowid alias
		dropIfExistsSupported: true,
		alterColumnKeyword:    "ALTER COLUMN",
	})
}

func sqliteQuote(name string) string { return `"` + name + `"` }

func sqliteColumnType(col migration.Column) (string, error) {
	switch col.Type {
	case migration.ColBigInt, migration.ColInt:
		if col.Primary {
			return "INTEGER", nil
		}
		return "INTEGER", nil
	case migration.ColString:
		length := col.Length
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case migration.ColText:
		return "TEXT", nil
	case migration.ColBool:
		return "BOOLEAN", nil
	case migration.ColDateTime:
		return "DATETIME", nil
	case migration.ColDate:
		return "DATE", nil
	case migration.ColFloat:
		return "REAL", nil
	case migration.ColDecimal:
		precision, scale := col.Length, col.Scale
		if precision == 0 {
			precision = 10
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", precision, scale), nil
	case migration.ColJSON:
		return "TEXT", nil
	case migration.ColBinary:
		return "BLOB", nil
	case migration.ColUUID:
		return "VARCHAR(36)", nil
	default:
		return "", fmt.Errorf("migration/compile/sqlite: unknown column type %q", col.Type)
	}
}
