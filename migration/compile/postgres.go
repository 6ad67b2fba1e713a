package compile

import (
	"fmt"

	"github.com/ormforge/ormforge/migration"
)

// Postgres compiles a Blueprint into PostgreSQL DDL: double-quoted
// identifiers, BIGSERIAL/SERIAL primary keys, native BOOLEAN and UUID
// types.
type Postgres struct{}

func (Postgres) Compile(bp *migration.Blueprint) ([]string, error) {
	stmts, err := compileGeneric(bp, dialectHooks{
		quote:                 postgresQuote,
		columnType:            postgresColumnType,
		boolDefault:           func(b bool) string { return map[bool]string{true: "TRUE", false: "FALSE"}[b] },
		autoIncrement:         "", // serial types carry the auto-increment, handled in postgresColumnType
		dropIfExistsSupported: true,
		alterColumnKeyword:    "ALTER COLUMN",
	})
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

func postgresQuote(name string) string { return `"` + name + `"` }

func postgresColumnType(col migration.Column) (string, error) {
	switch col.Type {
	case migration.ColBigInt:
		if col.Primary {
			return "BIGSERIAL", nil
		}
		return "BIGINT", nil
	case migration.ColInt:
		if col.Primary {
			return "SERIAL", nil
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
		return "TIMESTAMP", nil
	case migration.ColDate:
		return "DATE", nil
	case migration.ColFloat:
		return "DOUBLE PRECISION", nil
	case migration.ColDecimal:
		precision, scale := col.Length, col.Scale
		if precision == 0 {
			precision = 10
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", precision, scale), nil
	case migration.ColJSON:
		return "JSONB", nil
	case migration.ColBinary:
		return "BYTEA", nil
	case migration.ColUUID:
		return "UUID", nil
	default:
		return "", fmt.Errorf("migration/compile/postgres: unknown column type %q", col.Type)
	}
}
