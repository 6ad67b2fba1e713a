package compile

import (
	"fmt"

	"github.com/ormforge/ormforge/migration"
)

// MSSQL compiles a Blueprint into T-SQL DDL: square-bracket identifiers,
// IDENTITY(1,1) primary keys, BIT booleans, and no DROP TABLE IF EXISTS
// (MSSQL's equivalent is an IF OBJECT_ID(...) guard, emitted as a batch
// here since the grammar package's MSSQL dialect takes the same approach
// for paging).
type MSSQL struct{}

func (m MSSQL) Compile(bp *migration.Blueprint) ([]string, error) {
	if bp.Mode == migration.ModeDrop && bp.IfExists {
		return []string{fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", bp.Table, mssqlQuote(bp.Table),
		)}, nil
	}
	return compileGeneric(bp, dialectHooks{
		quote:                 mssqlQuote,
		columnType:            mssqlColumnType,
		boolDefault:           func(b bool) string { return map[bool]string{true: "1", false: "0"}[b] },
		autoIncrement:         "IDENTITY(1,1)",
		dropIfExistsSupported: false,
		alterColumnKeyword:    "ALTER COLUMN",
	})
}

func mssqlQuote(name string) string { return "[" + name + "]" }

func mssqlColumnType(col migration.Column) (string, error) {
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
		return fmt.Sprintf("NVARCHAR(%d)", length), nil
	case migration.ColText:
		return "NVARCHAR(MAX)", nil
	case migration.ColBool:
		return "BIT", nil
	case migration.ColDateTime:
		return "DATETIME2", nil
	case migration.ColDate:
		return "DATE", nil
	case migration.ColFloat:
		return "FLOAT", nil
	case migration.ColDecimal:
		precision, scale := col.Length, col.Scale
		if precision == 0 {
			precision = 10
		}
		return fmt.Sprintf("DECIMAL(%d, %d)", precision, scale), nil
	case migration.ColJSON:
		return "NVARCHAR(MAX)", nil
	case migration.ColBinary:
		return "VARBINARY(MAX)", nil
	case migration.ColUUID:
		return "UNIQUEIDENTIFIER", nil
	default:
		return "", fmt.Errorf("migration/compile/mssql: unknown column type %q", col.Type)
	}
}
