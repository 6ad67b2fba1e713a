// Package compile compiles a migration.Blueprint into dialect DDL
// statements, generalizing the teacher's per-dialect plan generators
// (db/portsql/migrate/{mysql,postgres,sqlite}_plan.go, which only targeted
// portsql's fixed five-column convention) into the spec's generic
// column/index/foreign-key DSL across create/alter/drop modes (spec §4.6).
package compile

import (
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/migration"
)

// Compiler compiles one Blueprint into the ordered list of DDL statements
// spec §4.6 describes: (1) CREATE/ALTER TABLE, (2) column additions/
// modifications, (3) index creation, (4) foreign-key constraints; drops
// compile to a single DROP TABLE [IF EXISTS].
type Compiler interface {
	Compile(bp *migration.Blueprint) ([]string, error)
}

// dialectHooks' quote and columnType are supplied per dialect; the column/index
// assembly logic below is shared since it differs only in identifier
// quoting and native type names.
type dialectHooks struct {
	quote       func(string) string
	columnType  func(migration.Column) (string, error)
	boolDefault func(bool) string
	autoIncrement string // appended after the type for a Primary+BigInt/Int column, e.g. "AUTO_INCREMENT"
	dropIfExistsSupported bool
	alterColumnKeyword string // "MODIFY COLUMN" (MySQL) or "ALTER COLUMN" (Postgres/MSSQL/SQLite)
}

func compileGeneric(bp *migration.Blueprint, h dialectHooks) ([]string, error) {
	switch bp.Mode {
	case migration.ModeDrop:
		return compileDrop(bp, h), nil
	case migration.ModeCreate:
		return compileCreate(bp, h)
	case migration.ModeAlter:
		return compileAlter(bp, h)
	default:
		return nil, fmt.Errorf("migration/compile: unknown blueprint mode %v", bp.Mode)
	}
}

func compileDrop(bp *migration.Blueprint, h dialectHooks) []string {
	if bp.IfExists && h.dropIfExistsSupported {
		return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", h.quote(bp.Table))}
	}
	return []string{fmt.Sprintf("DROP TABLE %s", h.quote(bp.Table))}
}

func compileCreate(bp *migration.Blueprint, h dialectHooks) ([]string, error) {
	var defs []string
	var primaryCols []string
	for _, col := range bp.Columns {
		def, err := columnDef(col, h, true)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		if col.Primary {
			primaryCols = append(primaryCols, h.quote(col.Name))
		}
	}
	for _, idx := range bp.Indexes {
		if idx.Kind == migration.IdxPrimary {
			for _, c := range idx.Columns {
				primaryCols = append(primaryCols, h.quote(c))
			}
		}
	}
	if len(primaryCols) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryCols, ", ")))
	}
	for _, idx := range bp.Indexes {
		if idx.Kind == migration.IdxForeign {
			defs = append(defs, foreignKeyClause(idx, h))
		}
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", h.quote(bp.Table), strings.Join(defs, ",\n  "))}
	stmts = append(stmts, nonForeignIndexStatements(bp, h)...)
	return stmts, nil
}

func compileAlter(bp *migration.Blueprint, h dialectHooks) ([]string, error) {
	var stmts []string
	for _, col := range bp.Columns {
		switch {
		case col.Drop:
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", h.quote(bp.Table), h.quote(col.Name)))
		case col.Change:
			def, err := columnDef(col, h, false)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s %s %s", h.quote(bp.Table), h.alterColumnKeyword, def))
		default:
			def, err := columnDef(col, h, true)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", h.quote(bp.Table), def))
		}
	}
	stmts = append(stmts, nonForeignIndexStatements(bp, h)...)
	for _, idx := range bp.Indexes {
		if idx.Kind != migration.IdxForeign {
			continue
		}
		if idx.Drop {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", h.quote(bp.Table), h.quote(idx.Name)))
			continue
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD %s", h.quote(bp.Table), foreignKeyClause(idx, h)))
	}
	return stmts, nil
}

func nonForeignIndexStatements(bp *migration.Blueprint, h dialectHooks) []string {
	var stmts []string
	for _, idx := range bp.Indexes {
		if idx.Kind == migration.IdxForeign || idx.Kind == migration.IdxPrimary {
			continue
		}
		if idx.Drop {
			stmts = append(stmts, fmt.Sprintf("DROP INDEX %s ON %s", h.quote(idx.Name), h.quote(bp.Table)))
			continue
		}
		quotedCols := quoteAll(idx.Columns, h.quote)
		switch idx.Kind {
		case migration.IdxUnique:
			stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", h.quote(idx.Name), h.quote(bp.Table), strings.Join(quotedCols, ", ")))
		case migration.IdxFulltext:
			stmts = append(stmts, fmt.Sprintf("CREATE FULLTEXT INDEX %s ON %s (%s)", h.quote(idx.Name), h.quote(bp.Table), strings.Join(quotedCols, ", ")))
		default: // IdxIndex
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s)", h.quote(idx.Name), h.quote(bp.Table), strings.Join(quotedCols, ", ")))
		}
	}
	return stmts
}

func foreignKeyClause(idx migration.Index, h dialectHooks) string {
	name := idx.Name
	if name == "" {
		name = fmt.Sprintf("fk_%s", strings.Join(idx.Columns, "_"))
	}
	clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		h.quote(name), strings.Join(quoteAll(idx.Columns, h.quote), ", "), h.quote(idx.On), h.quote(idx.References))
	if idx.OnDelete != "" {
		clause += " ON DELETE " + idx.OnDelete
	}
	if idx.OnUpdate != "" {
		clause += " ON UPDATE " + idx.OnUpdate
	}
	return clause
}

func quoteAll(names []string, quote func(string) string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return out
}

func columnDef(col migration.Column, h dialectHooks, allowAutoIncrement bool) (string, error) {
	typeName, err := h.columnType(col)
	if err != nil {
		return "", err
	}
	parts := []string{h.quote(col.Name), typeName}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if allowAutoIncrement && col.Primary && h.autoIncrement != "" &&
		(col.Type == migration.ColBigInt || col.Type == migration.ColInt) {
		parts = append(parts, h.autoIncrement)
	}
	if col.UseCurrent {
		parts = append(parts, "DEFAULT CURRENT_TIMESTAMP")
	} else if col.HasDefault {
		parts = append(parts, "DEFAULT "+formatDefault(col, h))
	}
	return strings.Join(parts, " "), nil
}

func formatDefault(col migration.Column, h dialectHooks) string {
	switch v := col.Default.(type) {
	case bool:
		return h.boolDefault(v)
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}
