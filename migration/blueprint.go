// Package migration implements the schema builder and blueprint compiler of
// spec §4.6: a DSL for declaring column/index/foreign-key changes across
// create/alter/drop modes, compiled into dialect DDL by the migration/compile
// sub-package. It generalizes the teacher's db/portsql/ddl (a fixed
// five-column table convention) into the spec's generic per-column DSL.
package migration

// Mode is the kind of statement a Blueprint compiles to.
type Mode int

const (
	ModeCreate Mode = iota
	ModeAlter
	ModeDrop
)

// ColumnType is the portable column type a Blueprint column carries; each
// dialect compiler maps it to its own native type name.
type ColumnType string

const (
	ColBigInt   ColumnType = "bigint"
	ColInt      ColumnType = "int"
	ColString   ColumnType = "string"
	ColText     ColumnType = "text"
	ColBool     ColumnType = "bool"
	ColDateTime ColumnType = "datetime"
	ColDate     ColumnType = "date"
	ColFloat    ColumnType = "float"
	ColDecimal  ColumnType = "decimal"
	ColJSON     ColumnType = "json"
	ColBinary   ColumnType = "binary"
	ColUUID     ColumnType = "uuid"
)

// Column records one column definition plus its modifiers (spec §4.6).
type Column struct {
	Name      string
	Type      ColumnType
	Length    int // for string/decimal precision
	Scale     int // for decimal
	Nullable  bool
	Unique    bool
	Default   any
	HasDefault bool
	UseCurrent bool
	After     string
	Unsigned  bool
	Primary   bool
	Change    bool // true when this column is an ALTER COLUMN / MODIFY COLUMN, not an add
	Drop      bool // true when this column should be dropped (alter mode)
}

// IndexKind is the kind of index/constraint an Index record declares.
type IndexKind string

const (
	IdxPrimary  IndexKind = "primary"
	IdxUnique   IndexKind = "unique"
	IdxIndex    IndexKind = "index"
	IdxFulltext IndexKind = "fulltext"
	IdxForeign  IndexKind = "foreign"
)

// Index records an index or foreign-key constraint (spec §4.6).
type Index struct {
	Kind       IndexKind
	Columns    []string
	Name       string
	On         string // referenced table, for Kind == IdxForeign
	References string // referenced column, for Kind == IdxForeign
	OnUpdate   string // CASCADE/RESTRICT/SET NULL/NO ACTION
	OnDelete   string
	Drop       bool // true when this index/constraint should be dropped (alter mode)
}

// Blueprint accumulates one table's column and constraint changes (spec
// §4.6). A single migration may build several Blueprints (e.g. CreateTable
// then later AlterTable calls), each compiled independently.
type Blueprint struct {
	Table   string
	Mode    Mode
	IfExists bool // for ModeDrop: DROP TABLE IF EXISTS
	Columns []Column
	Indexes []Index
}

func newBlueprint(table string, mode Mode) *Blueprint {
	return &Blueprint{Table: table, Mode: mode}
}

func (b *Blueprint) addColumn(c Column) *ColumnBuilder {
	b.Columns = append(b.Columns, c)
	return &ColumnBuilder{bp: b, idx: len(b.Columns) - 1}
}

// ColumnBuilder supports the fluent modifier chain spec §4.6 describes
// (`.nullable()`, `.unique()`, `.default(v)`, ...); every modifier returns
// the same builder.
type ColumnBuilder struct {
	bp  *Blueprint
	idx int
}

func (cb *ColumnBuilder) col() *Column { return &cb.bp.Columns[cb.idx] }

func (cb *ColumnBuilder) Nullable() *ColumnBuilder { cb.col().Nullable = true; return cb }
func (cb *ColumnBuilder) Unique() *ColumnBuilder   { cb.col().Unique = true; return cb }
func (cb *ColumnBuilder) Default(v any) *ColumnBuilder {
	c := cb.col()
	c.Default = v
	c.HasDefault = true
	return cb
}
func (cb *ColumnBuilder) UseCurrent() *ColumnBuilder { cb.col().UseCurrent = true; return cb }
func (cb *ColumnBuilder) After(column string) *ColumnBuilder { cb.col().After = column; return cb }
func (cb *ColumnBuilder) Unsigned() *ColumnBuilder { cb.col().Unsigned = true; return cb }
func (cb *ColumnBuilder) Primary() *ColumnBuilder  { cb.col().Primary = true; return cb }

// Change marks this column definition as an ALTER COLUMN / MODIFY COLUMN
// rather than an addition (spec §4.6 item 2).
func (cb *ColumnBuilder) Change() *ColumnBuilder { cb.col().Change = true; return cb }

// Column type constructors, mirroring the teacher's per-type builder
// methods (db/portsql/ddl/table_builder.go) generalized to the spec's
// generic column DSL.

func (b *Blueprint) ID(name string) *ColumnBuilder {
	if name == "" {
		name = "id"
	}
	return b.addColumn(Column{Name: name, Type: ColBigInt, Primary: true, Unique: true})
}

func (b *Blueprint) BigInt(name string) *ColumnBuilder  { return b.addColumn(Column{Name: name, Type: ColBigInt}) }
func (b *Blueprint) Int(name string) *ColumnBuilder     { return b.addColumn(Column{Name: name, Type: ColInt}) }
func (b *Blueprint) String(name string, length int) *ColumnBuilder {
	if length == 0 {
		length = 255
	}
	return b.addColumn(Column{Name: name, Type: ColString, Length: length})
}
func (b *Blueprint) Text(name string) *ColumnBuilder     { return b.addColumn(Column{Name: name, Type: ColText}) }
func (b *Blueprint) Bool(name string) *ColumnBuilder     { return b.addColumn(Column{Name: name, Type: ColBool}) }
func (b *Blueprint) DateTime(name string) *ColumnBuilder { return b.addColumn(Column{Name: name, Type: ColDateTime}) }
func (b *Blueprint) Date(name string) *ColumnBuilder     { return b.addColumn(Column{Name: name, Type: ColDate}) }
func (b *Blueprint) Float(name string) *ColumnBuilder    { return b.addColumn(Column{Name: name, Type: ColFloat}) }
func (b *Blueprint) Decimal(name string, precision, scale int) *ColumnBuilder {
	return b.addColumn(Column{Name: name, Type: ColDecimal, Length: precision, Scale: scale})
}
func (b *Blueprint) JSON(name string) *ColumnBuilder   { return b.addColumn(Column{Name: name, Type: ColJSON}) }
func (b *Blueprint) Binary(name string) *ColumnBuilder { return b.addColumn(Column{Name: name, Type: ColBinary}) }
func (b *Blueprint) UUID(name string) *ColumnBuilder   { return b.addColumn(Column{Name: name, Type: ColUUID}) }

// Timestamps adds created_at/updated_at nullable datetime columns, the
// conventional pair spec §4.4's __timestamps__ flag writes to.
func (b *Blueprint) Timestamps() {
	b.DateTime("created_at").Nullable()
	b.DateTime("updated_at").Nullable()
}

// SoftDeletes adds the nullable deleted_at column the SoftDeletes global
// scope filters on (spec §4.4).
func (b *Blueprint) SoftDeletes() {
	b.DateTime("deleted_at").Nullable()
}

// DropColumn marks column for removal (alter mode only).
func (b *Blueprint) DropColumn(name string) {
	b.Columns = append(b.Columns, Column{Name: name, Drop: true})
}

func (b *Blueprint) addIndex(i Index) { b.Indexes = append(b.Indexes, i) }

// Primary declares a (possibly composite) primary key index.
func (b *Blueprint) Primary(columns ...string) { b.addIndex(Index{Kind: IdxPrimary, Columns: columns}) }

// UniqueIndex declares a unique index.
func (b *Blueprint) UniqueIndex(name string, columns ...string) {
	b.addIndex(Index{Kind: IdxUnique, Name: name, Columns: columns})
}

// IndexCols declares a non-unique index.
func (b *Blueprint) IndexCols(name string, columns ...string) {
	b.addIndex(Index{Kind: IdxIndex, Name: name, Columns: columns})
}

// Fulltext declares a full-text index. Every dialect compiler in
// migration/compile emits it as CREATE FULLTEXT INDEX; none falls back to a
// regular index.
func (b *Blueprint) Fulltext(name string, columns ...string) {
	b.addIndex(Index{Kind: IdxFulltext, Name: name, Columns: columns})
}

// Foreign declares a foreign-key constraint referencing on(references).
func (b *Blueprint) Foreign(column, on, references string, onUpdate, onDelete string) {
	b.addIndex(Index{
		Kind: IdxForeign, Columns: []string{column}, On: on, References: references,
		OnUpdate: onUpdate, OnDelete: onDelete,
	})
}

// DropIndex marks a named index for removal (alter mode only).
func (b *Blueprint) DropIndex(kind IndexKind, name string) {
	b.addIndex(Index{Kind: kind, Name: name, Drop: true})
}
