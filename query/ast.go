// Package query implements the dialect-agnostic query builder: an AST of
// select/insert/update/delete nodes, accumulated fluently by Builder and
// compiled to SQL by a github.com/ormforge/ormforge/query/grammar.Dialect.
package query

// Kind identifies the statement an AST compiles to.
type Kind string

const (
	SelectStmt Kind = "select"
	InsertStmt Kind = "insert"
	UpdateStmt Kind = "update"
	DeleteStmt Kind = "delete"
	TruncateStmt Kind = "truncate"
)

// LockMode controls the trailing row-locking clause on a SELECT.
type LockMode string

const (
	LockNone   LockMode = ""
	LockShared LockMode = "shared"
	LockUpdate LockMode = "update"
)

// Boolean is the connector joining a clause to the ones before it.
type Boolean string

const (
	And Boolean = "and"
	Or  Boolean = "or"
)

// Expr is any node that can appear where a value or predicate is expected.
// Implementations are immutable value objects.
type Expr interface{ isExpr() }

// Column references a (possibly table-qualified) column, optionally aliased.
type Column struct {
	Table string
	Name  string
	Alias string
}

func (Column) isExpr() {}

// Raw embeds SQL verbatim, with its own positional bindings.
type Raw struct {
	SQL      string
	Bindings []any
}

func (Raw) isExpr() {}

// Subquery wraps a nested Builder; the grammar parenthesizes its compilation.
type Subquery struct {
	Builder *Builder
	Alias   string
}

func (Subquery) isExpr() {}

// Literal is a bound scalar value; the grammar appends it to the bindings
// vector and writes a placeholder.
type Literal struct {
	Value any
}

func (Literal) isExpr() {}

// AggregateFunc enumerates the supported aggregate functions.
type AggregateFunc string

const (
	AggSum   AggregateFunc = "SUM"
	AggAvg   AggregateFunc = "AVG"
	AggCount AggregateFunc = "COUNT"
	AggMax   AggregateFunc = "MAX"
	AggMin   AggregateFunc = "MIN"
)

// Aggregate represents a single aggregate projection (COUNT(*), SUM(amount), ...).
// When present on a Builder it wins over any explicit select list (spec tie-break).
type Aggregate struct {
	Fn     AggregateFunc
	Column Column
	Alias  string
}

// JoinKind enumerates supported join types.
type JoinKind string

const (
	InnerJoin JoinKind = "inner"
	LeftJoin  JoinKind = "left"
	RightJoin JoinKind = "right"
)

// OnClause is a single join predicate: left <op> right, connected by Boolean
// to the ON clauses before it.
type OnClause struct {
	Boolean Boolean
	Left    Column
	Op      string
	Right   Column
}

// Join is a single JOIN entry. Additional Wheres become AND-joined predicates
// appended after the ON conditions (spec §4.1 JOIN compilation).
type Join struct {
	Kind  JoinKind
	Table string
	Alias string
	On    []OnClause
	Where []WhereClause
}

// WhereKind tags the shape of a WhereClause.
type WhereKind string

const (
	WhereBasic       WhereKind = "basic"
	WhereColumn      WhereKind = "column"
	WhereIn          WhereKind = "in"
	WhereNull        WhereKind = "null"
	WhereBetween     WhereKind = "between"
	WhereRaw         WhereKind = "raw"
	WhereNested      WhereKind = "nested"
	WhereExists      WhereKind = "exists"
	WhereInSubquery  WhereKind = "in_subquery"
)

// WhereClause is one predicate in a WHERE/HAVING/ON chain. The first clause
// in a chain omits its Boolean connector when compiled (spec §4.1).
type WhereClause struct {
	Kind     WhereKind
	Boolean  Boolean
	Negated  bool
	Column   string
	Op       string
	Value    any
	Values   []any
	Low      any
	High     any
	SQL      string
	Bindings []any
	Nested   []WhereClause
	Subquery *Builder
}

// GroupClause is one GROUP BY entry: either a plain column or a raw expression.
type GroupClause struct {
	Column Column
	Raw    *Raw
}

// OrderDirection is ASC or DESC.
type OrderDirection string

const (
	Asc  OrderDirection = "ASC"
	Desc OrderDirection = "DESC"
)

// OrderClause is one ORDER BY entry.
type OrderClause struct {
	Column    Column
	Raw       *Raw
	Direction OrderDirection
}

// SelectColumn is one projected column or correlated-subquery expression.
type SelectColumn struct {
	Column   *Column
	Raw      *Raw
	Subquery *Subquery
	Alias    string
}

// InsertRow is one row of column->value pairs for INSERT/bulk-INSERT.
type InsertRow map[string]any

// AST is the fully-accumulated representation of one statement. Builder
// mutators modify one of these in place (Clone copies it); Compile never
// mutates it.
type AST struct {
	Kind Kind

	Table      string
	TableAlias string

	Columns []SelectColumn // empty => "*" on SELECT
	Distinct bool

	Joins []Join
	Where []WhereClause

	GroupBy []GroupClause
	Having  []WhereClause

	OrderBy []OrderClause
	Limit   *int
	Offset  *int

	Aggregate *Aggregate
	Lock      LockMode

	// INSERT
	InsertRows []InsertRow

	// UPDATE
	UpdateValues map[string]any

	// TRUNCATE
	DisableForeignKeys bool

	ConnectionName string
}

// ColumnName returns the identifier portion, ignoring table qualification.
func (c Column) ColumnName() string { return c.Name }
