package query

import (
	"context"
	"fmt"
)

// Builder is the fluent accumulator described in spec §4.2: every mutator
// returns the same *Builder so calls chain, and terminal operations execute
// through the attached Executor/Compiler pair.
type Builder struct {
	ast      *AST
	compiler Compiler
	exec     Executor

	// activateTimestamps records the last ActivateTimestamps call; it is
	// carried by Clone but not read by any terminal operation.
	activateTimestamps *bool
}

// New starts a builder against the given table, with no compiler/executor
// attached yet. Use WithCompiler/WithExecutor (or connection.Resolver.Table)
// to attach the pair needed for terminal operations.
func New(table string) *Builder {
	return &Builder{ast: &AST{Kind: SelectStmt, Table: table}}
}

// NewSub starts a builder meant to be embedded as a Subquery/nested predicate;
// it inherits the parent's compiler/executor so terminal operations on it
// (rare, but legal for e.g. debugging with ToSQL) still work.
func (b *Builder) NewSub(table string) *Builder {
	return &Builder{ast: &AST{Kind: SelectStmt, Table: table}, compiler: b.compiler, exec: b.exec}
}

// WithCompiler attaches the dialect compiler used by terminal operations.
func (b *Builder) WithCompiler(c Compiler) *Builder {
	b.compiler = c
	return b
}

// WithExecutor attaches the connection used by terminal operations.
func (b *Builder) WithExecutor(e Executor) *Builder {
	b.exec = e
	return b
}

// Connection tags the compiled query with a named connection (spec §3).
func (b *Builder) Connection(name string) *Builder {
	b.ast.ConnectionName = name
	return b
}

// As sets an alias for the FROM table.
func (b *Builder) As(alias string) *Builder {
	b.ast.TableAlias = alias
	return b
}

// Distinct sets the DISTINCT flag.
func (b *Builder) Distinct() *Builder {
	b.ast.Distinct = true
	return b
}

// Select appends to the projected column list; calling it multiple times
// accumulates columns, matching the teacher's accumulate-then-compile style.
func (b *Builder) Select(cols ...string) *Builder {
	for _, c := range cols {
		col := parseSelectString(c)
		b.ast.Columns = append(b.ast.Columns, col)
	}
	return b
}

// SelectRaw appends a raw SQL projection.
func (b *Builder) SelectRaw(sqlStr string, bindings ...any) *Builder {
	b.ast.Columns = append(b.ast.Columns, SelectColumn{Raw: &Raw{SQL: sqlStr, Bindings: bindings}})
	return b
}

// AddSelect appends a correlated subquery column (spec §4.2 add_select).
func (b *Builder) AddSelect(alias string, sub *Builder) *Builder {
	b.ast.Columns = append(b.ast.Columns, SelectColumn{Subquery: &Subquery{Builder: sub}, Alias: alias})
	return b
}

// parseSelectString splits "col as alias" on a single case-insensitive " as ",
// per spec §4.1's select-alias parsing rule.
func parseSelectString(s string) SelectColumn {
	if idx := findAsSplit(s); idx >= 0 {
		col := trimSpace(s[:idx])
		alias := trimSpace(s[idx+4:])
		return SelectColumn{Column: &Column{Name: col}, Alias: alias}
	}
	return SelectColumn{Column: &Column{Name: trimSpace(s)}}
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

// findAsSplit returns the index of the first case-insensitive " as " in s, or -1.
func findAsSplit(s string) int {
	lower := toLower(s)
	target := " as "
	for i := 0; i+len(target) <= len(lower); i++ {
		if lower[i:i+len(target)] == target {
			return i
		}
	}
	return -1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Aggregate sets the terminal aggregate projection; per spec it wins over any
// explicit column list when both are present.
func (b *Builder) aggregate(fn AggregateFunc, col string) *Builder {
	b.ast.Aggregate = &Aggregate{Fn: fn, Column: Column{Name: col}}
	return b
}

// Join adds an INNER JOIN; see JoinBuilder.On to finish it.
func (b *Builder) Join(table string) *JoinBuilder { return b.newJoin(InnerJoin, table) }

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table string) *JoinBuilder { return b.newJoin(LeftJoin, table) }

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(table string) *JoinBuilder { return b.newJoin(RightJoin, table) }

func (b *Builder) newJoin(kind JoinKind, table string) *JoinBuilder {
	return &JoinBuilder{parent: b, join: Join{Kind: kind, Table: table}}
}

// JoinBuilder accumulates ON conditions for one Join before it is appended.
type JoinBuilder struct {
	parent *Builder
	join   Join
}

// As aliases the joined table.
func (jb *JoinBuilder) As(alias string) *JoinBuilder {
	jb.join.Alias = alias
	return jb
}

// On adds an ON predicate; the first call has no boolean connector.
func (jb *JoinBuilder) On(leftTable, leftCol, op, rightTable, rightCol string) *JoinBuilder {
	boolean := And
	if len(jb.join.On) == 0 {
		boolean = ""
	}
	jb.join.On = append(jb.join.On, OnClause{
		Boolean: boolean,
		Left:    Column{Table: leftTable, Name: leftCol},
		Op:      op,
		Right:   Column{Table: rightTable, Name: rightCol},
	})
	return jb
}

// OrOn adds an OR-connected ON predicate.
func (jb *JoinBuilder) OrOn(leftTable, leftCol, op, rightTable, rightCol string) *JoinBuilder {
	jb.join.On = append(jb.join.On, OnClause{
		Boolean: Or,
		Left:    Column{Table: leftTable, Name: leftCol},
		Op:      op,
		Right:   Column{Table: rightTable, Name: rightCol},
	})
	return jb
}

// Where adds an extra WHERE-style predicate to the join (ANDed onto the ON
// clause at compile time, per spec §4.1).
func (jb *JoinBuilder) Where(column, op string, value any) *JoinBuilder {
	jb.join.Where = append(jb.join.Where, newBasicWhere(jb.join.Where, column, op, value, false))
	return jb
}

// Done appends the join, with the ON predicates added so far, to the parent
// builder and returns the parent.
func (jb *JoinBuilder) Done() *Builder {
	jb.parent.ast.Joins = append(jb.parent.ast.Joins, jb.join)
	return jb.parent
}

// Finish is an alias users reach for after the final On()/OrOn() call.
func (jb *JoinBuilder) Finish() *Builder { return jb.Done() }

// GroupBy adds GROUP BY columns.
func (b *Builder) GroupBy(cols ...string) *Builder {
	for _, c := range cols {
		b.ast.GroupBy = append(b.ast.GroupBy, GroupClause{Column: Column{Name: c}})
	}
	return b
}

// GroupByRaw adds a raw GROUP BY expression.
func (b *Builder) GroupByRaw(sqlStr string, bindings ...any) *Builder {
	b.ast.GroupBy = append(b.ast.GroupBy, GroupClause{Raw: &Raw{SQL: sqlStr, Bindings: bindings}})
	return b
}

// OrderBy adds an ORDER BY column.
func (b *Builder) OrderBy(col string, dir OrderDirection) *Builder {
	b.ast.OrderBy = append(b.ast.OrderBy, OrderClause{Column: Column{Name: col}, Direction: dir})
	return b
}

// OrderByRaw adds a raw ORDER BY expression.
func (b *Builder) OrderByRaw(sqlStr string, bindings ...any) *Builder {
	b.ast.OrderBy = append(b.ast.OrderBy, OrderClause{Raw: &Raw{SQL: sqlStr, Bindings: bindings}})
	return b
}

// Limit sets the LIMIT clause.
func (b *Builder) Limit(n int) *Builder {
	b.ast.Limit = &n
	return b
}

// Offset sets the OFFSET clause.
func (b *Builder) Offset(n int) *Builder {
	b.ast.Offset = &n
	return b
}

// LockForUpdate appends a FOR UPDATE lock (dialect rewrites as needed).
func (b *Builder) LockForUpdate() *Builder {
	b.ast.Lock = LockUpdate
	return b
}

// SharedLock appends a FOR SHARE / LOCK IN SHARE MODE lock.
func (b *Builder) SharedLock() *Builder {
	b.ast.Lock = LockShared
	return b
}

// When invokes fn(b) only if cond is true, enabling fluent conditionals.
func (b *Builder) When(cond bool, fn func(*Builder) *Builder) *Builder {
	if cond {
		return fn(b)
	}
	return b
}

// ActivateTimestamps records a timestamp override on the builder. No
// terminal operation of Builder reads it, so it does not change the SQL a
// query emits; model saves follow orm.Base.ActivateTimestamps instead.
func (b *Builder) ActivateTimestamps(on bool) *Builder {
	b.activateTimestamps = &on
	return b
}

// Clone returns a builder with a deep-enough copy of the AST so that
// mutating the clone never affects the source (spec §3 node-sharing invariant).
func (b *Builder) Clone() *Builder {
	astCopy := *b.ast
	astCopy.Columns = append([]SelectColumn(nil), b.ast.Columns...)
	astCopy.Joins = append([]Join(nil), b.ast.Joins...)
	astCopy.Where = append([]WhereClause(nil), b.ast.Where...)
	astCopy.GroupBy = append([]GroupClause(nil), b.ast.GroupBy...)
	astCopy.Having = append([]WhereClause(nil), b.ast.Having...)
	astCopy.OrderBy = append([]OrderClause(nil), b.ast.OrderBy...)
	return &Builder{ast: &astCopy, compiler: b.compiler, exec: b.exec, activateTimestamps: b.activateTimestamps}
}

// Build returns the accumulated AST for inspection/testing.
func (b *Builder) Build() *AST { return b.ast }

// ToSQL renders the query with bindings interpolated as quoted literals, for
// debugging only (spec §4.1 to_sql).
func (b *Builder) ToSQL() (string, error) {
	if b.compiler == nil {
		return "", fmt.Errorf("query: no compiler attached")
	}
	return b.compiler.ToSQL(b.ast)
}

// ToQmark compiles the query to dialect SQL with `?`-shaped bindings and, per
// spec §4.1, resets the builder's accumulated state as a documented side effect.
func (b *Builder) ToQmark() (string, []any, error) {
	if b.compiler == nil {
		return "", nil, fmt.Errorf("query: no compiler attached")
	}
	sqlStr, bindings, err := b.compiler.Compile(b.ast)
	if err != nil {
		return "", nil, err
	}
	b.ast = &AST{Kind: b.ast.Kind, Table: b.ast.Table}
	return sqlStr, bindings, nil
}

// compileKeepState is the internal variant used by terminal operations: it
// compiles the AST as-is without resetting builder state (ToQmark's reset is
// a documented *caller-facing* side effect, not something terminal ops need).
func (b *Builder) compileKeepState(ctx context.Context) (string, []any, error) {
	_ = ctx
	if b.compiler == nil {
		return "", nil, fmt.Errorf("query: no compiler attached")
	}
	return b.compiler.Compile(b.ast)
}
