package grammar

import (
	"fmt"
	"strings"

	"github.com/ormforge/ormforge/query"
)

// Compiler compiles one github.com/ormforge/ormforge/query.AST at a time for
// a fixed Dialect. It implements query.Compiler.
type Compiler struct {
	Dialect Dialect
}

// New returns a Compiler bound to the given dialect.
func New(d Dialect) *Compiler { return &Compiler{Dialect: d} }

// state accumulates the positional bindings vector while walking the AST, in
// the order select -> from -> join -> where -> group -> having -> order ->
// limit (spec §3 binding-bucket invariant).
type state struct {
	bindings []any
	// table is the unqualified default table for the statement currently
	// being compiled; bare WHERE/HAVING column references are qualified
	// with it unless the column string already contains a ".".
	table string
}

func (s *state) bind(v any) int {
	s.bindings = append(s.bindings, v)
	return len(s.bindings)
}

// Compile renders ast for c.Dialect and returns (sql, bindings, err).
func (c *Compiler) Compile(ast *query.AST) (string, []any, error) {
	st := &state{}
	var b strings.Builder
	var err error
	switch ast.Kind {
	case query.SelectStmt:
		err = c.compileSelect(&b, st, ast)
	case query.InsertStmt:
		err = c.compileInsert(&b, st, ast)
	case query.UpdateStmt:
		err = c.compileUpdate(&b, st, ast)
	case query.DeleteStmt:
		err = c.compileDelete(&b, st, ast)
	case query.TruncateStmt:
		stmts, terr := c.CompileTruncate(ast.Table, ast.DisableForeignKeys)
		if terr != nil {
			return "", nil, terr
		}
		return strings.Join(stmts, "; "), nil, nil
	default:
		err = fmt.Errorf("grammar: unknown statement kind %q", ast.Kind)
	}
	if err != nil {
		return "", nil, err
	}
	return b.String(), st.bindings, nil
}

// CompileTruncate returns the list of DDL/DML statements needed to empty a
// table, dialect-specific FK handling included (spec §4.1 compile_truncate).
func (c *Compiler) CompileTruncate(table string, disableFK bool) ([]string, error) {
	switch d := c.Dialect.(type) {
	case MySQL:
		return d.truncateStatements(table, disableFK), nil
	case Postgres:
		return d.truncateStatements(table, disableFK), nil
	case SQLite:
		return d.truncateStatements(table, disableFK), nil
	case MSSQL:
		return d.truncateStatements(table, disableFK), nil
	default:
		return nil, fmt.Errorf("grammar: unsupported dialect %T", c.Dialect)
	}
}

// ToSQL renders ast with every binding interpolated as a quoted literal, for
// debugging only (spec §4.1 to_sql; never used for execution).
func (c *Compiler) ToSQL(ast *query.AST) (string, error) {
	sqlStr, bindings, err := c.Compile(ast)
	if err != nil {
		return "", err
	}
	return interpolate(c.Dialect, sqlStr, bindings)
}

func interpolate(d Dialect, sqlStr string, bindings []any) (string, error) {
	var out strings.Builder
	bi := 0
	i := 0
	placeholderIsPostgresStyle := d.Name() == "postgres"
	for i < len(sqlStr) {
		ch := sqlStr[i]
		if !placeholderIsPostgresStyle && ch == '?' {
			if bi >= len(bindings) {
				return "", fmt.Errorf("grammar: more placeholders than bindings")
			}
			out.WriteString(literalString(bindings[bi]))
			bi++
			i++
			continue
		}
		if placeholderIsPostgresStyle && ch == '$' {
			j := i + 1
			for j < len(sqlStr) && sqlStr[j] >= '0' && sqlStr[j] <= '9' {
				j++
			}
			if j > i+1 {
				if bi >= len(bindings) {
					return "", fmt.Errorf("grammar: more placeholders than bindings")
				}
				out.WriteString(literalString(bindings[bi]))
				bi++
				i = j
				continue
			}
		}
		out.WriteByte(ch)
		i++
	}
	return out.String(), nil
}

func literalString(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// =============================================================================
// SELECT
// =============================================================================

func (c *Compiler) compileSelect(b *strings.Builder, st *state, ast *query.AST) error {
	prevTable := st.table
	st.table = ast.Table
	defer func() { st.table = prevTable }()
	b.WriteString("SELECT ")
	if ast.Distinct {
		b.WriteString("DISTINCT ")
	}

	// Tie-break: an aggregate wins over any explicit column list (spec §4.1).
	if ast.Aggregate != nil {
		if err := c.writeAggregate(b, ast.Aggregate); err != nil {
			return err
		}
	} else if len(ast.Columns) == 0 {
		b.WriteString("*")
	} else {
		for i, col := range ast.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := c.writeSelectColumn(b, st, col); err != nil {
				return err
			}
		}
	}

	b.WriteString(" FROM ")
	b.WriteString(c.Dialect.QuoteIdentifier(ast.Table))
	if ast.TableAlias != "" {
		b.WriteString(" AS ")
		b.WriteString(c.Dialect.QuoteIdentifier(ast.TableAlias))
	}

	for _, j := range ast.Joins {
		if err := c.writeJoin(b, st, j); err != nil {
			return err
		}
	}

	if len(ast.Where) > 0 {
		b.WriteString(" WHERE ")
		if err := c.writeWhereChain(b, st, ast.Where); err != nil {
			return err
		}
	}

	if len(ast.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range ast.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if g.Raw != nil {
				c.writeRaw(b, st, *g.Raw)
			} else {
				c.writeColumn(b, g.Column)
			}
		}
	}

	if len(ast.Having) > 0 {
		b.WriteString(" HAVING ")
		if err := c.writeWhereChain(b, st, ast.Having); err != nil {
			return err
		}
	}

	hasOrderBy := len(ast.OrderBy) > 0
	if hasOrderBy {
		b.WriteString(" ORDER BY ")
		for i, o := range ast.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if o.Raw != nil {
				c.writeRaw(b, st, *o.Raw)
			} else {
				c.writeColumn(b, o.Column)
			}
			if o.Direction == query.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	if err := c.writeLimitOffset(b, ast, hasOrderBy); err != nil {
		return err
	}

	if mssql, ok := c.Dialect.(MSSQL); ok {
		b.WriteString(mssql.TableHint(toGrammarLock(ast.Lock)))
	} else {
		b.WriteString(c.Dialect.LockClause(toGrammarLock(ast.Lock)))
	}

	return nil
}

func toGrammarLock(m query.LockMode) LockMode {
	switch m {
	case query.LockUpdate:
		return LockUpdate
	case query.LockShared:
		return LockShared
	default:
		return LockNone
	}
}

// writeLimitOffset renders LIMIT/OFFSET, or MSSQL's OFFSET ... FETCH NEXT ...
// ROWS ONLY, injecting `ORDER BY (SELECT NULL)` first when MSSQL requires an
// ORDER BY and none was supplied (spec §4.1).
func (c *Compiler) writeLimitOffset(b *strings.Builder, ast *query.AST, hasOrderBy bool) error {
	if ast.Limit == nil && ast.Offset == nil {
		return nil
	}
	if c.Dialect.RequiresOrderByForPaging() {
		if !hasOrderBy {
			b.WriteString(" ORDER BY (SELECT NULL)")
		}
		offset := 0
		if ast.Offset != nil {
			offset = *ast.Offset
		}
		fmt.Fprintf(b, " OFFSET %d ROWS", offset)
		if ast.Limit != nil {
			fmt.Fprintf(b, " FETCH NEXT %d ROWS ONLY", *ast.Limit)
		}
		return nil
	}
	if ast.Limit != nil {
		fmt.Fprintf(b, " LIMIT %d", *ast.Limit)
	}
	if ast.Offset != nil {
		fmt.Fprintf(b, " OFFSET %d", *ast.Offset)
	}
	return nil
}

func (c *Compiler) writeAggregate(b *strings.Builder, agg *query.Aggregate) error {
	fmt.Fprintf(b, "%s(", agg.Fn)
	if agg.Column.Name == "" || agg.Column.Name == "*" {
		b.WriteString("*")
	} else {
		c.writeColumn(b, agg.Column)
	}
	b.WriteString(")")
	if agg.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(c.Dialect.QuoteIdentifier(agg.Alias))
	}
	return nil
}

func (c *Compiler) writeSelectColumn(b *strings.Builder, st *state, col query.SelectColumn) error {
	switch {
	case col.Raw != nil:
		c.writeRaw(b, st, *col.Raw)
	case col.Subquery != nil:
		b.WriteString("(")
		if err := c.compileSelect(b, st, col.Subquery.Builder.Build()); err != nil {
			return err
		}
		b.WriteString(")")
	case col.Column != nil:
		c.writeColumn(b, *col.Column)
	default:
		return fmt.Errorf("grammar: empty select column")
	}
	if col.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(c.Dialect.QuoteIdentifier(col.Alias))
	}
	return nil
}

func (c *Compiler) writeColumn(b *strings.Builder, col query.Column) {
	if col.Table != "" {
		b.WriteString(c.Dialect.QuoteIdentifier(col.Table))
		b.WriteString(".")
	}
	b.WriteString(c.Dialect.QuoteIdentifier(col.Name))
}

func (c *Compiler) writeRaw(b *strings.Builder, st *state, raw query.Raw) {
	b.WriteString(rewritePlaceholders(c.Dialect, raw.SQL, len(st.bindings)))
	st.bindings = append(st.bindings, raw.Bindings...)
}

// rewritePlaceholders renumbers `?` placeholders embedded in raw SQL to the
// dialect's own placeholder style, continuing the running binding count.
func rewritePlaceholders(d Dialect, sqlStr string, offset int) string {
	if d.Name() != "postgres" {
		return sqlStr
	}
	var out strings.Builder
	n := offset
	for i := 0; i < len(sqlStr); i++ {
		if sqlStr[i] == '?' {
			n++
			out.WriteString(d.Placeholder(n))
			continue
		}
		out.WriteByte(sqlStr[i])
	}
	return out.String()
}

func (c *Compiler) writeJoin(b *strings.Builder, st *state, j query.Join) error {
	b.WriteString(" ")
	switch j.Kind {
	case query.LeftJoin:
		b.WriteString("LEFT")
	case query.RightJoin:
		b.WriteString("RIGHT")
	default:
		b.WriteString("INNER")
	}
	b.WriteString(" JOIN ")
	b.WriteString(c.Dialect.QuoteIdentifier(j.Table))
	if j.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(c.Dialect.QuoteIdentifier(j.Alias))
	}
	b.WriteString(" ON ")
	for i, on := range j.On {
		if i > 0 {
			b.WriteString(" ")
			b.WriteString(strings.ToUpper(string(on.Boolean)))
			b.WriteString(" ")
		}
		c.writeColumn(b, on.Left)
		fmt.Fprintf(b, " %s ", on.Op)
		c.writeColumn(b, on.Right)
	}
	// Additional WHERE predicates on a join become AND-joined ON predicates
	// (spec §4.1).
	for _, w := range j.Where {
		b.WriteString(" AND ")
		if err := c.writeOneWhere(b, st, w); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// WHERE / HAVING chain
// =============================================================================

func (c *Compiler) writeWhereChain(b *strings.Builder, st *state, clauses []query.WhereClause) error {
	for i, clause := range clauses {
		if i > 0 {
			b.WriteString(" ")
			b.WriteString(strings.ToUpper(string(clause.Boolean)))
			b.WriteString(" ")
		}
		if err := c.writeOneWhere(b, st, clause); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) writeOneWhere(b *strings.Builder, st *state, w query.WhereClause) error {
	switch w.Kind {
	case query.WhereBasic:
		return c.writeBasicWhere(b, st, w)
	case query.WhereColumn:
		c.writeIdentOrRawColumn(b, st, w.Column)
		fmt.Fprintf(b, " %s ", w.Op)
		c.writeIdentOrRawColumn(b, st, fmt.Sprint(w.Value))
		return nil
	case query.WhereIn:
		return c.writeWhereIn(b, st, w)
	case query.WhereInSubquery:
		c.writeIdentOrRawColumn(b, st, w.Column)
		b.WriteString(" IN (")
		if err := c.compileSelect(b, st, w.Subquery.Build()); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	case query.WhereNull:
		c.writeIdentOrRawColumn(b, st, w.Column)
		if w.Negated {
			b.WriteString(" IS NOT NULL")
		} else {
			b.WriteString(" IS NULL")
		}
		return nil
	case query.WhereBetween:
		c.writeIdentOrRawColumn(b, st, w.Column)
		if w.Negated {
			b.WriteString(" NOT BETWEEN ")
		} else {
			b.WriteString(" BETWEEN ")
		}
		c.writeBoundValue(b, st, w.Low)
		b.WriteString(" AND ")
		c.writeBoundValue(b, st, w.High)
		return nil
	case query.WhereRaw:
		c.writeRaw(b, st, query.Raw{SQL: w.SQL, Bindings: w.Bindings})
		return nil
	case query.WhereNested:
		b.WriteString("(")
		if err := c.writeWhereChain(b, st, w.Nested); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	case query.WhereExists:
		if w.Negated {
			b.WriteString("NOT ")
		}
		b.WriteString("EXISTS (")
		if err := c.compileSelect(b, st, w.Subquery.Build()); err != nil {
			return err
		}
		b.WriteString(")")
		return nil
	default:
		return fmt.Errorf("grammar: unknown where kind %q", w.Kind)
	}
}

func (c *Compiler) writeBasicWhere(b *strings.Builder, st *state, w query.WhereClause) error {
	op := strings.ToLower(w.Op)
	switch op {
	case "regexp", "not regexp":
		negated := op == "not regexp"
		if !c.Dialect.SupportsRegexp() {
			return ErrUnsupportedRegexp
		}
		c.writeIdentOrRawColumn(b, st, w.Column)
		fmt.Fprintf(b, " %s ", c.Dialect.RegexpOperator(negated))
		c.writeBoundValue(b, st, w.Value)
		return nil
	default:
		c.writeIdentOrRawColumn(b, st, w.Column)
		fmt.Fprintf(b, " %s ", sqlOperator(w.Op))
		c.writeBoundValue(b, st, w.Value)
		return nil
	}
}

func sqlOperator(op string) string {
	switch strings.ToLower(op) {
	case "like":
		return "LIKE"
	case "not like":
		return "NOT LIKE"
	default:
		return op
	}
}

// writeWhereIn handles the spec's empty-list invariant: an empty IN list
// short-circuits to `0 = 1` (or `1 = 1` for NOT IN, which matches every row)
// instead of emitting invalid `IN ()` SQL (spec §4.1 / §8).
func (c *Compiler) writeWhereIn(b *strings.Builder, st *state, w query.WhereClause) error {
	if len(w.Values) == 0 {
		if w.Negated {
			b.WriteString("1 = 1")
		} else {
			b.WriteString("0 = 1")
		}
		return nil
	}
	c.writeIdentOrRawColumn(b, st, w.Column)
	if w.Negated {
		b.WriteString(" NOT IN (")
	} else {
		b.WriteString(" IN (")
	}
	for i, v := range w.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		c.writeBoundValue(b, st, v)
	}
	b.WriteString(")")
	return nil
}

func (c *Compiler) writeIdentOrRawColumn(b *strings.Builder, st *state, col string) {
	if strings.Contains(col, ".") {
		parts := strings.SplitN(col, ".", 2)
		b.WriteString(c.Dialect.QuoteIdentifier(parts[0]))
		b.WriteString(".")
		b.WriteString(c.Dialect.QuoteIdentifier(parts[1]))
		return
	}
	if st.table != "" {
		b.WriteString(c.Dialect.QuoteIdentifier(st.table))
		b.WriteString(".")
	}
	b.WriteString(c.Dialect.QuoteIdentifier(col))
}

func (c *Compiler) writeBoundValue(b *strings.Builder, st *state, v any) {
	if raw, ok := v.(query.Raw); ok {
		c.writeRaw(b, st, raw)
		return
	}
	idx := st.bind(v)
	b.WriteString(c.Dialect.Placeholder(idx))
}

// =============================================================================
// INSERT / UPDATE / DELETE
// =============================================================================

func (c *Compiler) compileInsert(b *strings.Builder, st *state, ast *query.AST) error {
	if len(ast.InsertRows) == 0 {
		return fmt.Errorf("grammar: insert requires at least one row")
	}
	cols := sortedKeys(ast.InsertRows[0])

	b.WriteString("INSERT INTO ")
	b.WriteString(c.Dialect.QuoteIdentifier(ast.Table))
	b.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Dialect.QuoteIdentifier(col))
	}
	if _, ok := c.Dialect.(MSSQL); ok {
		b.WriteString(") OUTPUT INSERTED.* VALUES ")
	} else {
		b.WriteString(") VALUES ")
	}
	for ri, row := range ast.InsertRows {
		if ri > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for ci, col := range cols {
			if ci > 0 {
				b.WriteString(", ")
			}
			c.writeBoundValue(b, st, row[col])
		}
		b.WriteString(")")
	}

	if c.Dialect.SupportsReturning() {
		b.WriteString(" RETURNING *")
	}
	return nil
}

func (c *Compiler) compileUpdate(b *strings.Builder, st *state, ast *query.AST) error {
	st.table = ast.Table
	cols := sortedKeys(ast.UpdateValues)
	b.WriteString("UPDATE ")
	b.WriteString(c.Dialect.QuoteIdentifier(ast.Table))
	b.WriteString(" SET ")
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Dialect.QuoteIdentifier(col))
		b.WriteString(" = ")
		c.writeBoundValue(b, st, ast.UpdateValues[col])
	}
	if len(ast.Where) > 0 {
		b.WriteString(" WHERE ")
		if err := c.writeWhereChain(b, st, ast.Where); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileDelete(b *strings.Builder, st *state, ast *query.AST) error {
	st.table = ast.Table
	b.WriteString("DELETE FROM ")
	b.WriteString(c.Dialect.QuoteIdentifier(ast.Table))
	if len(ast.Where) > 0 {
		b.WriteString(" WHERE ")
		if err := c.writeWhereChain(b, st, ast.Where); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
