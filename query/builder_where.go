package query

// nextBoolean returns the connector for the next clause appended to list:
// empty string ("") for the very first clause, And otherwise (spec §4.1: "the
// first clause omits its boolean connector").
func nextBoolean(list []WhereClause) Boolean {
	if len(list) == 0 {
		return ""
	}
	return And
}

func newBasicWhere(existing []WhereClause, column, op string, value any, negated bool) WhereClause {
	return WhereClause{
		Kind:    WhereBasic,
		Boolean: nextBoolean(existing),
		Negated: negated,
		Column:  column,
		Op:      op,
		Value:   value,
	}
}

// Where adds an operator predicate (col, op, val) for any of
// {=,<,>,<=,>=,!=,like,not like,regexp,not regexp}; WhereEq covers (col, val).
func (b *Builder) Where(column, op string, value any) *Builder {
	b.ast.Where = append(b.ast.Where, newBasicWhere(b.ast.Where, column, op, value, false))
	return b
}

// WhereEq is sugar for Where(column, "=", value).
func (b *Builder) WhereEq(column string, value any) *Builder {
	return b.Where(column, "=", value)
}

// OrWhere is Where but OR-connected.
func (b *Builder) OrWhere(column, op string, value any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{Kind: WhereBasic, Boolean: Or, Column: column, Op: op, Value: value})
	return b
}

// WhereMap AND-joins an equality predicate per map entry.
func (b *Builder) WhereMap(m map[string]any) *Builder {
	for k, v := range m {
		b.Where(k, "=", v)
	}
	return b
}

// WhereCallback nests a subquery-style predicate group: the callback
// populates a fresh sibling builder whose WHERE list is wrapped in
// parentheses and spliced in as one nested clause.
func (b *Builder) WhereCallback(fn func(*Builder)) *Builder {
	sub := b.NewSub(b.ast.Table)
	fn(sub)
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind:    WhereNested,
		Boolean: nextBoolean(b.ast.Where),
		Nested:  sub.ast.Where,
	})
	return b
}

// WhereIn adds a WHERE col IN (...) predicate. An empty list short-circuits
// to "0 = 1" (spec §4.1 / §8 empty-list invariant) so the query returns no
// rows without a SQL syntax error.
func (b *Builder) WhereIn(column string, values []any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereIn, Boolean: nextBoolean(b.ast.Where), Column: column, Values: values,
	})
	return b
}

// WhereNotIn is WhereIn negated; an empty list matches every row.
func (b *Builder) WhereNotIn(column string, values []any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereIn, Boolean: nextBoolean(b.ast.Where), Negated: true, Column: column, Values: values,
	})
	return b
}

// WhereInSubquery adds WHERE col IN (<subquery>).
func (b *Builder) WhereInSubquery(column string, sub *Builder) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereInSubquery, Boolean: nextBoolean(b.ast.Where), Column: column, Subquery: sub,
	})
	return b
}

// WhereNull adds WHERE col IS NULL.
func (b *Builder) WhereNull(column string) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{Kind: WhereNull, Boolean: nextBoolean(b.ast.Where), Column: column})
	return b
}

// WhereNotNull adds WHERE col IS NOT NULL.
func (b *Builder) WhereNotNull(column string) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{Kind: WhereNull, Boolean: nextBoolean(b.ast.Where), Negated: true, Column: column})
	return b
}

// WhereBetween adds WHERE col BETWEEN lo AND hi.
func (b *Builder) WhereBetween(column string, lo, hi any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereBetween, Boolean: nextBoolean(b.ast.Where), Column: column, Low: lo, High: hi,
	})
	return b
}

// WhereNotBetween adds WHERE col NOT BETWEEN lo AND hi.
func (b *Builder) WhereNotBetween(column string, lo, hi any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereBetween, Boolean: nextBoolean(b.ast.Where), Negated: true, Column: column, Low: lo, High: hi,
	})
	return b
}

// WhereLike adds WHERE col LIKE pattern.
func (b *Builder) WhereLike(column, pattern string) *Builder {
	return b.Where(column, "like", pattern)
}

// WhereNotLike adds WHERE col NOT LIKE pattern.
func (b *Builder) WhereNotLike(column, pattern string) *Builder {
	return b.Where(column, "not like", pattern)
}

// WhereColumn compares two columns, e.g. WhereColumn("orders.user_id", "=", "users.id").
func (b *Builder) WhereColumn(left, op, right string) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereColumn, Boolean: nextBoolean(b.ast.Where), Column: left, Op: op, Value: right,
	})
	return b
}

// WhereExists adds WHERE EXISTS (<subquery>).
func (b *Builder) WhereExists(sub *Builder) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{Kind: WhereExists, Boolean: nextBoolean(b.ast.Where), Subquery: sub})
	return b
}

// WhereNotExists adds WHERE NOT EXISTS (<subquery>).
func (b *Builder) WhereNotExists(sub *Builder) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{Kind: WhereExists, Boolean: nextBoolean(b.ast.Where), Negated: true, Subquery: sub})
	return b
}

// WhereRaw embeds SQL verbatim into the WHERE chain with its own bindings.
func (b *Builder) WhereRaw(sqlStr string, bindings ...any) *Builder {
	b.ast.Where = append(b.ast.Where, WhereClause{
		Kind: WhereRaw, Boolean: nextBoolean(b.ast.Where), SQL: sqlStr, Bindings: bindings,
	})
	return b
}

// Having mirrors the Where family for the HAVING clause.
func (b *Builder) Having(column, op string, value any) *Builder {
	b.ast.Having = append(b.ast.Having, newBasicWhere(b.ast.Having, column, op, value, false))
	return b
}

// HavingRaw embeds a raw HAVING predicate.
func (b *Builder) HavingRaw(sqlStr string, bindings ...any) *Builder {
	b.ast.Having = append(b.ast.Having, WhereClause{
		Kind: WhereRaw, Boolean: nextBoolean(b.ast.Having), SQL: sqlStr, Bindings: bindings,
	})
	return b
}
