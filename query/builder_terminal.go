package query

import (
	"context"
	"fmt"
)

func (b *Builder) execQuery(ctx context.Context) ([]Row, error) {
	sqlStr, bindings, err := b.compileKeepState(ctx)
	if err != nil {
		return nil, wrapException(sqlStr, bindings, err)
	}
	rows, err := b.exec.Query(ctx, sqlStr, bindings)
	if err != nil {
		return nil, wrapException(sqlStr, bindings, err)
	}
	return rows, nil
}

func (b *Builder) execWrite(ctx context.Context) (Result, error) {
	sqlStr, bindings, err := b.compileKeepState(ctx)
	if err != nil {
		return Result{}, wrapException(sqlStr, bindings, err)
	}
	res, err := b.exec.Exec(ctx, sqlStr, bindings)
	if err != nil {
		return Result{}, wrapException(sqlStr, bindings, err)
	}
	return res, nil
}

// Get executes the SELECT and returns every matching row.
func (b *Builder) Get(ctx context.Context) ([]Row, error) {
	return b.execQuery(ctx)
}

// First returns the first matching row, or nil if none matched.
func (b *Builder) First(ctx context.Context) (Row, error) {
	clone := b.Clone()
	clone.Limit(1)
	rows, err := clone.execQuery(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ErrNotFound is returned by FirstOrFail/FindOrFail when no row matches.
var ErrNotFound = fmt.Errorf("query: no matching row")

// FirstOrFail is First but fails with ErrNotFound instead of returning nil.
func (b *Builder) FirstOrFail(ctx context.Context) (Row, error) {
	row, err := b.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Find looks up a single row by primary key.
func (b *Builder) Find(ctx context.Context, pk string, id any) (Row, error) {
	return b.Clone().Where(pk, "=", id).First(ctx)
}

// FindMany looks up rows whose primary key is in ids.
func (b *Builder) FindMany(ctx context.Context, pk string, ids []any) ([]Row, error) {
	return b.Clone().WhereIn(pk, ids).Get(ctx)
}

func (b *Builder) aggregateScalar(ctx context.Context, fn AggregateFunc, col string) (any, error) {
	clone := b.Clone()
	clone.aggregate(fn, col)
	row, err := clone.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	for _, v := range row {
		return v, nil
	}
	return nil, nil
}

// Count returns COUNT(*) (or COUNT(col) when col != "").
func (b *Builder) Count(ctx context.Context, col string) (any, error) {
	if col == "" {
		col = "*"
	}
	return b.aggregateScalar(ctx, AggCount, col)
}

// Sum returns SUM(col).
func (b *Builder) Sum(ctx context.Context, col string) (any, error) { return b.aggregateScalar(ctx, AggSum, col) }

// Avg returns AVG(col).
func (b *Builder) Avg(ctx context.Context, col string) (any, error) { return b.aggregateScalar(ctx, AggAvg, col) }

// Max returns MAX(col).
func (b *Builder) Max(ctx context.Context, col string) (any, error) { return b.aggregateScalar(ctx, AggMax, col) }

// Min returns MIN(col).
func (b *Builder) Min(ctx context.Context, col string) (any, error) { return b.aggregateScalar(ctx, AggMin, col) }

// Page is the result of Paginate: a page of rows plus counting metadata
// (spec §4.2).
type Page struct {
	Data        []Row
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
	From        int
	To          int
}

// Paginate issues the main query plus a COUNT(*) over the same WHERE set
// (selects/order/limit/offset stripped for the count), per spec §4.2.
func (b *Builder) Paginate(ctx context.Context, perPage, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	countClone := b.Clone()
	countClone.ast.Columns = nil
	countClone.ast.OrderBy = nil
	countClone.ast.Limit = nil
	countClone.ast.Offset = nil
	total, err := countClone.Count(ctx, "*")
	if err != nil {
		return nil, err
	}
	totalCount := toInt64(total)

	dataClone := b.Clone()
	dataClone.Limit(perPage).Offset((page - 1) * perPage)
	rows, err := dataClone.Get(ctx)
	if err != nil {
		return nil, err
	}

	lastPage := int((totalCount + int64(perPage) - 1) / int64(max1(perPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	from, to := 0, 0
	if len(rows) > 0 {
		from = (page-1)*perPage + 1
		to = from + len(rows) - 1
	}
	return &Page{Data: rows, Total: totalCount, PerPage: perPage, CurrentPage: page, LastPage: lastPage, From: from, To: to}, nil
}

// SimplePage is the result of SimplePaginate: a page plus a HasMore flag,
// obtained by overfetching one extra row instead of running a COUNT query.
type SimplePage struct {
	Data    []Row
	HasMore bool
}

// SimplePaginate fetches perPage+1 rows; presence of the extra row sets HasMore.
func (b *Builder) SimplePaginate(ctx context.Context, perPage, page int) (*SimplePage, error) {
	if page < 1 {
		page = 1
	}
	clone := b.Clone()
	clone.Limit(perPage + 1).Offset((page - 1) * perPage)
	rows, err := clone.Get(ctx)
	if err != nil {
		return nil, err
	}
	hasMore := len(rows) > perPage
	if hasMore {
		rows = rows[:perPage]
	}
	return &SimplePage{Data: rows, HasMore: hasMore}, nil
}

// Chunk repeatedly issues limit=n/offset=k*n queries and calls fn with each
// successive chunk, stopping when fn returns an error or a chunk returns
// fewer than n rows. The caller must not mutate the builder between calls
// (spec §4.2).
func (b *Builder) Chunk(ctx context.Context, n int, fn func([]Row) error) error {
	k := 0
	for {
		clone := b.Clone()
		clone.Limit(n).Offset(k * n)
		rows, err := clone.Get(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < n {
			return nil
		}
		k++
	}
}

// Create inserts one row and returns the driver Result (LastInsertID on
// dialects without RETURNING).
func (b *Builder) Create(ctx context.Context, values map[string]any) (Result, error) {
	clone := b.Clone()
	clone.ast.Kind = InsertStmt
	clone.ast.InsertRows = []InsertRow{values}
	return clone.execWrite(ctx)
}

// BulkCreate inserts many rows in a single statement.
func (b *Builder) BulkCreate(ctx context.Context, rows []map[string]any) (Result, error) {
	clone := b.Clone()
	clone.ast.Kind = InsertStmt
	for _, r := range rows {
		clone.ast.InsertRows = append(clone.ast.InsertRows, r)
	}
	return clone.execWrite(ctx)
}

// Update applies a SET on every row matching the accumulated WHERE.
func (b *Builder) Update(ctx context.Context, values map[string]any) (Result, error) {
	clone := b.Clone()
	clone.ast.Kind = UpdateStmt
	clone.ast.UpdateValues = values
	return clone.execWrite(ctx)
}

// Delete removes every row matching the accumulated WHERE.
func (b *Builder) Delete(ctx context.Context) (Result, error) {
	clone := b.Clone()
	clone.ast.Kind = DeleteStmt
	return clone.execWrite(ctx)
}

// Truncate empties the table. When disableForeignKeys is true the grammar
// wraps the statement with dialect-specific FK-check toggling. Each
// dialect-specific statement (e.g. MySQL's SET FOREIGN_KEY_CHECKS toggling,
// MSSQL's NOCHECK/CHECK CONSTRAINT bracketing) is sent as its own Exec call,
// since drivers generally reject multi-statement strings; RowsAffected comes
// from the TRUNCATE/DELETE statement itself.
func (b *Builder) Truncate(ctx context.Context, disableForeignKeys bool) (Result, error) {
	stmts, err := b.compiler.CompileTruncate(b.ast.Table, disableForeignKeys)
	if err != nil {
		return Result{}, err
	}
	var result Result
	for _, stmt := range stmts {
		res, err := b.exec.Exec(ctx, stmt, nil)
		if err != nil {
			return Result{}, wrapException(stmt, nil, err)
		}
		result = res
	}
	return result, nil
}

// Increment adds `by` to column for every matching row.
func (b *Builder) Increment(ctx context.Context, column string, by int64) (Result, error) {
	return b.Update(ctx, map[string]any{column: Raw{SQL: fmt.Sprintf("%s + ?", column), Bindings: []any{by}}})
}

// Decrement subtracts `by` from column for every matching row.
func (b *Builder) Decrement(ctx context.Context, column string, by int64) (Result, error) {
	return b.Update(ctx, map[string]any{column: Raw{SQL: fmt.Sprintf("%s - ?", column), Bindings: []any{by}}})
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
