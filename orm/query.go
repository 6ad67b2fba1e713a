package orm

import (
	"context"

	"github.com/ormforge/ormforge/collection"
	"github.com/ormforge/ormforge/connection"
	"github.com/ormforge/ormforge/query"
)

// Query wraps a query.Builder with the originating model's metadata so
// terminal operations know how to hydrate rows and which scopes apply.
type Query struct {
	B              *query.Builder
	meta           *Metadata
	sample         Model
	resolver       *connection.Resolver
	skipGlobal     map[string]bool
	scopesApplied  bool
	withTrashed    bool
	onlyTrashed    bool
	forceDeleting  bool
	eagerLoad      []string
}

// With registers relationship paths (dot-separated for nested paths, e.g.
// "phone.contacts") to eager load when Get/First runs, using the batched,
// N+1-free algorithm in eager.go (spec §4.5).
func (q *Query) With(paths ...string) *Query {
	q.eagerLoad = append(q.eagerLoad, paths...)
	return q
}

// WithCount adds a `<name>_count` correlated-subquery column counting rows
// of a HasMany/HasOne/BelongsToMany relationship, without fetching the
// related rows themselves (spec §4.5 "with_count").
func (q *Query) WithCount(names ...string) (*Query, error) {
	for _, name := range names {
		rel, ok := q.meta.Relationships[name]
		if !ok {
			return nil, &ErrConfiguration{Reason: "unresolved relationship target: " + name}
		}
		sub, err := countSubquery(q.resolver, q.meta, rel)
		if err != nil {
			return nil, err
		}
		q.B.AddSelect(name+"_count", sub)
	}
	return q, nil
}

// NewQuery returns a Query for sample's table (spec §4.4 "Scopes"); the
// registered global scopes are added later by ensureScopes.
func NewQuery(resolver *connection.Resolver, sample Model) (*Query, error) {
	meta := MetadataOf(sample)
	meta.boot(sample)
	b, err := resolver.Table(meta.Connection, meta.Table)
	if err != nil {
		return nil, err
	}
	if len(meta.Selects) > 0 {
		b.Select(meta.Selects...)
	}
	q := &Query{B: b, meta: meta, sample: sample, resolver: resolver, skipGlobal: map[string]bool{}}
	q.eagerLoad = append(q.eagerLoad, meta.With...)
	return q, nil
}

// ensureScopes applies every registered global scope not opted out of via
// WithoutGlobalScope/WithTrashed/ForceDelete. It runs once, immediately
// before the query is first executed, rather than in NewQuery, so that
// WithTrashed/OnlyTrashed/ForceDelete — all called after NewQuery returns —
// can still opt out before the scope's predicate is ever added to q.B
// (spec §8 scenario 5).
func (q *Query) ensureScopes() {
	if q.scopesApplied {
		return
	}
	q.scopesApplied = true
	for name, scope := range q.meta.GlobalScopes {
		if q.skipGlobal[name] {
			continue
		}
		scope.Apply(q)
	}
}

// WithoutGlobalScope opts out of one registered scope for this query.
func (q *Query) WithoutGlobalScope(name string) *Query {
	q.skipGlobal[name] = true
	return q
}

// WithTrashed disables the SoftDeletes scope for this query (spec §4.4).
func (q *Query) WithTrashed() *Query {
	q.withTrashed = true
	return q.WithoutGlobalScope(softDeletesScopeName)
}

// OnlyTrashed inverts the SoftDeletes predicate for this query.
func (q *Query) OnlyTrashed() *Query {
	q.onlyTrashed = true
	if q.meta.DeletedAtColumn != "" {
		q.B.WhereNotNull(q.meta.DeletedAtColumn)
	}
	return q.WithoutGlobalScope(softDeletesScopeName)
}

// Get executes the query and hydrates every row into a new Model instance.
func (q *Query) Get(ctx context.Context) ([]Model, error) {
	q.ensureScopes()
	rows, err := q.B.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		out = append(out, hydrateRow(q.meta, freshInstance(q.sample), row))
	}
	if err := loadEager(ctx, q.resolver, out, q.eagerLoad); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCollection is Get wrapped in the Collection surface (spec §3/§6), for
// callers that want the set-like aggregate operations (Filter, GroupBy,
// Chunk, ...) instead of a plain slice.
func (q *Query) GetCollection(ctx context.Context) (*collection.Collection[Model], error) {
	models, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}
	return collection.New(models), nil
}

// First returns the first matching row hydrated, or nil if none matched.
func (q *Query) First(ctx context.Context) (Model, error) {
	q.ensureScopes()
	row, err := q.B.First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	m := hydrateRow(q.meta, freshInstance(q.sample), row)
	if err := loadEager(ctx, q.resolver, []Model{m}, q.eagerLoad); err != nil {
		return nil, err
	}
	return m, nil
}

// ErrModelNotFound is the ModelNotFound taxonomy entry from spec §7.
type ErrModelNotFound struct {
	TypeName string
	Key      any
}

func (e *ErrModelNotFound) Error() string {
	return "orm: " + e.TypeName + " not found"
}

// FirstOrFail is First but returns *ErrModelNotFound instead of nil.
func (q *Query) FirstOrFail(ctx context.Context) (Model, error) {
	m, err := q.First(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &ErrModelNotFound{TypeName: q.meta.TypeName}
	}
	return m, nil
}

// Find looks up one row by primary key.
func (q *Query) Find(ctx context.Context, id any) (Model, error) {
	q.B.Where(q.meta.PrimaryKey, "=", id)
	return q.First(ctx)
}

// FindOrFail is Find but returns *ErrModelNotFound instead of nil.
func (q *Query) FindOrFail(ctx context.Context, id any) (Model, error) {
	m, err := q.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &ErrModelNotFound{TypeName: q.meta.TypeName, Key: id}
	}
	return m, nil
}

// Delete performs the query's delete semantics: the SoftDeletes scope
// rewrites this into an UPDATE of the deleted-at column (spec §8 scenario 5)
// unless ForceDelete was called.
func (q *Query) Delete(ctx context.Context) (query.Result, error) {
	q.ensureScopes()
	if q.meta.DeletedAtColumn != "" && !q.forceDeleting {
		return q.B.Update(ctx, map[string]any{q.meta.DeletedAtColumn: nowFunc()})
	}
	return q.B.Delete(ctx)
}

// ForceDelete bypasses the SoftDeletes scope for this one delete call: it
// opts the query out of the scope before ensureScopes ever runs, so the
// `deleted_at IS NULL` predicate is never added to q.B (spec §8 scenario 5),
// and deletes every matching row regardless of its soft-delete state.
func (q *Query) ForceDelete(ctx context.Context) (query.Result, error) {
	q.forceDeleting = true
	q.WithoutGlobalScope(softDeletesScopeName)
	q.ensureScopes()
	return q.B.Delete(ctx)
}

// freshInstance allocates a new zero-value instance of sample's concrete type.
func freshInstance(sample Model) Model {
	return newInstanceFn(sample)
}
