package orm

import (
	"context"
	"fmt"

	"github.com/ormforge/ormforge/connection"
	"github.com/ormforge/ormforge/query"
)

// Factory constructs a new, empty instance of a related model. Relationship
// descriptors carry a thunk rather than a type value to let models declare
// relationships to each other without import-order cycles (spec §3 "Each
// carries a thunk returning the related model class").
type Factory func() Model

// Relationship is the common surface every descriptor kind implements.
// LoadOne serves lazy single-model access (spec §4.4 item 3); LoadBatch
// backs the eager loader in eager.go, issuing exactly one query for every
// parent that shares this relationship regardless of how many parents there
// are (spec §4.5 "N+1-free eager loading").
type Relationship interface {
	// Kind names the relationship variant, used by the eager loader to
	// decide whether a group collapses to one model or stays a collection.
	Kind() string
	Related() Factory
	LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error)
	// LoadBatch loads this relationship for every parent at once, returning
	// a value per parent (same positions as parents) ready to assign into
	// that parent's relations map, plus the flattened related models
	// (for recursing into a dotted path's tail).
	LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) (values []any, related []Model, err error)
}

const (
	KindBelongsTo      = "belongs_to"
	KindHasOne         = "has_one"
	KindHasMany        = "has_many"
	KindBelongsToMany  = "belongs_to_many"
	KindHasOneThrough  = "has_one_through"
	KindHasManyThrough = "has_many_through"
)

// BelongsTo: the parent holds the foreign key and points at the owner.
type BelongsTo struct {
	RelatedFn  Factory
	ForeignKey string // column on the parent, default "<related>_id"
	OwnerKey   string // column on the related table, default its primary key
}

func (r BelongsTo) Kind() string    { return KindBelongsTo }
func (r BelongsTo) Related() Factory { return r.RelatedFn }

func (r BelongsTo) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	related := r.RelatedFn()
	meta := MetadataOf(related)
	ownerKey := r.OwnerKey
	if ownerKey == "" {
		ownerKey = meta.PrimaryKey
	}
	foreignKey := r.ForeignKey
	if foreignKey == "" {
		foreignKey = Singular(meta.Table) + "_id"
	}
	fk := parent.Base().Get(parent, foreignKey)
	if fk == nil {
		return nil, nil
	}
	return findOneWhere(ctx, resolver, related, ownerKey, fk)
}

func (r BelongsTo) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	related := r.RelatedFn()
	meta := MetadataOf(related)
	ownerKey := r.OwnerKey
	if ownerKey == "" {
		ownerKey = meta.PrimaryKey
	}
	foreignKey := r.ForeignKey
	if foreignKey == "" {
		foreignKey = Singular(meta.Table) + "_id"
	}
	keys, keyOf := collectKeys(parents, foreignKey)
	values := make([]any, len(parents))
	if len(keys) == 0 {
		return values, nil, nil
	}
	rows, err := fetchWhereIn(ctx, resolver, meta, ownerKey, keys)
	if err != nil {
		return nil, nil, err
	}
	byKey := map[any]Model{}
	relatedModels := make([]Model, 0, len(rows))
	for _, row := range rows {
		m := hydrateRow(meta, related, row)
		byKey[normalizeKey(m.Base().Get(m, ownerKey))] = m
		relatedModels = append(relatedModels, m)
	}
	for i := range parents {
		if m, ok := byKey[normalizeKey(keyOf[i])]; ok {
			values[i] = m
		}
	}
	return values, relatedModels, nil
}

// HasOne: the related table holds the foreign key back to the parent.
type HasOne struct {
	RelatedFn  Factory
	ForeignKey string // column on the related table
	LocalKey   string // column on the parent, default its primary key
}

func (r HasOne) Kind() string     { return KindHasOne }
func (r HasOne) Related() Factory { return r.RelatedFn }

func (r HasOne) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	related := r.RelatedFn()
	localKey := r.LocalKey
	if localKey == "" {
		localKey = parent.Base().meta.PrimaryKey
	}
	localVal := parent.Base().Get(parent, localKey)
	if localVal == nil {
		return nil, nil
	}
	return findOneWhere(ctx, resolver, related, r.ForeignKey, localVal)
}

func (r HasOne) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	localKey := r.LocalKey
	if localKey == "" {
		localKey = parents[0].Base().meta.PrimaryKey
	}
	grouped, relatedModels, err := loadHasManyGroups(ctx, resolver, r.RelatedFn, r.ForeignKey, localKey, parents)
	if err != nil {
		return nil, nil, err
	}
	out := make([]any, len(parents))
	for i, list := range grouped {
		if len(list) > 0 {
			out[i] = list[0]
		}
	}
	return out, relatedModels, nil
}

// HasMany: like HasOne but yields every matching row.
type HasMany struct {
	RelatedFn  Factory
	ForeignKey string
	LocalKey   string
}

func (r HasMany) Kind() string     { return KindHasMany }
func (r HasMany) Related() Factory { return r.RelatedFn }

func (r HasMany) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	localKey := r.LocalKey
	if localKey == "" {
		localKey = parent.Base().meta.PrimaryKey
	}
	localVal := parent.Base().Get(parent, localKey)
	if localVal == nil {
		return []Model{}, nil
	}
	return findAllWhere(ctx, resolver, r.RelatedFn, r.ForeignKey, localVal)
}

func (r HasMany) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	localKey := r.LocalKey
	if localKey == "" {
		localKey = parents[0].Base().meta.PrimaryKey
	}
	grouped, relatedModels, err := loadHasManyGroups(ctx, resolver, r.RelatedFn, r.ForeignKey, localKey, parents)
	if err != nil {
		return nil, nil, err
	}
	out := make([]any, len(parents))
	for i, list := range grouped {
		out[i] = list
	}
	return out, relatedModels, nil
}

// loadHasManyGroups issues a single WHERE ... IN query for HasOne/HasMany,
// grouping the related rows by foreign key value back onto each parent's
// position (spec §4.5 "N+1-free eager loading").
func loadHasManyGroups(ctx context.Context, resolver *connection.Resolver, relatedFn Factory, foreignKey, localKey string, parents []Model) ([][]Model, []Model, error) {
	related := relatedFn()
	meta := MetadataOf(related)
	keys, keyOf := collectKeys(parents, localKey)
	grouped := make([][]Model, len(parents))
	if len(keys) == 0 {
		return grouped, nil, nil
	}
	rows, err := fetchWhereIn(ctx, resolver, meta, foreignKey, keys)
	if err != nil {
		return nil, nil, err
	}
	byKey := map[any][]Model{}
	relatedModels := make([]Model, 0, len(rows))
	for _, row := range rows {
		m := hydrateRow(meta, relatedFn(), row)
		fk := normalizeKey(m.Base().Get(m, foreignKey))
		byKey[fk] = append(byKey[fk], m)
		relatedModels = append(relatedModels, m)
	}
	for i := range parents {
		grouped[i] = byKey[normalizeKey(keyOf[i])]
	}
	return grouped, relatedModels, nil
}

// BelongsToMany: a pivot table joins parent and related rows.
type BelongsToMany struct {
	RelatedFn       Factory
	PivotTable      string // default: sorted(singular(parent.table), singular(related.table)).join("_")
	ForeignPivotKey string // column on the pivot referencing the parent, default "<parent>_id"
	RelatedPivotKey string // column on the pivot referencing the related row, default "<related>_id"
	ParentKey       string // column on the parent, default its primary key
	RelatedKey      string // column on the related table, default its primary key
	PivotID         bool   // whether the pivot table has its own "id" column
	WithTimestamps  bool
	WithFields      []string
	AttributeName   string // default "pivot"
}

func (r BelongsToMany) Kind() string     { return KindBelongsToMany }
func (r BelongsToMany) Related() Factory { return r.RelatedFn }

func (r BelongsToMany) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	related := r.RelatedFn()
	parentMeta := parent.Base().meta
	relatedMeta := MetadataOf(related)

	pivot, foreignPivotKey, relatedPivotKey, attrName := r.resolveNames(parentMeta, relatedMeta)
	parentKey := r.ParentKey
	if parentKey == "" {
		parentKey = parentMeta.PrimaryKey
	}

	relatedKey := r.RelatedKey
	if relatedKey == "" {
		relatedKey = relatedMeta.PrimaryKey
	}

	parentVal := parent.Base().Get(parent, parentKey)
	if parentVal == nil {
		return []Model{}, nil
	}

	b, err := resolver.Table(relatedMeta.Connection, relatedMeta.Table)
	if err != nil {
		return nil, err
	}
	b.Select(relatedMeta.Table + ".*")
	b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, foreignPivotKey, foreignPivotKey))
	b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, relatedPivotKey, relatedPivotKey))
	if r.PivotID {
		b.SelectRaw(fmt.Sprintf("%s.id AS pivot__id", pivot))
	}
	for _, f := range r.WithFields {
		b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, f, f))
	}
	b.Join(pivot).On(relatedMeta.Table, relatedKey, "=", pivot, relatedPivotKey).Done()
	b.Where(pivot+"."+foreignPivotKey, "=", parentVal)
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		pivotAttrs := extractPivotColumns(row)
		m := hydrateRow(relatedMeta, related, row)
		m.Base().relations[attrName] = pivotAttrs
		out = append(out, m)
	}
	return out, nil
}

func (r BelongsToMany) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	related := r.RelatedFn()
	parentMeta := parents[0].Base().meta
	relatedMeta := MetadataOf(related)

	pivot, foreignPivotKey, relatedPivotKey, attrName := r.resolveNames(parentMeta, relatedMeta)
	parentKey := r.ParentKey
	if parentKey == "" {
		parentKey = parentMeta.PrimaryKey
	}

	relatedKey := r.RelatedKey
	if relatedKey == "" {
		relatedKey = relatedMeta.PrimaryKey
	}

	keys, keyOf := collectKeys(parents, parentKey)
	values := make([]any, len(parents))
	for i := range values {
		values[i] = []Model{}
	}
	if len(keys) == 0 {
		return values, nil, nil
	}

	b, err := resolver.Table(relatedMeta.Connection, relatedMeta.Table)
	if err != nil {
		return nil, nil, err
	}
	b.Select(relatedMeta.Table + ".*")
	b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, foreignPivotKey, foreignPivotKey))
	b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, relatedPivotKey, relatedPivotKey))
	if r.PivotID {
		b.SelectRaw(fmt.Sprintf("%s.id AS pivot__id", pivot))
	}
	for _, f := range r.WithFields {
		b.SelectRaw(fmt.Sprintf("%s.%s AS pivot__%s", pivot, f, f))
	}
	b.Join(pivot).On(relatedMeta.Table, relatedKey, "=", pivot, relatedPivotKey).Done()
	b.WhereIn(pivot+"."+foreignPivotKey, keys)
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	byParent := map[any][]Model{}
	relatedModels := make([]Model, 0, len(rows))
	for _, row := range rows {
		pivotAttrs := extractPivotColumns(row)
		parentFK := normalizeKey(pivotAttrs[foreignPivotKey])
		m := hydrateRow(relatedMeta, related, row)
		m.Base().relations[attrName] = pivotAttrs
		byParent[parentFK] = append(byParent[parentFK], m)
		relatedModels = append(relatedModels, m)
	}
	for i := range parents {
		values[i] = byParent[normalizeKey(keyOf[i])]
	}
	return values, relatedModels, nil
}

func (r BelongsToMany) resolveNames(parentMeta, relatedMeta *Metadata) (pivot, foreignPivotKey, relatedPivotKey, attrName string) {
	pivot = r.PivotTable
	if pivot == "" {
		pivot = DefaultPivotTableName(parentMeta.Table, relatedMeta.Table)
	}
	foreignPivotKey = r.ForeignPivotKey
	if foreignPivotKey == "" {
		foreignPivotKey = Singular(parentMeta.Table) + "_id"
	}
	relatedPivotKey = r.RelatedPivotKey
	if relatedPivotKey == "" {
		relatedPivotKey = Singular(relatedMeta.Table) + "_id"
	}
	attrName = r.AttributeName
	if attrName == "" {
		attrName = "pivot"
	}
	return
}

// extractPivotColumns strips "pivot__"-prefixed columns out of row and
// returns them keyed by their unprefixed name (spec §4.5 pivot hydration).
func extractPivotColumns(row map[string]any) map[string]any {
	const prefix = "pivot__"
	pivotAttrs := map[string]any{}
	for k, v := range row {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			pivotAttrs[k[len(prefix):]] = v
			delete(row, k)
		}
	}
	return pivotAttrs
}

// HasOneThrough: the far table reached via an intermediate table.
type HasOneThrough struct {
	ThroughFn                Factory
	RelatedFn                Factory
	FirstKey                 string // FK on intermediate referencing parent
	SecondKey                string // FK on related referencing intermediate
	LocalKey                 string // column on parent, default its primary key
	SecondLocalKey           string // column on intermediate, default its primary key
}

func (r HasOneThrough) Kind() string     { return KindHasOneThrough }
func (r HasOneThrough) Related() Factory { return r.RelatedFn }

func (r HasOneThrough) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	rows, err := loadThrough(ctx, resolver, parent, r.ThroughFn, r.RelatedFn, r.FirstKey, r.SecondKey, r.LocalKey, r.SecondLocalKey)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r HasOneThrough) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	grouped, relatedModels, err := loadThroughBatch(ctx, resolver, parents, r.ThroughFn, r.RelatedFn, r.FirstKey, r.SecondKey, r.LocalKey, r.SecondLocalKey)
	if err != nil {
		return nil, nil, err
	}
	out := make([]any, len(parents))
	for i, list := range grouped {
		if len(list) > 0 {
			out[i] = list[0]
		}
	}
	return out, relatedModels, nil
}

// HasManyThrough: like HasOneThrough but yields every matching far row.
type HasManyThrough struct {
	ThroughFn      Factory
	RelatedFn      Factory
	FirstKey       string
	SecondKey      string
	LocalKey       string
	SecondLocalKey string
}

func (r HasManyThrough) Kind() string     { return KindHasManyThrough }
func (r HasManyThrough) Related() Factory { return r.RelatedFn }

func (r HasManyThrough) LoadOne(ctx context.Context, resolver *connection.Resolver, parent Model) (any, error) {
	return loadThrough(ctx, resolver, parent, r.ThroughFn, r.RelatedFn, r.FirstKey, r.SecondKey, r.LocalKey, r.SecondLocalKey)
}

func (r HasManyThrough) LoadBatch(ctx context.Context, resolver *connection.Resolver, parents []Model) ([]any, []Model, error) {
	grouped, relatedModels, err := loadThroughBatch(ctx, resolver, parents, r.ThroughFn, r.RelatedFn, r.FirstKey, r.SecondKey, r.LocalKey, r.SecondLocalKey)
	if err != nil {
		return nil, nil, err
	}
	out := make([]any, len(parents))
	for i, list := range grouped {
		out[i] = list
	}
	return out, relatedModels, nil
}

func loadThrough(ctx context.Context, resolver *connection.Resolver, parent Model, throughFn, relatedFn Factory, firstKey, secondKey, localKey, secondLocalKey string) ([]Model, error) {
	through := throughFn()
	throughMeta := MetadataOf(through)
	related := relatedFn()
	relatedMeta := MetadataOf(related)

	if localKey == "" {
		localKey = parent.Base().meta.PrimaryKey
	}
	if secondLocalKey == "" {
		secondLocalKey = throughMeta.PrimaryKey
	}
	parentVal := parent.Base().Get(parent, localKey)
	if parentVal == nil {
		return nil, nil
	}

	b, err := resolver.Table(relatedMeta.Connection, relatedMeta.Table)
	if err != nil {
		return nil, err
	}
	b.Join(throughMeta.Table).
		On(relatedMeta.Table, secondKey, "=", throughMeta.Table, secondLocalKey).
		Done()
	b.Where(throughMeta.Table+"."+firstKey, "=", parentVal)

	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		out = append(out, hydrateRow(relatedMeta, related, row))
	}
	return out, nil
}

// loadThroughBatch is loadThrough's batched counterpart: one join query
// covering every parent, grouped back by the intermediate table's foreign
// key to the parent (spec §4.5 "N+1-free eager loading").
func loadThroughBatch(ctx context.Context, resolver *connection.Resolver, parents []Model, throughFn, relatedFn Factory, firstKey, secondKey, localKey, secondLocalKey string) ([][]Model, []Model, error) {
	through := throughFn()
	throughMeta := MetadataOf(through)
	related := relatedFn()
	relatedMeta := MetadataOf(related)

	if localKey == "" {
		localKey = parents[0].Base().meta.PrimaryKey
	}
	if secondLocalKey == "" {
		secondLocalKey = throughMeta.PrimaryKey
	}

	keys, keyOf := collectKeys(parents, localKey)
	grouped := make([][]Model, len(parents))
	if len(keys) == 0 {
		return grouped, nil, nil
	}

	const groupAlias = "eager_through_fk"
	b, err := resolver.Table(relatedMeta.Connection, relatedMeta.Table)
	if err != nil {
		return nil, nil, err
	}
	b.Select(relatedMeta.Table + ".*")
	b.SelectRaw(fmt.Sprintf("%s.%s AS %s", throughMeta.Table, firstKey, groupAlias))
	b.Join(throughMeta.Table).
		On(relatedMeta.Table, secondKey, "=", throughMeta.Table, secondLocalKey).
		Done()
	b.WhereIn(throughMeta.Table+"."+firstKey, keys)

	rows, err := b.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	byParent := map[any][]Model{}
	relatedModels := make([]Model, 0, len(rows))
	for _, row := range rows {
		groupKey := normalizeKey(row[groupAlias])
		delete(row, groupAlias)
		m := hydrateRow(relatedMeta, related, row)
		byParent[groupKey] = append(byParent[groupKey], m)
		relatedModels = append(relatedModels, m)
	}
	for i := range parents {
		grouped[i] = byParent[normalizeKey(keyOf[i])]
	}
	return grouped, relatedModels, nil
}

func findOneWhere(ctx context.Context, resolver *connection.Resolver, sample Model, column string, value any) (Model, error) {
	meta := MetadataOf(sample)
	b, err := resolver.Table(meta.Connection, meta.Table)
	if err != nil {
		return nil, err
	}
	row, err := b.Where(column, "=", value).First(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return hydrateRow(meta, sample, row), nil
}

func findAllWhere(ctx context.Context, resolver *connection.Resolver, factory Factory, column string, value any) ([]Model, error) {
	sample := factory()
	meta := MetadataOf(sample)
	b, err := resolver.Table(meta.Connection, meta.Table)
	if err != nil {
		return nil, err
	}
	rows, err := b.Where(column, "=", value).Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		out = append(out, hydrateRow(meta, factory(), row))
	}
	return out, nil
}

// DefaultPivotTableName implements spec §8's pivot-naming testable property:
// the singular forms of the two table names joined by "_" in lexicographic
// order.
func DefaultPivotTableName(tableA, tableB string) string {
	a, b := Singular(tableA), Singular(tableB)
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s_%s", a, b)
}

// collectKeys reads column off every parent, returning the distinct non-nil
// values (for a WHERE...IN) alongside a same-length slice of each parent's
// raw value (nil where absent), used to re-key batch results onto parents.
func collectKeys(parents []Model, column string) (keys []any, keyOf []any) {
	seen := map[any]bool{}
	keyOf = make([]any, len(parents))
	for i, p := range parents {
		v := p.Base().Get(p, column)
		keyOf[i] = v
		if v == nil {
			continue
		}
		nk := normalizeKey(v)
		if !seen[nk] {
			seen[nk] = true
			keys = append(keys, v)
		}
	}
	return keys, keyOf
}

// normalizeKey makes driver-returned values (e.g. []byte vs string copies of
// the same scalar) comparable as map keys.
func normalizeKey(v any) any { return toComparable(v) }

// fetchWhereIn issues `SELECT * FROM <table> WHERE <column> IN (keys)`
// against meta's table, the shape the BelongsTo, HasOne and HasMany batched
// loads share.
func fetchWhereIn(ctx context.Context, resolver *connection.Resolver, meta *Metadata, column string, keys []any) ([]map[string]any, error) {
	b, err := resolver.Table(meta.Connection, meta.Table)
	if err != nil {
		return nil, err
	}
	return b.WhereIn(column, keys).Get(ctx)
}

// countSubquery builds the correlated COUNT(*) subquery WithCount attaches
// via AddSelect. Only the relationship kinds with a direct foreign key back
// to the parent (HasOne, HasMany, BelongsToMany) support counting this way.
func countSubquery(resolver *connection.Resolver, parentMeta *Metadata, rel Relationship) (*query.Builder, error) {
	switch r := rel.(type) {
	case HasMany:
		return countHasMany(resolver, parentMeta, r.RelatedFn, r.ForeignKey, r.LocalKey)
	case HasOne:
		return countHasMany(resolver, parentMeta, r.RelatedFn, r.ForeignKey, r.LocalKey)
	case BelongsToMany:
		related := r.RelatedFn()
		relatedMeta := MetadataOf(related)
		pivot, foreignPivotKey, _, _ := r.resolveNames(parentMeta, relatedMeta)
		sub, err := resolver.Table(relatedMeta.Connection, pivot)
		if err != nil {
			return nil, err
		}
		sub.SelectRaw("COUNT(*)")
		sub.WhereColumn(pivot+"."+foreignPivotKey, "=", parentMeta.Table+"."+parentMeta.PrimaryKey)
		return sub, nil
	default:
		return nil, &ErrConfiguration{Reason: "relationship kind " + rel.Kind() + " does not support with_count"}
	}
}

func countHasMany(resolver *connection.Resolver, parentMeta *Metadata, relatedFn Factory, foreignKey, localKey string) (*query.Builder, error) {
	related := relatedFn()
	relatedMeta := MetadataOf(related)
	if localKey == "" {
		localKey = parentMeta.PrimaryKey
	}
	sub, err := resolver.Table(relatedMeta.Connection, relatedMeta.Table)
	if err != nil {
		return nil, err
	}
	sub.SelectRaw("COUNT(*)")
	sub.WhereColumn(relatedMeta.Table+"."+foreignKey, "=", parentMeta.Table+"."+localKey)
	return sub, nil
}
