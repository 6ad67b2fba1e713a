package orm

import (
	"context"
	"reflect"
	"time"

	"github.com/ormforge/ormforge/connection"
)

// newInstanceFn allocates a zero-value instance of sample's concrete type,
// which must be a pointer to a struct embedding Base (spec §9 "model each
// entity as an explicit struct with typed fields plus a sidecar attributes
// map").
func newInstanceFn(sample Model) Model {
	t := reflect.TypeOf(sample)
	if t.Kind() != reflect.Ptr {
		panic("orm: model values must be pointers")
	}
	return reflect.New(t.Elem()).Interface().(Model)
}

func nowFunc() time.Time { return time.Now().UTC() }

// LoadRelation lazily triggers relationship r (registered under name on
// m's metadata), caching the result on m (spec §4.4 item 3).
func LoadRelation(ctx context.Context, resolver *connection.Resolver, m Model, name string) (any, error) {
	b := m.Base()
	b.ensureMaps()
	if v, ok := b.relations[name]; ok {
		return v, nil
	}
	rel, ok := b.meta.Relationships[name]
	if !ok {
		return nil, &ErrConfiguration{Reason: "unresolved relationship target: " + name}
	}
	value, err := rel.LoadOne(ctx, resolver, m)
	if err != nil {
		return nil, err
	}
	b.relations[name] = value
	return value, nil
}

// ErrConfiguration is the ConfigurationError taxonomy entry from spec §7.
type ErrConfiguration struct {
	Reason string
}

func (e *ErrConfiguration) Error() string { return "orm: configuration error: " + e.Reason }

// Save inserts or updates m depending on whether it already exists (spec
// §4.4 "save() chooses insert vs update based on exists").
func Save(ctx context.Context, resolver *connection.Resolver, m Model) error {
	if m.Base().Exists() {
		return update(ctx, resolver, m, nil, false)
	}
	return insert(ctx, resolver, m)
}

// Create mass-assigns values (subject to fillable/guarded filtering), then
// inserts (spec §4.4 "Mass assignment").
func Create[T Model](ctx context.Context, resolver *connection.Resolver, sample T, values map[string]any) (T, error) {
	var zero T
	m := freshInstance(sample)
	fill(m, values)
	if err := insert(ctx, resolver, m); err != nil {
		return zero, err
	}
	return m.(T), nil
}

func insert(ctx context.Context, resolver *connection.Resolver, m Model) error {
	b := m.Base()
	meta := b.meta
	meta.boot(m)

	if !fireCancelable(meta, m, func(o Observer) func(Model) bool { return o.Saving }) {
		return nil
	}
	if !fireCancelable(meta, m, func(o Observer) func(Model) bool { return o.Creating }) {
		return nil
	}

	for _, scope := range meta.GlobalScopes {
		if inserter, ok := scope.(InsertScope); ok {
			inserter.BeforeInsert(m)
		}
	}

	if meta.Timestamps && timestampsActive(b) {
		now := nowFunc()
		if _, ok := b.attributes["created_at"]; !ok {
			b.Set(m, "created_at", now)
		}
		b.Set(m, "updated_at", now)
	}

	q, err := NewQuery(resolver, m)
	if err != nil {
		return err
	}
	res, err := q.B.Create(ctx, b.attributes)
	if err != nil {
		return err
	}
	if _, ok := b.attributes[meta.PrimaryKey]; !ok && res.LastInsertID != 0 {
		b.attributes[meta.PrimaryKey] = res.LastInsertID
	}
	b.exists = true
	b.SyncOriginal()

	fireVoid(meta, m, func(o Observer) func(Model) { return o.Created })
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Saved })
	return nil
}

// Update merges values into m's attributes then saves, emitting SQL only
// when dirty columns remain unless force is true or the instance's
// ForceUpdate override is set (spec §4.4 "Dirty & force update").
func Update(ctx context.Context, resolver *connection.Resolver, m Model, values map[string]any, force bool) error {
	fill(m, values)
	return update(ctx, resolver, m, values, force)
}

func update(ctx context.Context, resolver *connection.Resolver, m Model, _ map[string]any, force bool) error {
	b := m.Base()
	meta := b.meta
	meta.boot(m)

	dirty := b.DirtyColumns()
	if len(dirty) == 0 && !force && !b.forceUpdate && !meta.ForceUpdate {
		return nil
	}

	if !fireCancelable(meta, m, func(o Observer) func(Model) bool { return o.Saving }) {
		return nil
	}
	if !fireCancelable(meta, m, func(o Observer) func(Model) bool { return o.Updating }) {
		return nil
	}

	if meta.Timestamps && timestampsActive(b) {
		b.Set(m, "updated_at", nowFunc())
		dirty = b.DirtyColumns()
	}

	q, err := NewQuery(resolver, m)
	if err != nil {
		return err
	}
	q.B.Where(meta.PrimaryKey, "=", b.attributes[meta.PrimaryKey])
	q.ensureScopes()
	if _, err := q.B.Update(ctx, dirty); err != nil {
		return err
	}
	b.SyncOriginal()

	fireVoid(meta, m, func(o Observer) func(Model) { return o.Updated })
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Saved })
	return nil
}

// timestampsActive returns the per-instance ActivateTimestamps override when
// one was set, and true otherwise; ForceUpdate does not affect it.
func timestampsActive(b *Base) bool {
	if b.timestamps != nil {
		return *b.timestamps
	}
	return true
}

// Delete runs the model's (possibly soft-delete) delete semantics for the
// single row identified by its primary key.
func Delete(ctx context.Context, resolver *connection.Resolver, m Model) error {
	b := m.Base()
	meta := b.meta
	meta.boot(m)

	if !fireCancelable(meta, m, func(o Observer) func(Model) bool { return o.Deleting }) {
		return nil
	}

	q, err := NewQuery(resolver, m)
	if err != nil {
		return err
	}
	q.B.Where(meta.PrimaryKey, "=", b.attributes[meta.PrimaryKey])
	if _, err := q.Delete(ctx); err != nil {
		return err
	}
	b.exists = false

	fireVoid(meta, m, func(o Observer) func(Model) { return o.Deleted })
	return nil
}

// fill applies mass assignment per spec §4.4: keys are filtered to
// fillable (if set) and guarded (if set) is subtracted, with guarded
// winning a conflict; fillable == ["*"] disables filtering.
func fill(m Model, values map[string]any) {
	meta := m.Base().meta
	allowAll := len(meta.Fillable) == 1 && meta.Fillable[0] == "*"
	fillableSet := toSet(meta.Fillable)
	guardedSet := toSet(meta.Guarded)

	for k, v := range values {
		if !allowAll && len(meta.Fillable) > 0 && !fillableSet[k] {
			continue
		}
		if guardedSet[k] {
			continue
		}
		m.Base().Set(m, k, v)
	}
}

func toSet(items []string) map[string]bool {
	set := map[string]bool{}
	for _, it := range items {
		set[it] = true
	}
	return set
}
