package orm

import (
	"github.com/jinzhu/inflection"
)

// Model is implemented by every concrete model struct, typically by
// embedding Base (whose Base() method is promoted) and assigning Metadata
// once via orm.Register in an init() func.
type Model interface {
	Base() *Base
}

// Base is the sidecar state every model struct embeds: the attribute map,
// the snapshot taken at hydration/last save, loaded relations, and
// existence/force-update flags (spec §3 "Model instance state").
type Base struct {
	meta        *Metadata
	attributes  map[string]any
	original    map[string]any
	relations   map[string]any
	exists      bool
	forceUpdate bool
	timestamps  *bool // per-instance ActivateTimestamps override; nil = use metadata default
}

// Base implements Model so embedding it promotes the method for free.
func (b *Base) Base() *Base { return b }

func (b *Base) ensureMaps() {
	if b.attributes == nil {
		b.attributes = map[string]any{}
	}
	if b.original == nil {
		b.original = map[string]any{}
	}
	if b.relations == nil {
		b.relations = map[string]any{}
	}
}

func newBase(meta *Metadata) *Base {
	return &Base{meta: meta, attributes: map[string]any{}, original: map[string]any{}, relations: map[string]any{}}
}

// Exists reports whether this instance was hydrated from (or saved to) the
// database, as opposed to freshly constructed.
func (b *Base) Exists() bool { return b.exists }

// Get implements the attribute read order from spec §4.4: accessor method,
// loaded relation, attributes map with cast applied. Lazy relationship
// triggering and appended computed attributes are handled by the higher-level
// helpers in model.go/serialize.go, which call Get for the attribute tier.
func (b *Base) Get(m Model, name string) any {
	b.ensureMaps()
	if fn, ok := b.meta.Accessors[name]; ok {
		return fn(m)
	}
	if rel, ok := b.relations[name]; ok {
		return rel
	}
	raw, ok := b.attributes[name]
	if !ok {
		return nil
	}
	kind := b.meta.Casts[name]
	return applyCastRead(kind, raw)
}

// Set implements the attribute write order from spec §4.4: mutator method,
// cast-aware coerce, store. Writing marks the model dirty (original is left
// untouched until the next successful save).
func (b *Base) Set(m Model, name string, value any) {
	b.ensureMaps()
	if fn, ok := b.meta.Mutators[name]; ok {
		value = fn(m, value)
	}
	kind := b.meta.Casts[name]
	b.attributes[name] = applyCastWrite(kind, value)
}

// GetOriginal returns the attribute's value as of the last hydrate/save.
func (b *Base) GetOriginal(name string) any {
	b.ensureMaps()
	raw, ok := b.original[name]
	if !ok {
		return nil
	}
	return applyCastRead(b.meta.Casts[name], raw)
}

// IsDirty reports whether any attribute differs from its original snapshot
// (spec §8 "Dirty law").
func (b *Base) IsDirty() bool {
	b.ensureMaps()
	for k, v := range b.attributes {
		if !valuesEqual(v, b.original[k]) {
			return true
		}
	}
	for k := range b.original {
		if _, ok := b.attributes[k]; !ok {
			return true
		}
	}
	return false
}

// DirtyColumns returns the set of attribute names that differ from original.
func (b *Base) DirtyColumns() map[string]any {
	b.ensureMaps()
	dirty := map[string]any{}
	for k, v := range b.attributes {
		if !valuesEqual(v, b.original[k]) {
			dirty[k] = v
		}
	}
	return dirty
}

// SyncOriginal snapshots attributes into original, clearing dirty state.
func (b *Base) SyncOriginal() {
	b.ensureMaps()
	b.original = map[string]any{}
	for k, v := range b.attributes {
		b.original[k] = v
	}
}

// ForceUpdate sets the per-instance override that makes update() emit SQL
// even with no dirty columns (spec §4.4 "force update").
func (b *Base) ForceUpdate(on bool) { b.forceUpdate = on }

// ActivateTimestamps overrides, for this instance's next save, whether
// updated_at is touched; nil (the zero value) defers to metadata.
func (b *Base) ActivateTimestamps(on bool) { b.timestamps = &on }

func valuesEqual(a, b any) bool {
	return toComparable(a) == toComparable(b)
}

// toComparable flattens values that would otherwise compare unequal by Go
// identity (e.g. distinct []byte copies of the same string) into a form
// usable with ==.
func toComparable(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return v
	}
}

// Singular returns the singular form of a plural table name (spec §8
// pluralization testable property, used for pivot-table naming).
func Singular(s string) string { return inflection.Singular(s) }

// hydrateRow constructs a new instance of the same type as sample, loads row
// into its attribute map and snapshots original (spec §4.4/§4.5 hydration).
func hydrateRow(meta *Metadata, sample Model, row map[string]any) Model {
	m := freshInstance(sample)
	b := m.Base()
	b.meta = meta
	b.ensureMaps()
	meta.boot(m)
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Hydrating })
	for k, v := range row {
		b.attributes[k] = v
	}
	b.SyncOriginal()
	b.exists = true
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Hydrated })
	return m
}
