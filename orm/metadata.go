// Package orm implements the active-record model layer: metadata discovery,
// attribute hydration with dirty tracking, casts, mass assignment,
// serialization, lifecycle events and scopes.
package orm

import (
	"reflect"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
)

// CastKind names one of the built-in attribute casts.
type CastKind string

const (
	CastNone     CastKind = ""
	CastInt      CastKind = "int"
	CastBool     CastKind = "bool"
	CastJSON     CastKind = "json"
	CastDatetime CastKind = "datetime"
)

// GlobalScope is applied to every query built from a model unless opted out
// of via WithoutGlobalScope (spec §4.4).
type GlobalScope interface {
	Name() string
	Apply(q *Query)
}

// Metadata is the per-model-type configuration computed once and shared by
// every instance of that model (spec §3 "Model metadata").
type Metadata struct {
	TypeName    string
	Table       string
	PrimaryKey  string
	Connection  string
	Timezone    string
	Timestamps  bool
	Dates       []string
	Fillable    []string
	Guarded     []string
	Hidden      []string
	Visible     []string
	Appends     []string
	Casts       map[string]CastKind
	Selects     []string
	With        []string
	ForceUpdate bool

	DeletedAtColumn string // set by SoftDeletes
	UUIDVersion     int    // set by UUIDPrimaryKey; 0 means not in use

	GlobalScopes  map[string]GlobalScope
	Relationships map[string]Relationship
	LocalScopes   map[string]func(*Query, []any) *Query
	Accessors     map[string]func(Model) any
	Mutators      map[string]func(Model, any) any

	Observers []Observer

	booted bool
}

var (
	registryMu sync.RWMutex
	registry   = map[reflect.Type]*Metadata{}
)

// NewMetadata returns a Metadata with defaults filled in (pluralized snake
// case table name, "id" primary key, timestamps on) for typeName.
func NewMetadata(typeName string) *Metadata {
	return &Metadata{
		TypeName:      typeName,
		Table:         inflection.Plural(SnakeCase(typeName)),
		PrimaryKey:    "id",
		Timestamps:    true,
		Casts:         map[string]CastKind{},
		GlobalScopes:  map[string]GlobalScope{},
		Relationships: map[string]Relationship{},
		LocalScopes:   map[string]func(*Query, []any) *Query{},
		Accessors:     map[string]func(Model) any{},
		Mutators:      map[string]func(Model, any) any{},
	}
}

// Register associates sample's concrete type with meta. Call once per model
// type, typically from an init() func (spec §4.4 "register_relationships()
// ... invoked on first use of the class").
func Register(sample Model, meta *Metadata) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[modelType(sample)] = meta
}

func modelType(m Model) reflect.Type {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// MetadataOf returns the registered Metadata for m's concrete type.
func MetadataOf(m Model) *Metadata {
	registryMu.RLock()
	defer registryMu.RUnlock()
	meta, ok := registry[modelType(m)]
	if !ok {
		panic("orm: model type " + modelType(m).Name() + " was never registered with orm.Register")
	}
	return meta
}

// SnakeCase converts "UserProfile" to "user_profile" (spec §8 pluralization
// testable property).
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
