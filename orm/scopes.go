package orm

import "github.com/google/uuid"

const softDeletesScopeName = "soft_deletes"
const uuidPrimaryKeyScopeName = "uuid_primary_key"

// InsertScope lets a global scope hook into insertion, the mechanism
// UUIDPrimaryKey uses to stamp a generated key before the row is written
// (spec §9 "each providing apply(builder) and optionally overriding
// perform_delete/perform_insert").
type InsertScope interface {
	BeforeInsert(m Model)
}

// SoftDeletes adds `WHERE <deleted_col> IS NULL` to every query and
// rewrites Delete into an UPDATE of that column (spec §4.4).
type SoftDeletes struct {
	Column string // defaults to "deleted_at"
}

func (s SoftDeletes) Name() string { return softDeletesScopeName }

func (s SoftDeletes) Apply(q *Query) {
	col := s.Column
	if col == "" {
		col = "deleted_at"
	}
	if q.onlyTrashed {
		return
	}
	q.B.WhereNull(col)
}

// RegisterSoftDeletes wires the SoftDeletes scope into meta, recording the
// deleted-at column name so Query.Delete/ForceDelete know to rewrite deletes.
func RegisterSoftDeletes(meta *Metadata, column string) {
	if column == "" {
		column = "deleted_at"
	}
	meta.DeletedAtColumn = column
	meta.GlobalScopes[softDeletesScopeName] = SoftDeletes{Column: column}
}

// UUIDPrimaryKeyVersion selects which UUID generator RegisterUUIDPrimaryKey
// installs.
type UUIDPrimaryKeyVersion int

const (
	UUIDv4 UUIDPrimaryKeyVersion = 4
	UUIDv5 UUIDPrimaryKeyVersion = 5
)

// UUIDPrimaryKey generates a UUID on insert when the primary key is unset
// (spec §4.4). v5 namespaced UUIDs hash NamespacedName within Namespace;
// every other Version value generates a random v4.
type UUIDPrimaryKey struct {
	PrimaryKey     string
	Version        UUIDPrimaryKeyVersion
	Namespace      uuid.UUID
	NamespacedName string // the "name" hashed with Namespace for v5
}

func (u UUIDPrimaryKey) Name() string { return uuidPrimaryKeyScopeName }
func (u UUIDPrimaryKey) Apply(*Query) {} // no query-time predicate; insert-time only

func (u UUIDPrimaryKey) BeforeInsert(m Model) {
	b := m.Base()
	pk := u.PrimaryKey
	if pk == "" {
		pk = b.meta.PrimaryKey
	}
	if existing, ok := b.attributes[pk]; ok && existing != nil && existing != "" {
		return
	}
	var id uuid.UUID
	switch u.Version {
	case UUIDv5:
		id = uuid.NewSHA1(u.Namespace, []byte(u.NamespacedName))
	default:
		id = uuid.New()
	}
	b.attributes[pk] = id.String()
}

// RegisterUUIDPrimaryKey wires the UUIDPrimaryKey scope into meta.
func RegisterUUIDPrimaryKey(meta *Metadata, version UUIDPrimaryKeyVersion) {
	meta.UUIDVersion = int(version)
	meta.GlobalScopes[uuidPrimaryKeyScopeName] = UUIDPrimaryKey{Version: version}
}
