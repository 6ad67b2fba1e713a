package migration

// Schema is the facade migration files build against (spec §6 "files
// declare a class with up()/down() methods using a Schema facade"). Each
// call records one Blueprint; Blueprints returns them in call order.
type Schema struct {
	blueprints []*Blueprint
}

// Create opens a new table in create mode and hands fn the Blueprint to
// populate.
func (s *Schema) Create(table string, fn func(*Blueprint)) {
	bp := newBlueprint(table, ModeCreate)
	fn(bp)
	s.blueprints = append(s.blueprints, bp)
}

// Table opens an existing table in alter mode.
func (s *Schema) Table(table string, fn func(*Blueprint)) {
	bp := newBlueprint(table, ModeAlter)
	fn(bp)
	s.blueprints = append(s.blueprints, bp)
}

// Drop drops a table unconditionally.
func (s *Schema) Drop(table string) {
	s.blueprints = append(s.blueprints, &Blueprint{Table: table, Mode: ModeDrop})
}

// DropIfExists drops a table only if it exists.
func (s *Schema) DropIfExists(table string) {
	s.blueprints = append(s.blueprints, &Blueprint{Table: table, Mode: ModeDrop, IfExists: true})
}

// Blueprints returns the recorded operations in call order.
func (s *Schema) Blueprints() []*Blueprint { return s.blueprints }

// Migration is implemented by every migration file (spec §6). Name is the
// lexicographically-sortable filename stem (spec §4.6 "in lexicographic
// filename order"); Up/Down populate a fresh Schema with the forward and
// reverse operations respectively.
type Migration interface {
	Name() string
	Up(s *Schema)
	Down(s *Schema)
}

// Func adapts two plain functions into a Migration, for migrations that
// don't need their own named type.
type Func struct {
	MigrationName string
	UpFn, DownFn  func(s *Schema)
}

func (f Func) Name() string    { return f.MigrationName }
func (f Func) Up(s *Schema)    { f.UpFn(s) }
func (f Func) Down(s *Schema)  { f.DownFn(s) }
