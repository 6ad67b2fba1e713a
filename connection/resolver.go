package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/ormforge/ormforge/query"
	"github.com/ormforge/ormforge/query/grammar"
)

// Resolver holds every named connection's config, lazily opening and pooling
// the underlying handle on first use (spec §4.3).
type Resolver struct {
	mu          sync.Mutex
	configs     map[string]*Config
	open        map[string]*Connection
	defaultName string
}

// NewResolver returns an empty Resolver; Default() is "" until
// SetConnectionDetails registers connections.
func NewResolver() *Resolver {
	return &Resolver{
		configs: map[string]*Config{},
		open:    map[string]*Connection{},
	}
}

// SetConnectionDetails registers one or more named connections. The first
// call also establishes the default connection name.
func (r *Resolver) SetConnectionDetails(details map[string]*Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, cfg := range details {
		r.configs[name] = cfg
		if r.defaultName == "" {
			r.defaultName = name
		}
	}
}

// SetDefault changes which connection name GetConnection("") resolves to.
func (r *Resolver) SetDefault(name string) { r.defaultName = name }

// GetConnection returns the pooled handle for name (or the default
// connection when name is ""), opening it lazily.
func (r *Resolver) GetConnection(name string) (*Connection, error) {
	if name == "" {
		name = r.defaultName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.open[name]; ok {
		return conn, nil
	}
	cfg, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("connection: no configuration registered for %q", name)
	}
	conn, err := Open(name, cfg)
	if err != nil {
		return nil, err
	}
	r.open[name] = conn
	return conn, nil
}

// CompilerFor returns the query.Compiler appropriate for name's dialect.
func (r *Resolver) CompilerFor(name string) (query.Compiler, error) {
	conn, err := r.GetConnection(name)
	if err != nil {
		return nil, err
	}
	return dialectCompiler(conn.Dialect())
}

func dialectCompiler(dialect string) (query.Compiler, error) {
	switch dialect {
	case "mysql":
		return grammar.New(grammar.MySQL{}), nil
	case "postgres":
		return grammar.New(grammar.Postgres{}), nil
	case "sqlite":
		return grammar.New(grammar.SQLite{}), nil
	case "mssql":
		return grammar.New(grammar.MSSQL{}), nil
	default:
		return nil, fmt.Errorf("connection: unsupported dialect %q", dialect)
	}
}

// Table returns a query.Builder for table, wired to the named connection's
// executor and compiler (or the default connection when name is "").
func (r *Resolver) Table(name, table string) (*query.Builder, error) {
	conn, err := r.GetConnection(name)
	if err != nil {
		return nil, err
	}
	compiler, err := dialectCompiler(conn.Dialect())
	if err != nil {
		return nil, err
	}
	b := query.New(table).WithExecutor(conn).WithCompiler(compiler)
	if name != "" {
		b.Connection(name)
	}
	return b, nil
}

// Statement runs raw SQL against the named connection (spec §4.3 statement()).
func (r *Resolver) Statement(ctx context.Context, name, sqlStr string, bindings []any) ([]query.Row, error) {
	conn, err := r.GetConnection(name)
	if err != nil {
		return nil, err
	}
	return conn.Statement(ctx, sqlStr, bindings)
}

// BeginTransaction, Commit, Rollback and Transaction proxy to the named
// connection, defaulting to the Resolver's default connection.
func (r *Resolver) BeginTransaction(ctx context.Context, name string) error {
	conn, err := r.GetConnection(name)
	if err != nil {
		return err
	}
	return conn.BeginTransaction(ctx)
}

func (r *Resolver) Commit(ctx context.Context, name string) error {
	conn, err := r.GetConnection(name)
	if err != nil {
		return err
	}
	return conn.Commit(ctx)
}

func (r *Resolver) Rollback(ctx context.Context, name string) error {
	conn, err := r.GetConnection(name)
	if err != nil {
		return err
	}
	return conn.Rollback(ctx)
}

// Transaction runs fn inside a scoped transaction on the named connection,
// guaranteeing commit on normal exit and rollback on any failure from fn.
func (r *Resolver) Transaction(ctx context.Context, name string, fn func(*Connection) error) error {
	conn, err := r.GetConnection(name)
	if err != nil {
		return err
	}
	return conn.Transaction(ctx, fn)
}

// Close closes every opened connection.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, conn := range r.open {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
