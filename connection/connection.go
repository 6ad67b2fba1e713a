package connection

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/ormforge/ormforge/logging"
	"github.com/ormforge/ormforge/query"
)

// Connection is one pooled, named database handle. It implements
// query.Executor so a query.Builder can dispatch through it without the
// query package importing database/sql itself.
type Connection struct {
	name   string
	cfg    *Config
	dsn    string
	db     *sql.DB
	logger *slog.Logger

	depth int // current transaction nesting depth; 0 == no transaction
	tx    *sql.Tx
}

// Open creates a Connection for name from cfg without eagerly dialing; the
// pool dials lazily on first use, matching database/sql's own semantics.
func Open(name string, cfg *Config) (*Connection, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dataSourceName, err := dsn(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.ProdLogger
	}

	return &Connection{
		name:   name,
		cfg:    cfg,
		dsn:    dataSourceName,
		db:     db,
		logger: logging.QueryLogger(logger, name),
	}, nil
}

// Name returns the connection's registered name.
func (c *Connection) Name() string { return c.name }

// Dialect returns the normalized dialect name ("mysql"/"postgres"/"sqlite"/"mssql").
func (c *Connection) Dialect() string { return dialectName(c.cfg.Driver) }

// Close releases the pool's underlying resources.
func (c *Connection) Close() error { return c.db.Close() }

// querier abstracts over *sql.DB and *sql.Tx so statement/query execution
// goes through whichever is active.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *Connection) active() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (c *Connection) logQuery(sqlStr string, bindings []any) {
	if c.cfg.LogQueries {
		c.logger.Debug("query", "sql", sqlStr, "bindings", bindings)
	}
}

// Query implements query.Executor: logging happens after bindings are fixed
// but before the call reaches the driver, so a failing statement is still
// logged (spec §4.3).
func (c *Connection) Query(ctx context.Context, sqlStr string, bindings []any) ([]query.Row, error) {
	c.logQuery(sqlStr, bindings)
	rows, err := c.active().QueryContext(ctx, sqlStr, bindings...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Exec implements query.Executor.
func (c *Connection) Exec(ctx context.Context, sqlStr string, bindings []any) (query.Result, error) {
	c.logQuery(sqlStr, bindings)
	res, err := c.active().ExecContext(ctx, sqlStr, bindings...)
	if err != nil {
		return query.Result{}, err
	}
	lastID, _ := res.LastInsertId()
	affected, _ := res.RowsAffected()
	return query.Result{LastInsertID: lastID, RowsAffected: affected}, nil
}

func scanRows(rows *sql.Rows) ([]query.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []query.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(query.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeScanned(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeScanned upgrades driver []byte values (common for TEXT/VARCHAR
// columns under database/sql's generic scan path) to strings.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Statement runs raw SQL with positional bindings directly, bypassing the
// query builder (spec §4.3 statement()).
func (c *Connection) Statement(ctx context.Context, sqlStr string, bindings []any) ([]query.Row, error) {
	return c.Query(ctx, sqlStr, bindings)
}

// Ping verifies the pool can reach the database.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// SetPoolLimits mirrors database/sql's pool tuning knobs.
func (c *Connection) SetPoolLimits(maxOpen, maxIdle int, maxLifetime time.Duration) {
	c.db.SetMaxOpenConns(maxOpen)
	c.db.SetMaxIdleConns(maxIdle)
	c.db.SetConnMaxLifetime(maxLifetime)
}
