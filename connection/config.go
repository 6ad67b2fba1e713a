// Package connection manages named database connections: pooled driver
// handles, URL-based configuration, nested transactions and query logging.
package connection

import "log/slog"

// Config holds everything needed to open and describe one named connection
// (spec §4.3). Fields mirror the distilled config map one-to-one.
type Config struct {
	Driver   string // "mysql", "postgres", "sqlite", "mssql"
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Options  map[string]string
	Schema   string // postgres search_path / mssql schema, optional
	Prefix   string // table name prefix, optional

	LogQueries bool
	Logger     *slog.Logger // defaults to logging.ProdLogger when nil
}

// dialectName normalizes the handful of accepted spellings for a driver
// name to the canonical one used by query/grammar.
func dialectName(driver string) string {
	switch driver {
	case "postgresql":
		return "postgres"
	case "sqlserver":
		return "mssql"
	default:
		return driver
	}
}
