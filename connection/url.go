package connection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseURL parses a connection URL of the form
// driver://[user[:pw]@]host[:port]/database[?opt=val&...] into a Config.
// sqlite:// is special-cased: an empty path means an in-memory database
// (spec §4.3).
func ParseURL(raw string) (*Config, error) {
	if raw == "" {
		return nil, fmt.Errorf("connection: empty database URL")
	}

	if strings.HasPrefix(raw, "sqlite:") {
		return parseSQLiteURL(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("connection: invalid database URL: %w", err)
	}

	cfg := &Config{Options: map[string]string{}}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		cfg.Driver = "postgres"
	case "mysql":
		cfg.Driver = "mysql"
	case "sqlserver", "mssql":
		cfg.Driver = "mssql"
	default:
		return nil, fmt.Errorf("connection: unsupported URL scheme %q (supported: postgres, mysql, mssql, sqlite)", u.Scheme)
	}

	cfg.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("connection: invalid port %q: %w", p, err)
		}
		cfg.Port = port
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	cfg.Database = strings.TrimPrefix(u.Path, "/")

	for k, vs := range u.Query() {
		if len(vs) > 0 {
			cfg.Options[k] = vs[0]
		}
	}
	if schema, ok := cfg.Options["schema"]; ok {
		cfg.Schema = schema
		delete(cfg.Options, "schema")
	}

	return cfg, nil
}

// parseSQLiteURL handles sqlite:///abs/path.db, sqlite://rel/path.db and
// sqlite:rel/path.db; an empty resulting path means ":memory:".
func parseSQLiteURL(raw string) (*Config, error) {
	path := raw
	switch {
	case strings.HasPrefix(path, "sqlite:///"):
		path = path[len("sqlite://"):] // keep the leading slash for an absolute path
	case strings.HasPrefix(path, "sqlite://"):
		path = path[len("sqlite://"):]
	case strings.HasPrefix(path, "sqlite:"):
		path = path[len("sqlite:"):]
	}
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if path == "" {
		path = ":memory:"
	}
	return &Config{Driver: "sqlite", Database: path, Options: map[string]string{}}, nil
}
