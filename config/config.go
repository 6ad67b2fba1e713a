// Package config is the "configuration file discovery" collaborator spec §1
// names as an external shell around the core: it resolves named-connection
// details from an ini-style config file (grounded on the teacher's inifile
// package) or a DATABASE_URL-style environment variable (grounded on
// connection.ParseURL, which generalizes the teacher's dburl package) and
// feeds the result into connection.Resolver.SetConnectionDetails — the one
// registration entry point the core exposes (spec §1).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ormforge/ormforge/connection"
	"github.com/ormforge/ormforge/inifile"
)

// EnvConfigPath is the override named in spec §6: when set, Load reads the
// ini file at this path instead of the default "database.ini".
const EnvConfigPath = "DB_CONFIG_PATH"

// DefaultFile is the config file name Load looks for when DB_CONFIG_PATH is
// unset.
const DefaultFile = "database.ini"

// Load discovers connection details the way spec §6 describes: an ini file
// (DB_CONFIG_PATH, or DefaultFile in the working directory) supplies
// connection sections; a DATABASE_URL-shaped environment variable
// (urlEnvVar, e.g. "DATABASE_URL"), when set, is parsed into the connection
// named "default", adding it or replacing an ini section of that name.
// Returns the per-connection configs plus the default connection name.
func Load(urlEnvVar string) (map[string]*connection.Config, string, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultFile
	}

	configs := map[string]*connection.Config{}
	defaultName := ""

	if f, err := inifile.ParseFile(path); err == nil {
		configs, defaultName, err = fromINI(f)
		if err != nil {
			return nil, "", err
		}
	} else if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("config: reading %s: %w", path, err)
	}

	if urlEnvVar != "" {
		if raw := os.Getenv(urlEnvVar); raw != "" {
			cfg, err := connection.ParseURL(raw)
			if err != nil {
				return nil, "", fmt.Errorf("config: parsing %s: %w", urlEnvVar, err)
			}
			configs["default"] = cfg
			if defaultName == "" {
				defaultName = "default"
			}
		}
	}

	if len(configs) == 0 {
		return nil, "", fmt.Errorf("config: no connections configured (set %s or %s)", EnvConfigPath, urlEnvVar)
	}
	return configs, defaultName, nil
}

// fromINI builds one connection.Config per [connections.<name>] section; a
// top-level [database] section's "default" key names the default
// connection. Sections with any other name are ignored.
func fromINI(f *inifile.File) (map[string]*connection.Config, string, error) {
	configs := map[string]*connection.Config{}
	defaultName := f.Get("database", "default")

	for _, section := range f.SectionsWithPrefix("connections.") {
		name := section.Name[len("connections."):]
		cfg := &connection.Config{Options: map[string]string{}}
		cfg.Driver = section.Get("driver")
		cfg.Host = section.Get("host")
		cfg.Database = section.Get("database")
		cfg.User = section.Get("user")
		cfg.Password = section.Get("password")
		cfg.Schema = section.Get("schema")
		cfg.Prefix = section.Get("prefix")
		if v := section.Get("port"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return nil, "", fmt.Errorf("config: connection %q: invalid port %q: %w", name, v, err)
			}
			cfg.Port = port
		}
		cfg.LogQueries = section.Get("log_queries") == "true"
		configs[name] = cfg
	}

	if defaultName == "" && len(configs) == 1 {
		for name := range configs {
			defaultName = name
		}
	}
	return configs, defaultName, nil
}

// Apply registers configs into resolver and sets its default connection
// (spec §4.3 SetConnectionDetails / spec §6 top-level "default" key).
func Apply(resolver *connection.Resolver, configs map[string]*connection.Config, defaultName string) {
	resolver.SetConnectionDetails(configs)
	if defaultName != "" {
		resolver.SetDefault(defaultName)
	}
}
