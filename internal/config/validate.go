package config

import (
	"fmt"
	"strings"
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "file", "sqlite", "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be file, sqlite, postgres or memory (got %q)", c.Storage.Driver)
	}

	if strings.TrimSpace(c.Storage.Slot) == "" {
		return fmt.Errorf("storage.slot must not be empty")
	}
	if strings.ContainsAny(c.Storage.Slot, `/\`) {
		return fmt.Errorf("storage.slot must be a plain name (got %q)", c.Storage.Slot)
	}

	if c.Backup.Interval < 0 {
		return fmt.Errorf("backup.interval must be >= 0 (got %s)", c.Backup.Interval)
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("backup.keep must be >= 0 (got %d)", c.Backup.Keep)
	}

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range (got %d)", c.HTTP.Port)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}

	return nil
}
