// Package config loads contact-manager settings from YAML and the environment.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Backup  BackupConfig  `yaml:"backup"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the persistence slot holding the contact collection.
type StorageConfig struct {
	Driver      string `yaml:"driver"       env:"CONTACTS_STORAGE_DRIVER" env-default:"file"`
	DataDir     string `yaml:"data_dir"     env:"CONTACTS_DATA_DIR"`
	Slot        string `yaml:"slot"         env:"CONTACTS_SLOT"           env-default:"contacts"`
	PostgresDSN string `yaml:"postgres_dsn" env:"CONTACTS_POSTGRES_DSN"`
}

// BackupConfig controls snapshot backups. An Interval of zero disables
// automatic backups.
type BackupConfig struct {
	Dir        string        `yaml:"dir"        env:"CONTACTS_BACKUP_DIR"`
	Interval   time.Duration `yaml:"interval"   env:"CONTACTS_BACKUP_INTERVAL"   env-default:"24h"`
	Keep       int           `yaml:"keep"       env:"CONTACTS_BACKUP_KEEP"       env-default:"10"`
	Passphrase string        `yaml:"passphrase" env:"CONTACTS_BACKUP_PASSPHRASE"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host            string        `yaml:"host"             env:"CONTACTS_HTTP_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"CONTACTS_PORT"                  env-default:"7438"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"CONTACTS_HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"CONTACTS_HTTP_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"CONTACTS_HTTP_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CONTACTS_HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"CONTACTS_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"CONTACTS_LOG_FORMAT" env-default:"json"`
}

// DefaultDataDir is where contacts live when no data dir is configured.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".contact-manager")
}

// applyDefaults fills values that depend on other fields.
func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir()
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(c.Storage.DataDir, "backups")
	}
}
