// Package config loads weeklit settings.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables (a .env file in the working directory is read
// first), then command-line flags applied by the caller.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/weeklit/internal/calendar"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/logger"
)

// Environment is the deployment type.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

const fileName = "config.yaml"

type Config struct {
	Environment Environment    `yaml:"environment"`
	Timezone    string         `yaml:"timezone"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	Log         LogConfig      `yaml:"log"`
	Backup      BackupConfig   `yaml:"backup"`

	// source is the file the config was read from, if any.
	source string
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	BasePath        string        `yaml:"basePath"`
	FrontendURL     string        `yaml:"frontendURL"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or mongo.
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// URL is the postgres or mongo connection string. Postgres URLs must not
	// carry a password here.
	URL string `yaml:"url"`
	// Name is the mongo database name.
	Name string `yaml:"name"`

	fromEnv bool
}

type ScheduleConfig struct {
	Enabled bool          `yaml:"enabled"`
	Offset  time.Duration `yaml:"offset"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

type BackupConfig struct {
	// Enabled takes a SQLite backup before every weekly rollover.
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in settings.
func Default() *Config {
	dir := ExpandHome(constants.DefaultConfigDir)
	return &Config{
		Environment: Development,
		Timezone:    constants.DefaultTimezone,
		Server: ServerConfig{
			Addr:            constants.DefaultAddr,
			BasePath:        constants.DefaultBasePath,
			FrontendURL:     constants.DefaultFrontendURL,
			ReadTimeout:     constants.DefaultReadTimeout,
			WriteTimeout:    constants.DefaultWriteTimeout,
			ShutdownTimeout: constants.DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{
			Driver: constants.DriverSQLite,
			Path:   ExpandHome(constants.DefaultDBPath),
			Name:   constants.DefaultMongoDatabase,
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Offset:  constants.DefaultScheduleOffset,
		},
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Format: constants.DefaultLogFormat,
			Dir:    dir,
		},
		Backup: BackupConfig{Enabled: true},
	}
}

// Load builds the configuration. path may be empty, in which case
// WEEKLIT_CONFIG is consulted and then the default config directory. An
// explicitly named file must exist; the default one is optional.
func Load(path string) (*Config, error) {
	loadDotEnv()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(constants.EnvConfig); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(ExpandHome(constants.DefaultConfigDir), fileName)
		}
	}

	cfg := Default()
	if err := cfg.loadFile(ExpandHome(path)); err != nil {
		if explicit || !stderrors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to read .env file", "error", err)
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.source = path
	return nil
}

// Source returns the file the configuration was read from, or "".
func (c *Config) Source() string {
	return c.source
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(constants.EnvTimezone, &c.Timezone)
	str(constants.EnvAddr, &c.Server.Addr)
	if port, ok := lookup(constants.EnvPort); ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid %s %q: %w", constants.EnvPort, port, err)
		}
		c.Server.Addr = ":" + port
	}
	str(constants.EnvFrontendURL, &c.Server.FrontendURL)

	str(constants.EnvDBDriver, &c.Database.Driver)
	str(constants.EnvDBPath, &c.Database.Path)
	str(constants.EnvDBName, &c.Database.Name)
	if v, ok := lookup(constants.EnvMongoURI); ok && v != "" {
		c.Database.Driver = constants.DriverMongo
		c.Database.URL = v
		c.Database.fromEnv = true
	}
	if v, ok := lookup(constants.EnvDBConnection); ok && v != "" {
		c.Database.URL = v
		c.Database.fromEnv = true
	}

	str(constants.EnvLogLevel, &c.Log.Level)
	str(constants.EnvLogFormat, &c.Log.Format)
	return nil
}

func (c *Config) expandPaths() {
	c.Database.Path = ExpandHome(c.Database.Path)
	c.Log.Dir = ExpandHome(c.Log.Dir)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Production:
	default:
		return fmt.Errorf("invalid environment %q (expected development or production)", c.Environment)
	}
	if _, err := calendar.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	switch c.Database.Driver {
	case constants.DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case constants.DriverPostgres, constants.DriverMongo:
	default:
		return fmt.Errorf("unknown database driver %q (expected sqlite, postgres or mongo)", c.Database.Driver)
	}

	if c.Schedule.Offset < 0 || c.Schedule.Offset >= 24*time.Hour {
		return fmt.Errorf("schedule.offset must be between 0 and 24h, got %s", c.Schedule.Offset)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts cannot be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Location returns the anchor time zone.
func (c *Config) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Timezone)
}

// Dir is where logs, the pid file and (for SQLite) backups live.
func (c *Config) Dir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return filepath.Dir(c.Database.Path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
