package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"trainics/internal/format"
)

// JourneyConfig points at the journey to convert. File wins over URL.
type JourneyConfig struct {
	// File is a path to hafas-client / db-rest journey JSON.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	// URL returns journey JSON, e.g. a db-rest /journeys/:ref endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP surface.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" validate:"required"`
	Password string `yaml:"password" json:"password" validate:"required"`
}

// MaxDepartureTZOffset is the largest accepted timezone correction in
// either direction, in minutes.
const MaxDepartureTZOffset = 1440

// ValidDepartureTZOffset reports whether minutes is within
// ±MaxDepartureTZOffset.
func ValidDepartureTZOffset(minutes int) bool {
	return minutes >= -MaxDepartureTZOffset && minutes <= MaxDepartureTZOffset
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `serve`.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// Timezone is the IANA zone every event is written in.
	Timezone string `yaml:"timezone" json:"timezone" validate:"required,timezone"`

	// DepartureTZOffset corrects upstream timestamps, in minutes. It is
	// subtracted from leg departure/arrival and stopover clock times.
	// Bounded by MaxDepartureTZOffset.
	DepartureTZOffset int `yaml:"departure_tz_offset" json:"departure_tz_offset" validate:"gte=-1440,lte=1440"`

	// Links toggles the deep links appended to event descriptions.
	Links format.Links `yaml:"links" json:"links"`

	Journey JourneyConfig `yaml:"journey" json:"journey"`

	// CacheDir stores fetched journey bodies and their HTTP cache metadata.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" validate:"required"`

	// Output is the .ics path written by `convert` and `watch`. Empty means stdout.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// RefreshCron is a cron-style schedule (e.g. "*/5 * * * *") for `watch`.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// BasicAuth, if non-nil, protects everything except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Europe/Berlin",
		DepartureTZOffset: 0,
		Links:             format.Links{},
		CacheDir:          "./var/journey-cache",
		RefreshCron:       "*/5 * * * *",
		LogLevel:          "info",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = def.LogLevel
	}
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Journey.File != "" && c.Journey.URL != "" {
		return errors.New("config: journey.file and journey.url are mutually exclusive")
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".trainics-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
