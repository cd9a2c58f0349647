// Package config resolves hivekeep settings from flags, environment,
// an optional YAML config file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/hivekeep/internal/apiary"
)

// EnvPrefix prefixes every environment override, e.g. HIVEKEEP_DB.
const EnvPrefix = "HIVEKEEP"

// Setting keys.
const (
	KeyDB              = "db"
	KeyLogLevel        = "log_level"
	KeyFormat          = "format"
	KeyDefaultSize     = "default_box.size"
	KeyDefaultCapacity = "default_box.capacity"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config is the resolved configuration.
type Config struct {
	DB         string     `mapstructure:"db"`
	LogLevel   string     `mapstructure:"log_level"`
	Format     string     `mapstructure:"format"`
	DefaultBox DefaultBox `mapstructure:"default_box"`

	// File is the config file that was read, or "" when none was found.
	File string `mapstructure:"-"`
}

// DefaultBox is the size and capacity used when a command adds a box
// without naming them.
type DefaultBox struct {
	Size     string `mapstructure:"size"`
	Capacity int    `mapstructure:"capacity"`
}

// Dir returns the per-user configuration directory, ~/.config/hivekeep.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hivekeep"), nil
}

// Loader wraps a viper instance. Bind flags before calling Load.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment binding applied.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	dbPath := "hivekeep.db"
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, "hivekeep.db")
	}
	v.SetDefault(KeyDB, dbPath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyDefaultSize, string(apiary.SizeDeep))
	v.SetDefault(KeyDefaultCapacity, 10)
}

// BindFlag binds a setting key to a command-line flag. A flag that was set
// on the command line takes precedence over every other source.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag is nil", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Load reads the config file and returns the validated configuration.
//
// An explicit path must exist. Without one, config.yaml in Dir() is read
// when present and silently skipped otherwise.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			l.v.AddConfigPath(dir)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = l.v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("invalid config: db path is empty")
	}
	if !isValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !apiary.BoxSize(c.DefaultBox.Size).Valid() {
		return fmt.Errorf("invalid config: default box size %q must be deep or medium", c.DefaultBox.Size)
	}
	if c.DefaultBox.Capacity <= 0 {
		return fmt.Errorf("invalid config: default box capacity must be positive, got %d", c.DefaultBox.Capacity)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
