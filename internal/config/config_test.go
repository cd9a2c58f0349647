package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the home directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"DB", "LOG_LEVEL", "FORMAT", "DEFAULT_BOX_SIZE", "DEFAULT_BOX_CAPACITY"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "hivekeep", "hivekeep.db"), cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "deep", cfg.DefaultBox.Size)
	assert.Equal(t, 10, cfg.DefaultBox.Capacity)
	assert.Empty(t, cfg.File)
}

func TestLoad_DefaultConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".config", "hivekeep", "config.yaml")
	writeFile(t, path, `
format: json
default_box:
  size: medium
  capacity: 8
`)

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "medium", cfg.DefaultBox.Size)
	assert.Equal(t, 8, cfg.DefaultBox.Capacity)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "apiary.yaml")
	writeFile(t, path, `
db: /var/lib/bees.db
log_level: debug
`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bees.db", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	dir := isolate(t)

	_, err := NewLoader().Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".config", "hivekeep", "config.yaml"), `
format: text
default_box:
  capacity: 8
`)
	t.Setenv("HIVEKEEP_FORMAT", "json")
	t.Setenv("HIVEKEEP_DEFAULT_BOX_CAPACITY", "12")

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 12, cfg.DefaultBox.Capacity)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("HIVEKEEP_DB", "/from/env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "database path")
	flags.String("format", "text", "output format")
	require.NoError(t, flags.Parse([]string{"--db", "/from/flag.db"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag(KeyDB, flags.Lookup("db")))
	require.NoError(t, l.BindFlag(KeyFormat, flags.Lookup("format")))

	cfg, err := l.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/from/flag.db", cfg.DB)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoader_BindFlagNil(t *testing.T) {
	err := NewLoader().BindFlag(KeyDB, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag is nil")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"format", map[string]string{"HIVEKEEP_FORMAT": "xml"}, `invalid format "xml"`},
		{"log level", map[string]string{"HIVEKEEP_LOG_LEVEL": "loud"}, `invalid log level "loud"`},
		{"box size", map[string]string{"HIVEKEEP_DEFAULT_BOX_SIZE": "shallow"}, `default box size "shallow"`},
		{"box capacity", map[string]string{"HIVEKEEP_DEFAULT_BOX_CAPACITY": "0"}, "capacity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewLoader().Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("")
	assert.Error(t, err)
}
