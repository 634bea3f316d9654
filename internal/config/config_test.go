package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eternal/internal/proposal"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eternal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "eternal.db", cfg.Database)
	assert.Equal(t, proposal.ThemeClassic, cfg.Theme())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.IsType(t, proposal.RandomGenerator{}, cfg.IDGenerator())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/eternal/story.db
id_scheme: legacy
log_level: debug
default_theme: ethereal
`)

	cfg, err := Load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/eternal/story.db", cfg.Database)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, proposal.ThemeEthereal, cfg.Theme())
	assert.IsType(t, proposal.LegacyGenerator{}, cfg.IDGenerator())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "default_theme: modern\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "eternal.db", cfg.Database)
	assert.Equal(t, IDSchemeRandom, cfg.IDScheme)
	assert.Equal(t, proposal.ThemeModern, cfg.Theme())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "database: file.db\nlog_level: error\n")

	cfg, err := Load(path, env(map[string]string{
		EnvDatabase: "env.db",
		EnvLogLevel: "warn",
	}))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{"unknown key", "databse: x.db\n", nil, "field databse not found"},
		{"bad id scheme", "id_scheme: sequential\n", nil, "id_scheme"},
		{"bad log level", "log_level: loud\n", nil, "log_level"},
		{"bad theme", "default_theme: neon\n", nil, "default_theme"},
		{"empty database", "database: \"  \"\n", nil, "database is required"},
		{"bad env level", "", map[string]string{EnvLogLevel: "trace"}, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_WrapsErrInvalid(t *testing.T) {
	cfg := Default()
	cfg.IDScheme = "uuid7"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalid)
}
