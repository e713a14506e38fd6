package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points user config and the working directory at empty temp dirs
// and clears PRIOTODO_* variables.
func isolate(t *testing.T) (userDir, workDir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, k := range []string{
		"PRIOTODO_HOST", "PRIOTODO_PORT", "PRIOTODO_BACKEND", "PRIOTODO_LOG_LEVEL",
		"PRIOTODO_LOG_FORMAT", "PRIOTODO_SERVER_URL", "PRIOTODO_THEME",
	} {
		t.Setenv(k, "")
	}
	workDir = t.TempDir()
	chdir(t, workDir)

	userDir, err := os.UserConfigDir()
	require.NoError(t, err)
	return filepath.Join(userDir, AppName), workDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":3001", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	userDir, workDir := isolate(t)

	writeFile(t, filepath.Join(userDir, "priotodo.toml"), `
[server]
port = 4000
backend = "sqlite"

[ui]
theme = "mono"
`)
	writeFile(t, filepath.Join(workDir, "priotodo.toml"), `
[server]
port = 5000
`)
	explicit := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, explicit, `
[log]
level = "debug"

[client]
timeout = "250ms"
`)
	t.Setenv("PRIOTODO_LOG_LEVEL", "warn")

	cfg, err := Load(explicit)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port, "project file overrides user file")
	assert.Equal(t, BackendSQLite, cfg.Server.Backend, "user file value survives")
	assert.Equal(t, "mono", cfg.UI.Theme)
	assert.Equal(t, "warn", cfg.Log.Level, "env overrides files")
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Timeout.Duration)
}

func TestLoad_HiddenProjectFile(t *testing.T) {
	_, workDir := isolate(t)
	writeFile(t, filepath.Join(workDir, ".priotodo.toml"), "[server]\nhost = \"127.0.0.1\"\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3001", cfg.Server.Addr())
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("PRIOTODO_PORT", "8081")
	t.Setenv("PRIOTODO_BACKEND", "sqlite")
	t.Setenv("PRIOTODO_SERVER_URL", "http://todo.internal:8081")
	t.Setenv("PRIOTODO_THEME", "mono")
	t.Setenv("PRIOTODO_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Server.Backend)
	assert.Equal(t, "http://todo.internal:8081", cfg.Client.URL)
	assert.Equal(t, "mono", cfg.UI.Theme)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad env port", func(t *testing.T) {
		isolate(t)
		t.Setenv("PRIOTODO_PORT", "eighty")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PRIOTODO_PORT")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		isolate(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		isolate(t)
		p := filepath.Join(t.TempDir(), "bad.toml")
		writeFile(t, p, "[server]\nprot = 1\n")
		_, err := Load(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.prot")
	})

	t.Run("bad duration", func(t *testing.T) {
		isolate(t)
		p := filepath.Join(t.TempDir(), "bad.toml")
		writeFile(t, p, "[client]\ntimeout = \"soon\"\n")
		_, err := Load(p)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Server.Backend = "postgres"
	cfg.Server.ShutdownTimeout = Duration{}
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "server.backend", "shutdown_timeout", "ui.theme"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_ClientURLNotChecked(t *testing.T) {
	for _, u := range []string{"localhost:3001", "todo.internal", ""} {
		cfg := Default()
		cfg.Client.URL = u
		assert.NoError(t, cfg.Validate(), u)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	example, err := filepath.Abs(filepath.Join("..", "..", "priotodo.example.toml"))
	require.NoError(t, err)
	isolate(t)

	cfg, err := Load(example)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
