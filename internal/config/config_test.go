package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oaerrors "github.com/felixgeelhaar/oactl/internal/errors"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoadOptions{
		Path:      filepath.Join(dir, "config.yaml"),
		EnvFile:   filepath.Join(dir, ".env"),
		LookupEnv: env(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	envFile := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(path, []byte(`api_url: http://file:8000
timeout: 3s
storage:
  backend: sqlite
log:
  level: info
output:
  format: json
`), 0o600))
	require.NoError(t, os.WriteFile(envFile, []byte("OA_API_URL=http://dotenv:8000\nOA_TIMEOUT=2500\nOA_STORAGE_PATH=/tmp/s.db\n"), 0o600))

	cfg, err := Load(LoadOptions{
		Path:      path,
		EnvFile:   envFile,
		LookupEnv: env(map[string]string{EnvAPIURL: "https://env.example.com", EnvLogLevel: "debug"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/s.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoadRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0o600))

	_, err := Load(LoadOptions{Path: path, EnvFile: filepath.Join(dir, ".env"), LookupEnv: env(nil)})
	require.Error(t, err)
	assert.True(t, oaerrors.IsKind(err, oaerrors.KindConfig))
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(LoadOptions{
		Path:      filepath.Join(dir, "config.yaml"),
		EnvFile:   filepath.Join(dir, ".env"),
		LookupEnv: env(map[string]string{EnvTimeout: "soon"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad url", func(c *Config) { c.APIURL = "localhost" }, "api_url"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"encrypt without passphrase", func(c *Config) { c.Storage.Encrypt = true }, "OA_PASSPHRASE"},
		{"format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStorageOptions(t *testing.T) {
	cfg := Default()
	cfg.Storage.Passphrase = "s3cret"
	assert.Empty(t, cfg.StorageOptions().Passphrase)

	cfg.Storage.Encrypt = true
	assert.Equal(t, "s3cret", cfg.StorageOptions().Passphrase)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("timeout", "10s"))
	v, err := cfg.Get("timeout")
	require.NoError(t, err)
	assert.Equal(t, "10s", v)

	require.NoError(t, cfg.Set("output.format", "yaml"))
	assert.Equal(t, FormatYAML, cfg.Output.Format)

	err = cfg.Set("output.format", "xml")
	require.Error(t, err)
	assert.Equal(t, FormatYAML, cfg.Output.Format)

	err = cfg.Set("storage.encrypt", "maybe")
	require.Error(t, err)

	_, err = cfg.Get("providers.default")
	require.Error(t, err)
	oaErr, ok := oaerrors.As(err)
	require.True(t, ok)
	assert.Contains(t, oaErr.Suggestions, "api_url")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.APIURL = "https://oa.example.com"
	cfg.Timeout = 8 * time.Second
	cfg.Storage.Passphrase = "never written"

	require.NoError(t, Save(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 8s")
	assert.NotContains(t, string(data), "never written")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://oa.example.com", got.APIURL)
	assert.Equal(t, 8*time.Second, got.Timeout)
}
