// Package config resolves oactl settings from defaults, the config file,
// a .env file, and the environment, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/storage"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the resolved oactl configuration.
type Config struct {
	APIURL  string        `yaml:"api_url" json:"api_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// StorageConfig selects the durable session backend.
type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Encrypt bool   `yaml:"encrypt,omitempty" json:"encrypt,omitempty"`
	// Passphrase only comes from the environment and is never written back.
	Passphrase string `yaml:"-" json:"-"`
}

// LogConfig is passed to log.ConfigFromFlags.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:  httpclient.DefaultBaseURL,
		Timeout: httpclient.DefaultTimeout,
		Storage: StorageConfig{Backend: storage.BackendFile},
		Log:     LogConfig{Level: "warn", Format: "text"},
		Output:  OutputConfig{Format: FormatText},
	}
}

// DefaultPath is ~/.oactl/config.yaml.
func DefaultPath() string {
	return storage.DefaultPath("config.yaml")
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	opts := storage.Options{Backend: c.Storage.Backend, Path: c.Storage.Path}
	if c.Storage.Encrypt {
		opts.Passphrase = c.Storage.Passphrase
	}
	return opts
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("api_url must be an http or https URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return invalid("timeout must be positive, got %s", c.Timeout)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return invalid("storage.backend must be file, sqlite or memory, got %q", c.Storage.Backend)
	}
	if c.Storage.Encrypt && c.Storage.Passphrase == "" {
		return invalid("storage.encrypt is set but OA_PASSPHRASE is empty").
			WithSuggestion("export OA_PASSPHRASE or run: oactl config set storage.encrypt false")
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return invalid("output.format must be text, json or yaml, got %q", c.Output.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

func invalid(format string, args ...any) *errors.OAError {
	return errors.Newf(errors.ErrCodeConfigInvalid, format, args...)
}

// ReadFile overlays the YAML file at path onto the defaults. A missing file
// yields the defaults.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigIO, "failed to read config", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s", path), err).
			WithSuggestion("fix the file or remove it to fall back to defaults")
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigIO, "failed to marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeConfigIO, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeConfigIO, "failed to write config", err)
	}
	return nil
}
