package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Environment variables read by Load.
const (
	EnvAPIURL      = "OA_API_URL"
	EnvTimeout     = "OA_TIMEOUT"
	EnvStorage     = "OA_STORAGE"
	EnvStoragePath = "OA_STORAGE_PATH"
	EnvPassphrase  = "OA_PASSPHRASE"
	EnvLogLevel    = "OA_LOG_LEVEL"
)

// LoadOptions locates the inputs of Load.
type LoadOptions struct {
	// Path of the YAML file. Defaults to DefaultPath().
	Path string
	// EnvFile is read with godotenv when present. Defaults to ".env".
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration. Values from the process environment win
// over the same keys in the .env file. Flags are applied by the caller.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath()
	}
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg, err := ReadFile(opts.Path)
	if err != nil {
		return nil, err
	}

	dotenv, err := godotenv.Read(opts.EnvFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to read "+opts.EnvFile, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return invalid("%s: %v", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookup(EnvStorage); ok && v != "" {
		cfg.Storage.Backend = v
	}
	if v, ok := lookup(EnvStoragePath); ok && v != "" {
		cfg.Storage.Path = v
	}
	if v, ok := lookup(EnvPassphrase); ok {
		cfg.Storage.Passphrase = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// parseTimeout accepts a Go duration or a bare number of milliseconds.
func parseTimeout(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
