package config

import (
	"sort"
	"strconv"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

type accessor struct {
	get func(*Config) string
	set func(*Config, string) error
}

var accessors = map[string]accessor{
	"api_url": {
		get: func(c *Config) string { return c.APIURL },
		set: func(c *Config, v string) error { c.APIURL = v; return nil },
	},
	"timeout": {
		get: func(c *Config) string { return c.Timeout.String() },
		set: func(c *Config, v string) error {
			d, err := parseTimeout(v)
			if err != nil {
				return invalid("timeout: %v", err)
			}
			c.Timeout = d
			return nil
		},
	},
	"storage.backend": {
		get: func(c *Config) string { return c.Storage.Backend },
		set: func(c *Config, v string) error { c.Storage.Backend = v; return nil },
	},
	"storage.path": {
		get: func(c *Config) string { return c.Storage.Path },
		set: func(c *Config, v string) error { c.Storage.Path = v; return nil },
	},
	"storage.encrypt": {
		get: func(c *Config) string { return strconv.FormatBool(c.Storage.Encrypt) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalid("storage.encrypt must be true or false, got %q", v)
			}
			c.Storage.Encrypt = b
			return nil
		},
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error { c.Log.Level = v; return nil },
	},
	"log.format": {
		get: func(c *Config) string { return c.Log.Format },
		set: func(c *Config, v string) error { c.Log.Format = v; return nil },
	},
	"output.format": {
		get: func(c *Config) string { return c.Output.Format },
		set: func(c *Config, v string) error { c.Output.Format = v; return nil },
	},
}

// Keys lists the settable keys in dot notation.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key.
func (c *Config) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", unknownKey(key)
	}
	return a.get(c), nil
}

// Set assigns key and validates the result. On failure c is unchanged.
func (c *Config) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return unknownKey(key)
	}
	next := *c
	if err := a.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func unknownKey(key string) error {
	return errors.Newf(errors.ErrCodeConfigInvalid, "unknown configuration key: %s", key).
		WithSuggestions(Keys()...)
}
