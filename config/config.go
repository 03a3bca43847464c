// Package config loads the dashboard configuration from an optional YAML
// file and applies SERVEX_* environment overrides on top. Absent values fall
// back to defaults; malformed values are errors.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL     = "http://localhost:5000"
	defaultRequestTimeout = 15 * time.Second
	defaultPersistTimeout = 30 * time.Second
	defaultStaffTTL       = 10 * time.Minute
)

// Config is the resolved runtime configuration.
type Config struct {
	APIBaseURL     string
	Token          string
	RequestTimeout time.Duration
	PersistTimeout time.Duration
	// StrictRollback reverts optimistic board mutations when the remote
	// write fails. The dashboard historically kept the optimistic value;
	// enabling this is a deliberate behavior change.
	StrictRollback bool
	Debug          bool
	Redis          RedisConfig
	Auth           AuthConfig
}

// RedisConfig enables the shared role-staff cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	StaffTTL time.Duration
}

// AuthConfig enables session token verification when JWKSURL is set.
type AuthConfig struct {
	JWKSURL  string
	Audience string
	Issuer   string
}

type fileConfig struct {
	APIBaseURL     string `yaml:"api_base_url"`
	Token          string `yaml:"token"`
	RequestTimeout string `yaml:"request_timeout"`
	PersistTimeout string `yaml:"persist_timeout"`
	StrictRollback bool   `yaml:"strict_rollback"`
	Debug          bool   `yaml:"debug"`
	Redis          struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		StaffTTL string `yaml:"staff_ttl"`
	} `yaml:"redis"`
	Auth struct {
		JWKSURL  string `yaml:"jwks_url"`
		Audience string `yaml:"audience"`
		Issuer   string `yaml:"issuer"`
	} `yaml:"auth"`
}

// Default returns the configuration used when no file and no overrides exist.
func Default() Config {
	return Config{
		APIBaseURL:     defaultAPIBaseURL,
		RequestTimeout: defaultRequestTimeout,
		PersistTimeout: defaultPersistTimeout,
		Redis:          RedisConfig{StaffTTL: defaultStaffTTL},
	}
}

// Load reads the YAML file at path when it exists and applies environment
// overrides. An empty path skips the file step entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			var fc fileConfig
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			if err := fc.apply(&cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("api base url must not be empty")
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if err := setDuration(&cfg.RequestTimeout, fc.RequestTimeout, "request_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.PersistTimeout, fc.PersistTimeout, "persist_timeout"); err != nil {
		return err
	}
	cfg.StrictRollback = cfg.StrictRollback || fc.StrictRollback
	cfg.Debug = cfg.Debug || fc.Debug
	if fc.Redis.Addr != "" {
		cfg.Redis.Addr = fc.Redis.Addr
	}
	if fc.Redis.Password != "" {
		cfg.Redis.Password = fc.Redis.Password
	}
	if err := setDuration(&cfg.Redis.StaffTTL, fc.Redis.StaffTTL, "redis.staff_ttl"); err != nil {
		return err
	}
	if fc.Auth.JWKSURL != "" {
		cfg.Auth.JWKSURL = fc.Auth.JWKSURL
	}
	if fc.Auth.Audience != "" {
		cfg.Auth.Audience = fc.Auth.Audience
	}
	if fc.Auth.Issuer != "" {
		cfg.Auth.Issuer = fc.Auth.Issuer
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SERVEX_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("SERVEX_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("SERVEX_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid SERVEX_REQUEST_TIMEOUT: %q", v)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("SERVEX_PERSIST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid SERVEX_PERSIST_TIMEOUT: %q", v)
		}
		cfg.PersistTimeout = d
	}
	if v := os.Getenv("SERVEX_STRICT_ROLLBACK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SERVEX_STRICT_ROLLBACK: %q", v)
		}
		cfg.StrictRollback = b
	}
	if v := os.Getenv("SERVEX_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SERVEX_DEBUG: %q", v)
		}
		cfg.Debug = b
	}
	if v := os.Getenv("SERVEX_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SERVEX_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERVEX_JWKS_URL"); v != "" {
		cfg.Auth.JWKSURL = v
	}
	if v := os.Getenv("SERVEX_JWT_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("SERVEX_JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	return nil
}

func setDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid %s: %q", field, raw)
	}
	*dst = d
	return nil
}
