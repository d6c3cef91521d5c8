package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type (
	// Config holds every tunable the platform recognizes. Defaults match
	// the values the rest of the system is documented against; each field
	// can be overridden by the environment variable of the same name.
	Config struct {
		BindAddr     string `koanf:"bind_addr"`
		DatabasePath string `koanf:"database_path"`

		MaxLoginAttempts  int           `koanf:"max_login_attempts"`
		LoginLockoutTime  time.Duration `koanf:"login_lockout_time"`
		SessionTimeout    time.Duration `koanf:"session_timeout"`
		PasswordMinLength int           `koanf:"password_min_length"`

		PostsPerPage    int `koanf:"posts_per_page"`
		SearchMinLength int `koanf:"search_min_length"`
	}
)

// knownEnvVars maps the recognized environment variables to config keys.
// Anything else in the environment is ignored.
var knownEnvVars = map[string]string{
	"BIND_ADDR":           "bind_addr",
	"DATABASE_PATH":       "database_path",
	"MAX_LOGIN_ATTEMPTS":  "max_login_attempts",
	"LOGIN_LOCKOUT_TIME":  "login_lockout_time",
	"SESSION_TIMEOUT":     "session_timeout",
	"PASSWORD_MIN_LENGTH": "password_min_length",
	"POSTS_PER_PAGE":      "posts_per_page",
	"SEARCH_MIN_LENGTH":   "search_min_length",
}

func Default() Config {
	return Config{
		BindAddr:          "localhost:8080",
		DatabasePath:      "inkwell.db",
		MaxLoginAttempts:  5,
		LoginLockoutTime:  15 * time.Minute,
		SessionTimeout:    time.Hour,
		PasswordMinLength: 8,
		PostsPerPage:      6,
		SearchMinLength:   3,
	}
}

// Load builds the effective configuration: struct defaults first, then
// overrides from the recognized environment variables.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("unable to load default config, cause %w", err)
	}
	if err := k.Load(env.Provider("", ".", func(name string) string {
		return knownEnvVars[name]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("unable to load config from environment, cause %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config, cause %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxLoginAttempts < 1 {
		return fmt.Errorf("config: max_login_attempts must be positive, got %v", c.MaxLoginAttempts)
	}
	if c.LoginLockoutTime <= 0 {
		return fmt.Errorf("config: login_lockout_time must be positive, got %v", c.LoginLockoutTime)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("config: session_timeout must be positive, got %v", c.SessionTimeout)
	}
	if c.PasswordMinLength < 1 {
		return fmt.Errorf("config: password_min_length must be positive, got %v", c.PasswordMinLength)
	}
	if c.PostsPerPage < 1 {
		return fmt.Errorf("config: posts_per_page must be positive, got %v", c.PostsPerPage)
	}
	if c.SearchMinLength < 1 {
		return fmt.Errorf("config: search_min_length must be positive, got %v", c.SearchMinLength)
	}
	return nil
}
