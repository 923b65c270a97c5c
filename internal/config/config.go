package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App AppConfig
	DB  DBConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	// URL is the Postgres connection string. It may be empty: the dashboard
	// then runs in a degraded mode where every read returns an empty result
	// and every mutation reports "database not configured".
	URL string

	// Schema selects the namespace prefix applied to every unqualified table
	// reference. "public" (or empty) means no prefix; anything else prepends
	// "<schema>." to table names. Used for staging/production separation.
	Schema string

	// BreakerService is the circuit_breakers.service_name row surfaced on the
	// system-health page.
	BreakerService string
}

func Load() (Config, error) {
	c := Config{}

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}

	if port := strings.TrimSpace(os.Getenv("APP_PORT")); port == "" {
		c.App.Port = 3000
	} else {
		n, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PORT must be an integer, got %q", port)
		}
		c.App.Port = n
	}

	c.DB.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	c.DB.Schema = strings.TrimSpace(os.Getenv("DB_SCHEMA"))
	c.DB.BreakerService = strings.TrimSpace(os.Getenv("AI_BREAKER_SERVICE"))

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Schema == "" {
		c.DB.Schema = "public"
	}
	if !isValidSchemaName(c.DB.Schema) {
		errs = append(errs, fmt.Errorf("DB_SCHEMA must be a plain identifier, got %q", c.DB.Schema))
	}

	// DATABASE_URL is intentionally optional, even in production: the
	// dashboard fails open to empty pages rather than refusing to start.
	if c.DB.BreakerService == "" {
		c.DB.BreakerService = "claude_api"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// TablePrefix returns the string prepended to every unqualified table name.
func (c Config) TablePrefix() string {
	if c.DB.Schema == "" || c.DB.Schema == "public" {
		return ""
	}
	return c.DB.Schema + "."
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

// isValidSchemaName guards against the schema prefix injecting SQL: the value
// is interpolated into every query, so it must be a plain identifier.
func isValidSchemaName(v string) bool {
	for i, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(v) > 0
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
