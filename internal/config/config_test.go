package config

import "testing"

func TestValidate_DefaultsSchemaToPublic(t *testing.T) {
	c := Config{App: AppConfig{Env: "local", Port: 3000}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.Schema != "public" {
		t.Fatalf("expected schema public, got %q", c.DB.Schema)
	}
	if c.TablePrefix() != "" {
		t.Fatalf("expected empty prefix for public schema, got %q", c.TablePrefix())
	}
}

func TestValidate_RejectsBadEnv(t *testing.T) {
	c := Config{App: AppConfig{Env: "prod", Port: 3000}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error for APP_ENV=prod")
	}
}

func TestValidate_RejectsSchemaWithDots(t *testing.T) {
	c := Config{App: AppConfig{Env: "staging", Port: 3000}, DB: DBConfig{Schema: "test; DROP"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error for unsafe schema name")
	}
}

func TestTablePrefix_NonPublicSchema(t *testing.T) {
	c := Config{App: AppConfig{Env: "staging", Port: 3000}, DB: DBConfig{Schema: "test"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := c.TablePrefix(); got != "test." {
		t.Fatalf("expected prefix %q, got %q", "test.", got)
	}
}

func TestValidate_MissingDatabaseURLIsAllowed(t *testing.T) {
	// Fail-open: the process must start without a database and serve empty data.
	c := Config{App: AppConfig{Env: "production", Port: 8080}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error without DATABASE_URL, got %v", err)
	}
}

func TestValidate_DefaultsBreakerService(t *testing.T) {
	c := Config{App: AppConfig{Env: "local", Port: 3000}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.DB.BreakerService != "claude_api" {
		t.Fatalf("expected default breaker service, got %q", c.DB.BreakerService)
	}
}
