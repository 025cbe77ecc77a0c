package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "dev", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "app", Name: "calls"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Source: SourceConfig{
			BaseURL: "https://api.example.com",
		},
		Alerts: AlertConfig{UsageThresholdHigh: 0.8, UsageThresholdCritical: 0.9},
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.App.PollSchedule != "*/9 * * * *" {
		t.Fatalf("expected default poll schedule, got %q", c.App.PollSchedule)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected local sslmode default, got %q", c.DB.SSLMode)
	}
	if c.Source.Timeout != 30*time.Second {
		t.Fatalf("expected default source timeout, got %v", c.Source.Timeout)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access TTL, got %v", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	c := validConfig()
	c.Alerts.UsageThresholdHigh = 0.9
	c.Alerts.UsageThresholdCritical = 0.8
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "USAGE_THRESHOLD_CRITICAL") {
		t.Fatalf("expected threshold ordering error, got %v", err)
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	c := validConfig()
	c.Alerts.UsageThresholdHigh = 1.5
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for threshold > 1")
	}
}

func TestValidate_ProductionRequiresExplicitSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	c.SMTP = SMTPConfig{Host: "smtp.example.com", FromEmail: "alerts@example.com"}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected sslmode error in production, got %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected errors for empty config")
	}
	if !strings.Contains(err.Error(), "APP_ENV") || !strings.Contains(err.Error(), "DB_HOST") {
		t.Fatalf("expected aggregated errors, got %v", err)
	}
}
