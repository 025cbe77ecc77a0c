package auth

import (
	"testing"
	"time"

	"call-analytics/internal/config"
)

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "secret",
		JWTIssuer:      "issuer",
		JWTAudience:    "aud",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "user@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyUsesCallerClockNotWallClock(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: 15 * time.Minute})
	// Issued years in the past, so the token is long expired in real time.
	// Verification at a matching instant must still succeed.
	issued := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	tok, err := m.Issue(issued, "u", "u@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, issued.Add(5*time.Minute)); err != nil {
		t.Fatalf("verify with caller clock: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "u", "u@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute})
	other, _ := NewManager(config.AuthConfig{JWTSecret: "different", AccessTokenTTL: time.Minute})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := other.Issue(now, "u", "u@example.com", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected signature error")
	}
}
