package billing

import (
	"context"
	"errors"
	"testing"

	"call-analytics/internal/audit"
	"call-analytics/internal/config"
)

func TestService_RequiresAPIKey(t *testing.T) {
	svc := NewService(config.StripeConfig{}, audit.NewService(audit.NewMemoryRepo()))
	ctx := context.Background()

	if _, err := svc.CreateCustomer(ctx, "a", "admin", "x@example.com", "X", "pm_1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.Charge(ctx, "a", "admin", "cus_1", 500, "usd", "top-up"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := svc.CreateInvoice(ctx, "a", "admin", "cus_1", 500, "usd", "usage"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestService_ValidatesArguments(t *testing.T) {
	svc := NewService(config.StripeConfig{APIKey: "sk_test_x"}, nil)
	ctx := context.Background()

	if _, err := svc.CreateCustomer(ctx, "a", "admin", "", "X", "pm_1"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty email, got %v", err)
	}
	if _, err := svc.Charge(ctx, "a", "admin", "cus_1", 0, "usd", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero amount, got %v", err)
	}
	if _, err := svc.CreateInvoice(ctx, "a", "admin", "", 500, "usd", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty customer, got %v", err)
	}
}
