// Package billing wraps the payment provider for customer setup, one-off
// charges and invoicing. Amounts are integer cents; the float counters on the
// tenant record never reach the provider directly.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"call-analytics/internal/audit"
	"call-analytics/internal/config"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/invoiceitem"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

var (
	ErrNotConfigured   = errors.New("billing: stripe api key not configured")
	ErrInvalidArgument = errors.New("billing: invalid argument")
)

type Service struct {
	audit      *audit.Service
	configured bool
}

func NewService(cfg config.StripeConfig, auditSvc *audit.Service) *Service {
	if cfg.APIKey != "" {
		stripe.Key = cfg.APIKey
	}
	return &Service{audit: auditSvc, configured: cfg.APIKey != ""}
}

// CreateCustomer registers the tenant with the payment provider and attaches
// their payment method as the invoice default.
func (s *Service) CreateCustomer(ctx context.Context, actorID, actorRole, email, name, paymentMethodID string) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}
	if email == "" || paymentMethodID == "" {
		return "", fmt.Errorf("%w: email and payment method required", ErrInvalidArgument)
	}

	params := &stripe.CustomerParams{
		Email:         stripe.String(email),
		Name:          stripe.String(name),
		PaymentMethod: stripe.String(paymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: creating customer: %w", err)
	}

	s.logAudit(ctx, actorID, actorRole, "customer created: "+c.ID)
	return c.ID, nil
}

// Charge confirms an off-session payment against the customer's default
// payment method.
func (s *Service) Charge(ctx context.Context, actorID, actorRole, customerID string, amountCents int64, currency, description string) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}
	if customerID == "" || amountCents <= 0 {
		return "", fmt.Errorf("%w: customer and positive amount required", ErrInvalidArgument)
	}
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Customer:    stripe.String(customerID),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
		Confirm:     stripe.Bool(true),
		OffSession:  stripe.Bool(true),
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: charging customer %s: %w", customerID, err)
	}

	s.logAudit(ctx, actorID, actorRole,
		fmt.Sprintf("charge %d %s: %s", amountCents, currency, pi.ID))
	return pi.ID, nil
}

// CreateInvoice adds a one-off line item and opens an auto-advancing invoice
// for it, so the provider collects without further intervention.
func (s *Service) CreateInvoice(ctx context.Context, actorID, actorRole, customerID string, amountCents int64, currency, description string) (string, error) {
	if !s.configured {
		return "", ErrNotConfigured
	}
	if customerID == "" || amountCents <= 0 {
		return "", fmt.Errorf("%w: customer and positive amount required", ErrInvalidArgument)
	}
	if currency == "" {
		currency = "usd"
	}

	itemParams := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerID),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
	}
	itemParams.Context = ctx
	if _, err := invoiceitem.New(itemParams); err != nil {
		return "", fmt.Errorf("billing: creating invoice item: %w", err)
	}

	invParams := &stripe.InvoiceParams{
		Customer:    stripe.String(customerID),
		AutoAdvance: stripe.Bool(true),
	}
	invParams.Context = ctx
	inv, err := invoice.New(invParams)
	if err != nil {
		return "", fmt.Errorf("billing: creating invoice: %w", err)
	}

	s.logAudit(ctx, actorID, actorRole, "invoice created: "+inv.ID)
	return inv.ID, nil
}

func (s *Service) logAudit(ctx context.Context, actorID, actorRole, message string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogBillingAction(ctx, actorID, actorRole, message, ""); err != nil {
		slog.Warn("billing audit append failed", "err", err)
	}
}
