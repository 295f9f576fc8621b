// Package providers adapts the remote payment APIs behind one interface.
package providers

import (
	"context"

	"storefront-payments/internal/services/payments/types"
)

// PaymentProvider starts a checkout with a remote payment provider.
// Implementations are stateless between calls and safe for concurrent use.
type PaymentProvider interface {
	// Name is the lower-case key used in routes and config, e.g. "paypal".
	Name() string
	DisplayName() string
	// CreateCheckoutSession creates a remote order or hosted session. The
	// result carries exactly one of ID or URL.
	CreateCheckoutSession(ctx context.Context, req types.PaymentRequest) (*types.CheckoutResult, error)
}

// IntentProvider is implemented by providers with client-side confirmation.
type IntentProvider interface {
	CreatePaymentIntent(ctx context.Context, req types.PaymentRequest) (string, error)
}

// WebhookVerifier is implemented by providers that push signed events.
type WebhookVerifier interface {
	HandlePaymentSuccess(payload []byte, sigHeader string) (*types.PaymentSuccessEvent, error)
}
