package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/webhook"

	"storefront-payments/internal/services/payments/types"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL overrides https://api.stripe.com, mainly for tests.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int64
}

// StripeProvider talks to Stripe through its own backend and key rather
// than the package-level stripe.Key.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
	sessions      session.Client
	intents       paymentintent.Client
}

func NewStripeProvider(cfg StripeConfig, logger *slog.Logger) *StripeProvider {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxRetries),
		LeveledLogger:     newPrintfLogger(logger, "stripe"),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &StripeProvider{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		sessions:      session.Client{B: backend, Key: cfg.SecretKey},
		intents:       paymentintent.Client{B: backend, Key: cfg.SecretKey},
	}
}

func (p *StripeProvider) Name() string        { return "stripe" }
func (p *StripeProvider) DisplayName() string { return "Stripe" }

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req types.PaymentRequest) (*types.CheckoutResult, error) {
	if p.secretKey == "" {
		return nil, &Error{Provider: p.Name(), Kind: ErrConfiguration, Msg: "secret key is required"}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessUrl),
		CancelURL:          stripe.String(req.CancelUrl),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata(req),
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Product),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(req.Quantity),
			},
		},
	}
	params.Context = ctx

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, p.wrap(ErrOrderCreation, err)
	}
	if s.URL == "" {
		return nil, &Error{Provider: p.Name(), Kind: ErrOrderCreation, Msg: fmt.Sprintf("session %s has no checkout url", s.ID)}
	}

	return &types.CheckoutResult{URL: s.URL}, nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req types.PaymentRequest) (string, error) {
	if p.secretKey == "" {
		return "", &Error{Provider: p.Name(), Kind: ErrConfiguration, Msg: "secret key is required"}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Total()),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: metadata(req),
	}
	params.Context = ctx

	pi, err := p.intents.New(params)
	if err != nil {
		return "", p.wrap(ErrOrderCreation, err)
	}

	return pi.ClientSecret, nil
}

func (p *StripeProvider) HandlePaymentSuccess(payload []byte, sigHeader string) (*types.PaymentSuccessEvent, error) {
	if p.webhookSecret == "" {
		return nil, &Error{Provider: p.Name(), Kind: ErrConfiguration, Msg: "webhook secret is required"}
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Kind: ErrInvalidSignature, Err: err}
	}

	if event.Type != "payment_intent.succeeded" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWebhookEventType, event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("unmarshaling payment_intent: %w", err)
	}

	return &types.PaymentSuccessEvent{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		OrderID:  pi.Metadata["order_id"],
	}, nil
}

// wrap keeps the Stripe error message visible to callers of Message.
func (p *StripeProvider) wrap(kind, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return &Error{Provider: p.Name(), Kind: kind, Msg: serr.Msg, Err: err}
	}
	return &Error{Provider: p.Name(), Kind: kind, Err: err}
}

func metadata(req types.PaymentRequest) map[string]string {
	md := map[string]string{}
	if req.OrderID != "" {
		md["order_id"] = req.OrderID
	}
	if req.StoreID != "" {
		md["store_id"] = req.StoreID
	}
	return md
}
