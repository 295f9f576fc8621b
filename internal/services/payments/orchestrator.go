// Package payments selects a payment provider for a checkout request,
// applies that provider's configured defaults and validates the result
// before any remote call is made.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"storefront-payments/internal/services/payments/providers"
	"storefront-payments/internal/services/payments/types"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrInvalidRequest  = errors.New("invalid payment request")
)

// Limits bounds the total charged amount in minor units.
type Limits struct {
	MinAmount int64
	MaxAmount int64
}

// Registration pairs a provider with the request values used when the
// client leaves them out.
type Registration struct {
	Provider providers.PaymentProvider
	Defaults types.PaymentRequest
}

type Orchestrator struct {
	registry map[string]Registration
	limits   Limits
	validate *validator.Validate
	logger   *slog.Logger
}

func NewOrchestrator(logger *slog.Logger, limits Limits, regs ...Registration) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	registry := make(map[string]Registration, len(regs))
	for _, reg := range regs {
		if reg.Provider == nil {
			panic("payments.NewOrchestrator: nil provider")
		}
		registry[reg.Provider.Name()] = reg
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Orchestrator{
		registry: registry,
		limits:   limits,
		validate: validate,
		logger:   logger,
	}
}

// Providers returns the registered providers ordered by name.
func (o *Orchestrator) Providers() []providers.PaymentProvider {
	out := make([]providers.PaymentProvider, 0, len(o.registry))
	for _, reg := range o.registry {
		out = append(out, reg.Provider)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Provider looks a provider up by its route name.
func (o *Orchestrator) Provider(name string) (providers.PaymentProvider, error) {
	reg, ok := o.registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return reg.Provider, nil
}

// Checkout creates a remote order or hosted session with the named provider.
// Nothing is retried here; the provider's client owns retry policy.
func (o *Orchestrator) Checkout(ctx context.Context, provider string, req types.PaymentRequest) (*types.CheckoutResult, error) {
	reg, req, err := o.prepare(provider, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := reg.Provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		o.logger.Error("creating checkout",
			"provider", reg.Provider.Name(),
			"amount", req.Total(),
			"currency", req.Currency,
			"duration", time.Since(start),
			"error", err)
		return nil, fmt.Errorf("creating %s checkout: %w", reg.Provider.Name(), err)
	}
	if res == nil || (res.ID == "") == (res.URL == "") {
		return nil, fmt.Errorf("creating %s checkout: %w", reg.Provider.Name(),
			&providers.Error{Provider: reg.Provider.Name(), Kind: providers.ErrOrderCreation, Msg: "provider returned an ambiguous result"})
	}

	o.logger.Info("checkout created",
		"provider", reg.Provider.Name(),
		"order_id", res.ID,
		"amount", req.Total(),
		"currency", req.Currency,
		"duration", time.Since(start))

	return res, nil
}

// CreatePaymentIntent returns a client secret for providers that confirm
// payments on the client.
func (o *Orchestrator) CreatePaymentIntent(ctx context.Context, provider string, req types.PaymentRequest) (string, error) {
	reg, req, err := o.prepare(provider, req)
	if err != nil {
		return "", err
	}

	ip, ok := reg.Provider.(providers.IntentProvider)
	if !ok {
		return "", fmt.Errorf("%s payment intents: %w", reg.Provider.Name(), providers.ErrUnsupported)
	}

	secret, err := ip.CreatePaymentIntent(ctx, req)
	if err != nil {
		o.logger.Error("creating payment intent", "provider", reg.Provider.Name(), "error", err)
		return "", fmt.Errorf("creating %s payment intent: %w", reg.Provider.Name(), err)
	}
	return secret, nil
}

// HandleWebhook verifies and decodes a provider-signed payment event.
func (o *Orchestrator) HandleWebhook(provider string, payload []byte, sigHeader string) (*types.PaymentSuccessEvent, error) {
	p, err := o.Provider(provider)
	if err != nil {
		return nil, err
	}

	wv, ok := p.(providers.WebhookVerifier)
	if !ok {
		return nil, fmt.Errorf("%s webhooks: %w", p.Name(), providers.ErrUnsupported)
	}

	ev, err := wv.HandlePaymentSuccess(payload, sigHeader)
	if err != nil {
		return nil, err
	}

	o.logger.Info("successful payment handled",
		"provider", p.Name(),
		"payment_id", ev.ID,
		"order_id", ev.OrderID,
		"amount", ev.Amount,
		"currency", ev.Currency)
	return ev, nil
}

func (o *Orchestrator) prepare(provider string, req types.PaymentRequest) (Registration, types.PaymentRequest, error) {
	reg, ok := o.registry[strings.ToLower(provider)]
	if !ok {
		return Registration{}, req, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	req = req.WithDefaults(reg.Defaults)
	if err := o.Validate(req); err != nil {
		return Registration{}, req, err
	}
	return reg, req, nil
}

// Validate checks field formats and the configured amount bounds.
func (o *Orchestrator) Validate(req types.PaymentRequest) error {
	if err := o.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Quantity >= 1 here. Compare before multiplying so the product cannot wrap.
	if req.Amount > o.limits.MaxAmount/req.Quantity {
		return fmt.Errorf("%w: total %d x %d exceeds %d", ErrInvalidRequest, req.Amount, req.Quantity, o.limits.MaxAmount)
	}

	total := req.Total()
	if total < o.limits.MinAmount || total > o.limits.MaxAmount {
		return fmt.Errorf("%w: total %d outside [%d, %d]", ErrInvalidRequest, total, o.limits.MinAmount, o.limits.MaxAmount)
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		case "alpha", "len":
			msgs = append(msgs, field+" must be a 3-letter ISO code")
		default:
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, ", ")
}
