package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront-payments/internal/services/payments/providers"
	"storefront-payments/internal/services/payments/types"
)

type stubProvider struct {
	name   string
	result *types.CheckoutResult
	err    error
	got    []types.PaymentRequest
}

func (s *stubProvider) Name() string        { return s.name }
func (s *stubProvider) DisplayName() string { return s.name }

func (s *stubProvider) CreateCheckoutSession(_ context.Context, req types.PaymentRequest) (*types.CheckoutResult, error) {
	s.got = append(s.got, req)
	return s.result, s.err
}

type stubIntentProvider struct {
	stubProvider
	secret string
}

func (s *stubIntentProvider) CreatePaymentIntent(_ context.Context, req types.PaymentRequest) (string, error) {
	s.got = append(s.got, req)
	return s.secret, s.err
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestOrchestrator(regs ...Registration) *Orchestrator {
	return NewOrchestrator(discard, Limits{MinAmount: 1, MaxAmount: 100_000}, regs...)
}

func TestCheckoutAppliesDefaults(t *testing.T) {
	paypal := &stubProvider{name: "paypal", result: &types.CheckoutResult{ID: "ORDER-1"}}
	o := newTestOrchestrator(Registration{
		Provider: paypal,
		Defaults: types.PaymentRequest{Amount: 100, Currency: "USD", Product: "Test Product"},
	})

	res, err := o.Checkout(context.Background(), "paypal", types.PaymentRequest{})
	require.NoError(t, err)
	require.Equal(t, "ORDER-1", res.ID)

	require.Len(t, paypal.got, 1)
	require.Equal(t, types.PaymentRequest{Amount: 100, Currency: "USD", Product: "Test Product", Quantity: 1}, paypal.got[0])
}

func TestCheckoutProviderNameIsCaseInsensitive(t *testing.T) {
	stripe := &stubProvider{name: "stripe", result: &types.CheckoutResult{URL: "https://checkout.stripe.com/x"}}
	o := newTestOrchestrator(Registration{
		Provider: stripe,
		Defaults: types.PaymentRequest{Amount: 100, Currency: "usd", Product: "Test Product"},
	})

	res, err := o.Checkout(context.Background(), "Stripe", types.PaymentRequest{})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.stripe.com/x", res.URL)
}

func TestCheckoutUnknownProvider(t *testing.T) {
	o := newTestOrchestrator()

	_, err := o.Checkout(context.Background(), "adyen", types.PaymentRequest{})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCheckoutValidation(t *testing.T) {
	defaults := types.PaymentRequest{Amount: 100, Currency: "USD", Product: "Test Product"}

	tests := []struct {
		name string
		req  types.PaymentRequest
	}{
		{name: "negative amount", req: types.PaymentRequest{Amount: -5}},
		{name: "currency too long", req: types.PaymentRequest{Currency: "DOLLARS"}},
		{name: "currency not letters", req: types.PaymentRequest{Currency: "U5D"}},
		{name: "too many items", req: types.PaymentRequest{Quantity: 101}},
		{name: "bad success url", req: types.PaymentRequest{SuccessUrl: "not a url"}},
		{name: "above max total", req: types.PaymentRequest{Amount: 60_000, Quantity: 2}},
		{name: "total wraps int64", req: types.PaymentRequest{Amount: 4611686018427388029, Quantity: 4}},
		{name: "amount alone above max", req: types.PaymentRequest{Amount: 100_001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{name: "paypal", result: &types.CheckoutResult{ID: "x"}}
			o := newTestOrchestrator(Registration{Provider: p, Defaults: defaults})

			_, err := o.Checkout(context.Background(), "paypal", tt.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			require.Empty(t, p.got, "provider must not be called for invalid input")
		})
	}
}

func TestCheckoutMissingDefaults(t *testing.T) {
	p := &stubProvider{name: "paypal", result: &types.CheckoutResult{ID: "x"}}
	o := newTestOrchestrator(Registration{Provider: p})

	_, err := o.Checkout(context.Background(), "paypal", types.PaymentRequest{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.Contains(t, err.Error(), "amount is required")
}

func TestCheckoutProviderFailure(t *testing.T) {
	cause := &providers.Error{Provider: "paypal", Kind: providers.ErrAuthFailure, Msg: "Client Authentication failed"}
	p := &stubProvider{name: "paypal", err: cause}
	o := newTestOrchestrator(Registration{Provider: p, Defaults: types.PaymentRequest{Amount: 100, Currency: "USD", Product: "p"}})

	_, err := o.Checkout(context.Background(), "paypal", types.PaymentRequest{})
	require.ErrorIs(t, err, providers.ErrAuthFailure)
	require.Equal(t, "Client Authentication failed", providers.Message(err))
}

func TestCheckoutRejectsAmbiguousResult(t *testing.T) {
	for _, res := range []*types.CheckoutResult{{}, {ID: "a", URL: "b"}} {
		p := &stubProvider{name: "paypal", result: res}
		o := newTestOrchestrator(Registration{Provider: p, Defaults: types.PaymentRequest{Amount: 100, Currency: "USD", Product: "p"}})

		_, err := o.Checkout(context.Background(), "paypal", types.PaymentRequest{})
		require.ErrorIs(t, err, providers.ErrOrderCreation)
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	defaults := types.PaymentRequest{Amount: 100, Currency: "usd", Product: "p"}

	t.Run("supported", func(t *testing.T) {
		p := &stubIntentProvider{stubProvider: stubProvider{name: "stripe"}, secret: "pi_secret"}
		o := newTestOrchestrator(Registration{Provider: p, Defaults: defaults})

		secret, err := o.CreatePaymentIntent(context.Background(), "stripe", types.PaymentRequest{Amount: 2000})
		require.NoError(t, err)
		require.Equal(t, "pi_secret", secret)
		require.EqualValues(t, 2000, p.got[0].Amount)
	})

	t.Run("unsupported", func(t *testing.T) {
		o := newTestOrchestrator(Registration{Provider: &stubProvider{name: "paypal"}, Defaults: defaults})

		_, err := o.CreatePaymentIntent(context.Background(), "paypal", types.PaymentRequest{})
		require.ErrorIs(t, err, providers.ErrUnsupported)
	})

	t.Run("provider error", func(t *testing.T) {
		p := &stubIntentProvider{stubProvider: stubProvider{name: "stripe", err: errors.New("card_declined")}}
		o := newTestOrchestrator(Registration{Provider: p, Defaults: defaults})

		_, err := o.CreatePaymentIntent(context.Background(), "stripe", types.PaymentRequest{})
		require.ErrorContains(t, err, "card_declined")
	})
}

func TestHandleWebhookUnsupported(t *testing.T) {
	o := newTestOrchestrator(Registration{Provider: &stubProvider{name: "paypal"}})

	_, err := o.HandleWebhook("paypal", []byte("{}"), "")
	require.ErrorIs(t, err, providers.ErrUnsupported)

	_, err = o.HandleWebhook("square", []byte("{}"), "")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestProvidersSorted(t *testing.T) {
	o := newTestOrchestrator(
		Registration{Provider: &stubProvider{name: "stripe"}},
		Registration{Provider: &stubProvider{name: "paypal"}},
	)

	ps := o.Providers()
	require.Len(t, ps, 2)
	require.Equal(t, "paypal", ps[0].Name())
	require.Equal(t, "stripe", ps[1].Name())
}
