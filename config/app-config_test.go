package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYPAL_CLIENT_ID", "client-id")
	t.Setenv("PAYPAL_SECRET", "client-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":3001", cfg.Http.Addr)
	require.Equal(t, 15*time.Second, cfg.Http.RequestTimeout)
	require.Equal(t, []string{"*"}, cfg.Http.AllowedOrigins)

	require.Equal(t, "https://api-m.sandbox.paypal.com", cfg.PayPal.BaseURL)
	require.Equal(t, "client-id", cfg.PayPal.ClientID)
	require.Equal(t, "client-secret", cfg.PayPal.SecretKey)
	require.Equal(t, "USD", cfg.PayPal.Currency)
	require.EqualValues(t, 100, cfg.PayPal.Amount)

	require.Equal(t, "usd", cfg.Stripe.Currency)
	require.EqualValues(t, 100, cfg.Stripe.Amount)
	require.Equal(t, "Test Product", cfg.Stripe.Product)
	require.Equal(t, "http://localhost:3000/success", cfg.Stripe.SuccessURL)
	require.Equal(t, "http://localhost:3000/cancel", cfg.Stripe.CancelURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAYMENTS_HTTP_ADDR", "127.0.0.1:8080")
	t.Setenv("PAYMENTS_REQUEST_TIMEOUT", "3s")
	t.Setenv("PAYPAL_AMOUNT", "9700")
	t.Setenv("PAYPAL_MAX_RETRIES", "2")
	t.Setenv("STRIPE_MAX_RETRIES", "1")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:8080", cfg.Http.Addr)
	require.Equal(t, 3*time.Second, cfg.Http.RequestTimeout)
	require.EqualValues(t, 9700, cfg.PayPal.Amount)
	require.Equal(t, 2, cfg.PayPal.MaxRetries)
	require.EqualValues(t, 1, cfg.Stripe.MaxRetries)
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STRIPE_PRODUCT_NAME=Poster\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STRIPE_PRODUCT_NAME") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "Poster", cfg.Stripe.Product)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			Http:     HttpConfig{RequestTimeout: time.Second, LogLevel: "info"},
			Checkout: CheckoutConfig{MinAmount: 1, MaxAmount: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "zero min", mutate: func(c *AppConfig) { c.Checkout.MinAmount = 0 }, wantErr: true},
		{name: "max below min", mutate: func(c *AppConfig) { c.Checkout.MaxAmount = 0 }, wantErr: true},
		{name: "no timeout", mutate: func(c *AppConfig) { c.Http.RequestTimeout = 0 }, wantErr: true},
		{name: "negative retries", mutate: func(c *AppConfig) { c.PayPal.MaxRetries = -1 }, wantErr: true},
		{name: "bad log level", mutate: func(c *AppConfig) { c.Http.LogLevel = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLevel(t *testing.T) {
	lvl, err := HttpConfig{LogLevel: "debug"}.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)
}
