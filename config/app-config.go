// Package config holds the application's configuration settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppConfig defines environment-based configuration for the application.
// It is read once at startup and never mutated afterwards.
type AppConfig struct {
	Http     HttpConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
	PayPal   PaypalConfig
}

type HttpConfig struct {
	Addr           string        `env:"PAYMENTS_HTTP_ADDR" env-default:":3001"`
	RequestTimeout time.Duration `env:"PAYMENTS_REQUEST_TIMEOUT" env-default:"15s"`
	AllowedOrigins []string      `env:"PAYMENTS_ALLOWED_ORIGINS" env-default:"*"`
	LogLevel       string        `env:"PAYMENTS_LOG_LEVEL" env-default:"info"`
}

// CheckoutConfig bounds the total (amount * quantity, in minor units) a
// client may request for any provider.
type CheckoutConfig struct {
	MinAmount int64 `env:"PAYMENTS_MIN_AMOUNT" env-default:"1"`
	MaxAmount int64 `env:"PAYMENTS_MAX_AMOUNT" env-default:"1000000"`
}

type StripeConfig struct {
	SecretKey     string        `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string        `env:"STRIPE_WEBHOOK_SECRET"`
	BaseURL       string        `env:"STRIPE_API_BASE"`
	Timeout       time.Duration `env:"STRIPE_TIMEOUT" env-default:"10s"`
	MaxRetries    int64         `env:"STRIPE_MAX_RETRIES" env-default:"0"`

	Currency   string `env:"STRIPE_CURRENCY" env-default:"usd"`
	Amount     int64  `env:"STRIPE_AMOUNT" env-default:"100"`
	Product    string `env:"STRIPE_PRODUCT_NAME" env-default:"Test Product"`
	SuccessURL string `env:"STRIPE_SUCCESS_URL" env-default:"http://localhost:3000/success"`
	CancelURL  string `env:"STRIPE_CANCEL_URL" env-default:"http://localhost:3000/cancel"`
}

type PaypalConfig struct {
	BaseURL    string        `env:"PAYPAL_BASE" env-default:"https://api-m.sandbox.paypal.com"`
	ClientID   string        `env:"PAYPAL_CLIENT_ID"`
	SecretKey  string        `env:"PAYPAL_SECRET,PAYPAL_SECRET_KEY"`
	Timeout    time.Duration `env:"PAYPAL_TIMEOUT" env-default:"10s"`
	MaxRetries int           `env:"PAYPAL_MAX_RETRIES" env-default:"0"`
	RetryWait  time.Duration `env:"PAYPAL_RETRY_WAIT" env-default:"200ms"`

	Currency  string `env:"PAYPAL_CURRENCY" env-default:"USD"`
	Amount    int64  `env:"PAYPAL_AMOUNT" env-default:"100"`
	Product   string `env:"PAYPAL_PRODUCT_NAME" env-default:"Test Product"`
	ReturnURL string `env:"PAYPAL_RETURN_URL"`
	CancelURL string `env:"PAYPAL_CANCEL_URL"`
}

// Load reads the optional dotenv files and then the process environment.
// Variables already present in the environment win over dotenv values.
func Load(dotenvFiles ...string) (*AppConfig, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot run with. Missing provider
// credentials are not an error here; they surface per request.
func (c *AppConfig) Validate() error {
	if c.Checkout.MinAmount <= 0 {
		return fmt.Errorf("PAYMENTS_MIN_AMOUNT must be positive, got %d", c.Checkout.MinAmount)
	}
	if c.Checkout.MaxAmount < c.Checkout.MinAmount {
		return fmt.Errorf("PAYMENTS_MAX_AMOUNT (%d) is below PAYMENTS_MIN_AMOUNT (%d)", c.Checkout.MaxAmount, c.Checkout.MinAmount)
	}
	if c.Http.RequestTimeout <= 0 {
		return fmt.Errorf("PAYMENTS_REQUEST_TIMEOUT must be positive, got %s", c.Http.RequestTimeout)
	}
	if c.PayPal.MaxRetries < 0 || c.Stripe.MaxRetries < 0 {
		return errors.New("provider retry counts must not be negative")
	}
	if _, err := c.Http.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel into a slog level.
func (h HttpConfig) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(h.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid PAYMENTS_LOG_LEVEL %q: %w", h.LogLevel, err)
	}
	return lvl, nil
}
