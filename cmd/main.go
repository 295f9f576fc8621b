package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-payments/config"
	"storefront-payments/internal/services/payments"
	"storefront-payments/internal/services/payments/handler"
	"storefront-payments/internal/services/payments/providers"
	"storefront-payments/internal/services/payments/types"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}

	level, err := cfg.Http.Level()
	if err != nil {
		log.Panicf("invalid log level: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("failed to serve server", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	paypalProvider := providers.NewPayPalProvider(providers.PayPalConfig{
		BaseURL:    cfg.PayPal.BaseURL,
		ClientID:   cfg.PayPal.ClientID,
		SecretKey:  cfg.PayPal.SecretKey,
		Timeout:    cfg.PayPal.Timeout,
		MaxRetries: cfg.PayPal.MaxRetries,
		RetryWait:  cfg.PayPal.RetryWait,
	}, logger)

	stripeProvider := providers.NewStripeProvider(providers.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		BaseURL:       cfg.Stripe.BaseURL,
		Timeout:       cfg.Stripe.Timeout,
		MaxRetries:    cfg.Stripe.MaxRetries,
	}, logger)

	if cfg.PayPal.ClientID == "" || cfg.PayPal.SecretKey == "" {
		logger.Warn("paypal credentials missing; /create-order will fail")
	}
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("stripe secret key missing; stripe endpoints will fail")
	}

	orchestrator := payments.NewOrchestrator(logger,
		payments.Limits{MinAmount: cfg.Checkout.MinAmount, MaxAmount: cfg.Checkout.MaxAmount},
		payments.Registration{
			Provider: paypalProvider,
			Defaults: types.PaymentRequest{
				Amount:     cfg.PayPal.Amount,
				Currency:   cfg.PayPal.Currency,
				Product:    cfg.PayPal.Product,
				SuccessUrl: cfg.PayPal.ReturnURL,
				CancelUrl:  cfg.PayPal.CancelURL,
			},
		},
		payments.Registration{
			Provider: stripeProvider,
			Defaults: types.PaymentRequest{
				Amount:     cfg.Stripe.Amount,
				Currency:   cfg.Stripe.Currency,
				Product:    cfg.Stripe.Product,
				SuccessUrl: cfg.Stripe.SuccessURL,
				CancelUrl:  cfg.Stripe.CancelURL,
			},
		},
	)

	h := handler.NewHandler(orchestrator, cfg.Http.Addr, cfg.Http.RequestTimeout, logger)

	srv := &http.Server{
		Addr:              cfg.Http.Addr,
		Handler:           h.Routes(cfg.Http.AllowedOrigins),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      cfg.Http.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", cfg.Http.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.RequestTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
