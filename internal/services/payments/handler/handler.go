package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront-payments/internal/services/payments/providers"
	"storefront-payments/internal/services/payments/types"
)

const maxBodyBytes = int64(65536)

type checkoutService interface {
	Providers() []providers.PaymentProvider
	Provider(name string) (providers.PaymentProvider, error)
	Checkout(ctx context.Context, provider string, req types.PaymentRequest) (*types.CheckoutResult, error)
	CreatePaymentIntent(ctx context.Context, provider string, req types.PaymentRequest) (string, error)
	HandleWebhook(provider string, payload []byte, sigHeader string) (*types.PaymentSuccessEvent, error)
}

type Handler struct {
	service        checkoutService
	addr           string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewHandler panics if service is nil. A non-positive requestTimeout falls
// back to 15s.
func NewHandler(service checkoutService, addr string, requestTimeout time.Duration, logger *slog.Logger) *Handler {
	if service == nil {
		panic("handler.NewHandler: nil checkout service")
	}
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:        service,
		addr:           addr,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, 2)
	for _, p := range h.service.Providers() {
		names = append(names, p.DisplayName())
	}

	writeJSON(w, http.StatusOK, types.MessageResponse{
		Message: fmt.Sprintf("Server running with %s on %s", strings.Join(names, " + "), h.addr),
	})
}

// CreatePayPalOrder hides the failure cause from the client.
func (h *Handler) CreatePayPalOrder(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, "paypal", func(error) string { return "Failed to create PayPal order" })
}

// CreateStripeSession returns Stripe's own message on failure.
func (h *Handler) CreateStripeSession(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, "stripe", providers.Message)
}

func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	h.checkout(w, r, name, func(error) string {
		if p, err := h.service.Provider(name); err == nil {
			return fmt.Sprintf("Failed to create %s checkout", p.DisplayName())
		}
		return "Failed to create checkout"
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request, provider string, failure func(error) string) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	res, err := h.service.Checkout(ctx, provider, req)
	if err != nil {
		h.writeError(w, err, failure)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	clientSecret, err := h.service.CreatePaymentIntent(ctx, "stripe", req)
	if err != nil {
		h.writeError(w, err, func(err error) string {
			return "Failed to create payment intent: " + providers.Message(err)
		})
		return
	}

	writeJSON(w, http.StatusOK, types.PaymentIntentResponse{ClientSecret: clientSecret})
}

func (h *Handler) PaymentSuccessWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("reading webhook body", "error", err)
		writeJSON(w, http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "Request too large"})
		return
	}

	_, err = h.service.HandleWebhook("stripe", payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, providers.ErrUnknownWebhookEventType):
		// acknowledged so Stripe stops redelivering
		h.logger.Info("ignoring webhook event", "error", err)
	case errors.Is(err, providers.ErrInvalidSignature):
		h.logger.Error("webhook signature verification failed", "error", err)
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Signature verification failed"})
		return
	case errors.Is(err, providers.ErrConfiguration):
		h.logger.Error("webhook not configured", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Webhook secret not configured"})
		return
	default:
		h.logger.Error("handling webhook", "error", err)
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Invalid webhook payload"})
		return
	}

	w.WriteHeader(http.StatusOK)
}

// decode reads an optional JSON body. An empty body yields the zero
// request, which the orchestrator fills from defaults.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (types.PaymentRequest, bool) {
	var req types.PaymentRequest
	if r.Body == nil {
		return req, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(&req)
	if errors.Is(err, io.EOF) {
		return types.PaymentRequest{}, true
	}
	if err == nil {
		// exactly one JSON value per body
		if err = dec.Decode(&struct{}{}); errors.Is(err, io.EOF) {
			return req, true
		}
		if err == nil {
			err = errors.New("trailing data after request body")
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "Request too large"})
		return req, false
	}
	h.logger.Debug("rejecting request body", "error", err)
	writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: "Invalid JSON"})
	return req, false
}

// writeError maps err to a status. Client mistakes are echoed back; every
// other failure gets failure(err) and a 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, failure func(error) string) {
	status := httpStatus(err)
	if status < http.StatusInternalServerError {
		writeJSON(w, status, types.ErrorResponse{Error: err.Error()})
		return
	}

	h.logger.Error("payment request failed", "kind", errorKind(err), "error", err)
	writeJSON(w, status, types.ErrorResponse{Error: failure(err)})
}
