package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront-payments/internal/middleware"
)

// Routes mounts every endpoint on a chi router with request ids, request
// logging, panic recovery and CORS.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewStructuredLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Stripe-Signature"},
		MaxAge:         300,
	}))

	r.Get("/", h.Health)
	r.Post("/create-order", h.CreatePayPalOrder)
	r.Post("/create-stripe-session", h.CreateStripeSession)
	r.Post("/create-payment-intent", h.CreatePaymentIntent)
	r.Post("/checkout/{provider}", h.CreateCheckout)
	r.Post("/webhook/stripe/payment-success", h.PaymentSuccessWebhook)

	return r
}
