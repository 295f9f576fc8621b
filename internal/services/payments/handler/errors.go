package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront-payments/internal/services/payments"
	"storefront-payments/internal/services/payments/providers"
)

// errorKind classifies err for logs. Clients only see the status.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, payments.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, providers.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, payments.ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, providers.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, providers.ErrConfiguration):
		return "configuration"
	case errors.Is(err, providers.ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, providers.ErrOrderCreation):
		return "order_creation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// httpStatus keeps every provider-side failure at 500 so callers cannot
// tell causes apart.
func httpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, payments.ErrInvalidRequest), errors.Is(err, providers.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, payments.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, providers.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
