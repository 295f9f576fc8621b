package providers

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailure             = errors.New("authorization failed")
	ErrOrderCreation           = errors.New("order creation failed")
	ErrConfiguration           = errors.New("provider not configured")
	ErrInvalidAmount           = errors.New("amount not representable")
	ErrUnsupported             = errors.New("operation not supported")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrUnknownWebhookEventType = errors.New("unhandled event type")
)

// Error is a failure reported by a provider. Kind is one of the sentinel
// errors above, Msg is the provider's own description (may be empty) and
// Err is the underlying cause.
type Error struct {
	Provider string
	Kind     error
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns the most specific human readable description of err:
// the provider's message when there is one, the cause's text otherwise.
func Message(err error) string {
	var perr *Error
	if !errors.As(err, &perr) {
		return err.Error()
	}
	if perr.Msg != "" {
		return perr.Msg
	}
	if perr.Err != nil {
		return perr.Err.Error()
	}
	return perr.Kind.Error()
}
