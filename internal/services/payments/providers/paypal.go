package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"storefront-payments/internal/services/payments/types"
)

const (
	paypalTokenPath  = "/v1/oauth2/token"
	paypalOrdersPath = "/v2/checkout/orders"
)

type PayPalConfig struct {
	BaseURL    string
	ClientID   string
	SecretKey  string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// PayPalProvider creates CAPTURE orders through the PayPal REST API. A new
// access token is fetched for every order; tokens are never cached.
type PayPalProvider struct {
	clientID  string
	secretKey string
	client    *resty.Client
	logger    *slog.Logger
}

func NewPayPalProvider(cfg PayPalConfig, logger *slog.Logger) *PayPalProvider {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4*cfg.RetryWait).
		SetHeader("Accept", "application/json").
		SetLogger(newPrintfLogger(logger, "paypal")).
		AddRetryCondition(retryable)

	return &PayPalProvider{
		clientID:  cfg.ClientID,
		secretKey: cfg.SecretKey,
		client:    client,
		logger:    logger.With("provider", "paypal"),
	}
}

// retryable retries transport failures, throttling and server errors, but
// never a request whose context is already done.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
}

func (p *PayPalProvider) Name() string        { return "paypal" }
func (p *PayPalProvider) DisplayName() string { return "PayPal" }

type paypalToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// paypalError covers both the OAuth error shape and the REST error shape.
type paypalError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Name             string `json:"name"`
	Message          string `json:"message"`
	DebugID          string `json:"debug_id"`
}

func (e paypalError) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Error
	}
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
	PaymentSource *paypalPaymentSource `json:"payment_source,omitempty"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	CustomID    string       `json:"custom_id,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPaymentSource struct {
	PayPal paypalWallet `json:"paypal"`
}

type paypalWallet struct {
	ExperienceContext paypalExperienceContext `json:"experience_context"`
}

type paypalExperienceContext struct {
	PaymentMethodPreference string `json:"payment_method_preference"`
	UserAction              string `json:"user_action"`
	ReturnURL               string `json:"return_url,omitempty"`
	CancelURL               string `json:"cancel_url,omitempty"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href   string `json:"href"`
		Rel    string `json:"rel"`
		Method string `json:"method"`
	} `json:"links"`
}

// AccessToken performs the client-credentials exchange.
func (p *PayPalProvider) AccessToken(ctx context.Context) (string, error) {
	if p.clientID == "" || p.secretKey == "" {
		return "", &Error{Provider: p.Name(), Kind: ErrConfiguration, Msg: "client id and secret are required"}
	}

	var token paypalToken
	var perr paypalError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.clientID, p.secretKey).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&token).
		SetError(&perr).
		Post(paypalTokenPath)
	if err != nil {
		return "", &Error{Provider: p.Name(), Kind: ErrAuthFailure, Err: err}
	}
	if resp.IsError() {
		return "", &Error{
			Provider: p.Name(),
			Kind:     ErrAuthFailure,
			Msg:      perr.message(),
			Err:      fmt.Errorf("token endpoint returned %s", resp.Status()),
		}
	}
	if token.AccessToken == "" {
		return "", &Error{Provider: p.Name(), Kind: ErrAuthFailure, Msg: "empty access token"}
	}

	return token.AccessToken, nil
}

func (p *PayPalProvider) CreateCheckoutSession(ctx context.Context, req types.PaymentRequest) (*types.CheckoutResult, error) {
	currency := strings.ToUpper(req.Currency)
	_, err := paypalValue(req.Total(), currency)
	if err != nil {
		return nil, err
	}

	token, err := p.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{
			{
				ReferenceID: req.OrderID,
				CustomID:    req.StoreID,
				Description: req.Product,
				Amount: paypalAmount{
					CurrencyCode: currency,
					Value:        types.FormatDecimal(req.Total(), currency),
				},
			},
		},
	}
	if req.SuccessUrl != "" || req.CancelUrl != "" {
		body.PaymentSource = &paypalPaymentSource{
			PayPal: paypalWallet{
				ExperienceContext: paypalExperienceContext{
					PaymentMethodPreference: "IMMEDIATE_PAYMENT_REQUIRED",
					UserAction:              "PAY_NOW",
					ReturnURL:               req.SuccessUrl,
					CancelURL:               req.CancelUrl,
				},
			},
		}
	}

	var order paypalOrderResponse
	var perr paypalError
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("PayPal-Request-Id", uuid.NewString()).
		SetBody(body).
		SetResult(&order).
		SetError(&perr).
		Post(paypalOrdersPath)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Kind: ErrOrderCreation, Err: err}
	}
	if resp.IsError() {
		p.logger.Error("order rejected",
			"status", resp.StatusCode(),
			"name", perr.Name,
			"debug_id", perr.DebugID,
			"body", resp.String())
		return nil, &Error{
			Provider: p.Name(),
			Kind:     ErrOrderCreation,
			Msg:      perr.message(),
			Err:      fmt.Errorf("orders endpoint returned %s", resp.Status()),
		}
	}
	if order.ID == "" {
		return nil, &Error{Provider: p.Name(), Kind: ErrOrderCreation, Msg: "response carried no order id"}
	}

	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			p.logger.Debug("order created", "order_id", order.ID, "status", order.Status, "approve_url", link.Href)
			break
		}
	}

	return &types.CheckoutResult{ID: order.ID}, nil
}

// PayPal takes these in whole units only, although the ISO code has a
// minor unit. Amounts still arrive in hundredths.
var paypalWholeUnit = map[string]bool{"HUF": true, "TWD": true}

// paypalValue renders a minor-unit total as a PayPal amount value.
func paypalValue(total int64, currency string) (string, error) {
	if paypalWholeUnit[currency] {
		if total%100 != 0 {
			return "", &Error{
				Provider: "paypal",
				Kind:     ErrInvalidAmount,
				Msg:      fmt.Sprintf("%s amounts must be whole units, got %d minor units", currency, total),
			}
		}
		return fmt.Sprintf("%d", total/100), nil
	}
	return types.FormatDecimal(total, currency), nil
}
