package types

import (
	"fmt"
	"strings"
)

// PaymentRequest is the checkout intent sent by the storefront. Every field
// is optional on the wire; unset fields take the provider's configured
// defaults. Amount is in minor units of Currency.
type PaymentRequest struct {
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Currency   string `json:"currency" validate:"required,len=3,alpha"`
	Product    string `json:"product" validate:"required,max=127"`
	Quantity   int64  `json:"quantity" validate:"required,gte=1,lte=100"`
	SuccessUrl string `json:"successUrl" validate:"omitempty,url"`
	CancelUrl  string `json:"cancelUrl" validate:"omitempty,url"`
	OrderID    string `json:"orderId" validate:"omitempty,max=64"`
	StoreID    string `json:"storeId" validate:"omitempty,max=64"`
}

// Total is the charged amount in minor units. It does not guard against
// overflow; the orchestrator bounds Amount against Quantity before use.
func (r PaymentRequest) Total() int64 {
	return r.Amount * r.Quantity
}

// WithDefaults fills every zero field of r from d.
func (r PaymentRequest) WithDefaults(d PaymentRequest) PaymentRequest {
	if r.Amount == 0 {
		r.Amount = d.Amount
	}
	if r.Currency == "" {
		r.Currency = d.Currency
	}
	if r.Product == "" {
		r.Product = d.Product
	}
	if r.Quantity == 0 {
		r.Quantity = d.Quantity
	}
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	if r.SuccessUrl == "" {
		r.SuccessUrl = d.SuccessUrl
	}
	if r.CancelUrl == "" {
		r.CancelUrl = d.CancelUrl
	}
	if r.OrderID == "" {
		r.OrderID = d.OrderID
	}
	if r.StoreID == "" {
		r.StoreID = d.StoreID
	}
	return r
}

// CheckoutResult carries exactly one of ID (order based flows) or URL
// (hosted session flows).
type CheckoutResult struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PaymentSuccessEvent struct {
	ID       string
	Amount   int64
	Currency string
	OrderID  string
}

// currencies without a minor unit
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// FormatDecimal renders a minor-unit amount as a decimal string, e.g.
// 100 USD -> "1.00" and 500 JPY -> "500".
func FormatDecimal(amount int64, currency string) string {
	if zeroDecimal[strings.ToUpper(currency)] {
		return fmt.Sprintf("%d", amount)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
