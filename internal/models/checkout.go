package models

import (
	"net/url"

	"github.com/google/uuid"
)

// CheckoutRequest starts a checkout with either provider: the items come from
// the caller's server-side cart, only the destination is supplied.
type CheckoutRequest struct {
	ShippingAddress Address `json:"shipping_address" validate:"required"`
	Currency        string  `json:"currency" validate:"omitempty,iso4217"`
}

type InitiateCheckoutResponse struct {
	GatewayURL string `json:"gateway_url"`
}

type StripeIntentResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	ClientSecret string    `json:"client_secret"`
}

// GatewayCallback is the validated shape of the SSLCommerz server-to-server
// callback. ValueA/B/C are the opaque pass-through fields set at init time:
// JSON-encoded cart items, JSON-encoded shipping address, and the user id.
type GatewayCallback struct {
	ValID         string
	TransactionID string
	Status        string
	Amount        string
	Currency      string
	ValueA        string
	ValueB        string
	ValueC        string
}

// GatewayCallbackFromForm lifts the gateway's form-encoded POST into the
// typed payload. Field presence is checked by the checkout service, not here.
func GatewayCallbackFromForm(form url.Values) GatewayCallback {
	return GatewayCallback{
		ValID:         form.Get("val_id"),
		TransactionID: form.Get("tran_id"),
		Status:        form.Get("status"),
		Amount:        form.Get("amount"),
		Currency:      form.Get("currency"),
		ValueA:        form.Get("value_a"),
		ValueB:        form.Get("value_b"),
		ValueC:        form.Get("value_c"),
	}
}

// Callback outcome codes, surfaced to the browser as a query parameter on the
// failure redirect.
const (
	CallbackOK                 = "ok"
	CallbackErrInvalidPayload  = "invalid_payload"
	CallbackErrValidationFail  = "validation_failed"
	CallbackErrGatewayDown     = "gateway_unavailable"
	CallbackErrPersistenceFail = "order_persist_failed"
)

// CallbackOutcome is the explicit result of processing a gateway callback.
// The handler, not the service, decides the HTTP redirect.
type CallbackOutcome struct {
	Succeeded bool
	Duplicate bool
	Code      string
	OrderID   uuid.UUID
}
