// Package mocks provides a testify mock for the Stripe client surface.
package mocks

import (
	stripeClient "github.com/aurelle-beauty/commerce-platform/pkg/stripe"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v81"
)

type Client struct {
	mock.Mock
}

func (m *Client) CreatePaymentIntent(amountMinor int64, currency, description, orderID string) (*stripe.PaymentIntent, error) {
	args := m.Called(amountMinor, currency, description, orderID)

	if intent, ok := args.Get(0).(*stripe.PaymentIntent); ok {
		return intent, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *Client) VerifyWebhookSignature(payload []byte, signature string) (stripeClient.Event, error) {
	args := m.Called(payload, signature)

	return args.Get(0).(stripeClient.Event), args.Error(1)
}
