// Package mocks provides a testify mock for the gateway client.
package mocks

import (
	"context"

	"github.com/aurelle-beauty/commerce-platform/pkg/sslcommerz"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (m *Client) InitiateSession(ctx context.Context, req *sslcommerz.InitRequest) (*sslcommerz.InitResponse, error) {
	args := m.Called(ctx, req)

	if resp, ok := args.Get(0).(*sslcommerz.InitResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *Client) ValidateTransaction(ctx context.Context, valID string) (*sslcommerz.ValidationResponse, error) {
	args := m.Called(ctx, valID)

	if resp, ok := args.Get(0).(*sslcommerz.ValidationResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}
