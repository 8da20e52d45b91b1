// Package mocks provides testify mocks for the cart store interfaces.
package mocks

import (
	"context"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/stretchr/testify/mock"
)

type GuestStore struct {
	mock.Mock
}

func (m *GuestStore) Get(ctx context.Context, deviceID string) (*models.Cart, error) {
	args := m.Called(ctx, deviceID)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *GuestStore) Save(ctx context.Context, deviceID string, cart *models.Cart) error {
	args := m.Called(ctx, deviceID, cart)

	return args.Error(0)
}

func (m *GuestStore) Delete(ctx context.Context, deviceID string) error {
	args := m.Called(ctx, deviceID)

	return args.Error(0)
}

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	args := m.Called(ctx, userID)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *UserStore) Save(ctx context.Context, userID string, cart *models.Cart) error {
	args := m.Called(ctx, userID, cart)

	return args.Error(0)
}

func (m *UserStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)

	return args.Error(0)
}
