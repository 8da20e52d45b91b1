package service_test

import (
	"context"
	"database/sql"
	"testing"

	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/aurelle-beauty/commerce-platform/internal/repositories/mocks"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	ownerID := uuid.New()

	t.Run("Success - Owner Sees Own Order", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("GetOrderByID", ctx, orderID).Return(&models.Order{ID: orderID, UserID: ownerID}, nil).Once()

		order, err := orderService.GetOrder(ctx, &models.Claims{UserID: ownerID, Role: models.RoleCustomer}, orderID)

		assert.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Failure - Another Customer's Order Looks Absent", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("GetOrderByID", ctx, orderID).Return(&models.Order{ID: orderID, UserID: ownerID}, nil).Once()

		order, err := orderService.GetOrder(ctx, &models.Claims{UserID: uuid.New(), Role: models.RoleCustomer}, orderID)

		assert.Error(t, err)
		assert.Nil(t, order)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Success - Admin Sees Any Order", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("GetOrderByID", ctx, orderID).Return(&models.Order{ID: orderID, UserID: ownerID}, nil).Once()

		order, err := orderService.GetOrder(ctx, &models.Claims{UserID: uuid.New(), Role: models.RoleAdmin}, orderID)

		assert.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("GetOrderByID", ctx, orderID).Return(nil, sql.ErrNoRows).Once()

		order, err := orderService.GetOrder(ctx, &models.Claims{UserID: ownerID}, orderID)

		assert.Error(t, err)
		assert.Nil(t, order)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success - Ships Order", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("UpdateOrderStatus", ctx, orderID, models.OrderStatusShipped).Return(nil).Once()

		assert.NoError(t, orderService.UpdateStatus(ctx, orderID, models.OrderStatusShipped))
		repo.AssertExpectations(t)
	})

	t.Run("Failure - Payment Statuses Are Off Limits", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		err := orderService.UpdateStatus(ctx, orderID, models.OrderStatusPaid)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "UpdateOrderStatus")
	})
}

func TestListMyOrders(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(mocks.OrderRepository)
		orderService := service.NewOrderService(repo)

		repo.On("ListOrdersByUser", ctx, ownerID, 1, 20).
			Return([]models.Order{{ID: uuid.New(), UserID: ownerID}}, 1, nil).Once()

		list, err := orderService.ListMyOrders(ctx, &models.Claims{UserID: ownerID}, 0, 0)

		assert.NoError(t, err)
		assert.Len(t, list.Orders, 1)
		assert.Equal(t, 1, list.Total)
		repo.AssertExpectations(t)
	})
}
