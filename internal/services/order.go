package service

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/google/uuid"
)

type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// GetOrder loads a single order. Customers may only see their own orders;
// admins may see any.
func (s *OrderService) GetOrder(ctx context.Context, claims *models.Claims, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found")
		}

		return nil, appErrors.DatabaseError("Failed to load order").WithError(err)
	}

	if claims.Role != models.RoleAdmin && order.UserID != claims.UserID {
		return nil, appErrors.NotFoundError("Order not found")
	}

	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, claims *models.Claims, page, size int) (*models.OrderListResponse, error) {
	page, size = normalizePage(page, size)

	orders, total, err := s.repo.ListOrdersByUser(ctx, claims.UserID, page, size)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to list orders").WithError(err)
	}

	return &models.OrderListResponse{Orders: orders, Total: total, Page: page, Size: size}, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, page, size int) (*models.OrderListResponse, error) {
	page, size = normalizePage(page, size)

	orders, total, err := s.repo.ListAllOrders(ctx, page, size)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to list orders").WithError(err)
	}

	return &models.OrderListResponse{Orders: orders, Total: total, Page: page, Size: size}, nil
}

// UpdateStatus moves an order along the fulfilment path. Payment outcomes
// (paid, failed) are owned by the checkout flow and cannot be set here.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	switch status {
	case models.OrderStatusShipped, models.OrderStatusDelivered:
	default:
		return appErrors.BadRequestError("Status must be one of: shipped, delivered")
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFoundError("Order not found")
		}

		return appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 20
	}

	return page, size
}
