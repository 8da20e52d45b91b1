package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/aurelle-beauty/commerce-platform/internal/utils"
	"github.com/google/uuid"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	MarkOrderPaid(ctx context.Context, id uuid.UUID, transactionID string) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

// CreateOrder writes the order row and its item rows in one transaction so a
// partial order can never be observed.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	shippingAddress, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, status, total, transaction_id, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NOW(), NOW())
	`

	_, err = tx.ExecContext(dbCtx, query,
		order.ID, order.UserID, order.Status, order.Total, order.TransactionID, shippingAddress)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	for _, item := range order.Items {
		_, err := tx.ExecContext(dbCtx, itemQuery,
			item.ID, order.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

const orderColumns = `id, user_id, status, total, COALESCE(transaction_id, ''), shipping_address, created_at, updated_at`

func (r *orderRepository) scanOrder(row *sql.Row) (*models.Order, error) {
	order := &models.Order{}

	var addressJSON []byte

	err := row.Scan(&order.ID, &order.UserID, &order.Status, &order.Total,
		&order.TransactionID, &addressJSON, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *models.Order) error {
	query := `
		SELECT id, product_id, name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.DB.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var item models.OrderItem

		err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = order.ID

		items = append(items, item)
	}

	order.Items = items

	return rows.Err()
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadItems(dbCtx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByTransactionID is the duplicate-delivery guard for gateway
// callbacks: at most one order exists per non-null transaction id.
func (r *orderRepository) GetOrderByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE transaction_id = $1`

	order, err := r.scanOrder(r.DB.QueryRowContext(dbCtx, query, transactionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get order by transaction id: %w", err)
	}

	if err := r.loadItems(dbCtx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) listOrders(ctx context.Context, where string, whereArgs []any, page, size int) ([]models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders` + where
	if err := r.DB.QueryRowContext(dbCtx, countQuery, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size
	args := append(append([]any{}, whereArgs...), size, offset)

	query := fmt.Sprintf(`SELECT `+orderColumns+` FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(whereArgs)+1, len(whereArgs)+2)

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		var addressJSON []byte

		err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.Total,
			&order.TransactionID, &addressJSON, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal shipping address: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadItems(dbCtx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	return r.listOrders(ctx, ` WHERE user_id = $1`, []any{userID}, page, size)
}

func (r *orderRepository) ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error) {
	return r.listOrders(ctx, ``, nil, page, size)
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// MarkOrderPaid stamps the provider transaction id onto a pre-created order
// and flips it to paid in one statement.
func (r *orderRepository) MarkOrderPaid(ctx context.Context, id uuid.UUID, transactionID string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET status = $1, transaction_id = $2, updated_at = $3 WHERE id = $4`

	result, err := r.DB.ExecContext(dbCtx, query, models.OrderStatusPaid, transactionID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
