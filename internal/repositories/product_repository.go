package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/aurelle-beauty/commerce-platform/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, category models.ProductCategory, page, size int) ([]models.Product, int, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `id, name, brand, short_description, description, price, sale_price,
		category, images, tags, stock_quantity, rating, review_count, delivery_estimate,
		created_at, updated_at`

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (id, name, brand, short_description, description, price, sale_price,
			category, images, tags, stock_quantity, rating, review_count, delivery_estimate,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	return r.DB.QueryRowContext(dbCtx, query,
		product.ID, product.Name, product.Brand, product.ShortDescription, product.Description,
		product.Price, product.SalePrice, product.Category,
		pq.Array(product.Images), pq.Array(product.Tags),
		product.StockQuantity, product.Rating, product.ReviewCount, product.DeliveryEstimate,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product := &models.Product{}

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&product.ID, &product.Name, &product.Brand, &product.ShortDescription, &product.Description,
		&product.Price, &product.SalePrice, &product.Category,
		pq.Array(&product.Images), pq.Array(&product.Tags),
		&product.StockQuantity, &product.Rating, &product.ReviewCount, &product.DeliveryEstimate,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying product: %w", err)
	}

	return product, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET name = $1, brand = $2, short_description = $3, description = $4, price = $5,
			sale_price = $6, category = $7, images = $8, tags = $9, stock_quantity = $10,
			delivery_estimate = $11, updated_at = $12
		WHERE id = $13
	`

	result, err := r.DB.ExecContext(dbCtx, query,
		product.Name, product.Brand, product.ShortDescription, product.Description,
		product.Price, product.SalePrice, product.Category,
		pq.Array(product.Images), pq.Array(product.Tags),
		product.StockQuantity, product.DeliveryEstimate, time.Now(), product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
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

func (r *productRepository) ListProducts(ctx context.Context, category models.ProductCategory, page, size int) ([]models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var (
		total     int
		countArgs []any
	)

	countQuery := `SELECT COUNT(*) FROM products`
	if category != "" {
		countQuery += ` WHERE category = $1`

		countArgs = append(countArgs, category)
	}

	if err := r.DB.QueryRowContext(dbCtx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	if category != "" {
		query += ` WHERE category = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, category, size, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, size, offset)
	}

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	defer rows.Close()

	var products []models.Product

	for rows.Next() {
		var product models.Product

		err := rows.Scan(
			&product.ID, &product.Name, &product.Brand, &product.ShortDescription, &product.Description,
			&product.Price, &product.SalePrice, &product.Category,
			pq.Array(&product.Images), pq.Array(&product.Tags),
			&product.StockQuantity, &product.Rating, &product.ReviewCount, &product.DeliveryEstimate,
			&product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
