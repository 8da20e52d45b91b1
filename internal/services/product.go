package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type ProductService struct {
	repo      repository.ProductRepository
	sanitizer *bluemonday.Policy
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	// Descriptions are merchant-authored rich text rendered in the storefront.
	return &ProductService{repo: repo, sanitizer: bluemonday.UGCPolicy()}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		Name:             s.sanitizer.Sanitize(req.Name),
		Brand:            s.sanitizer.Sanitize(req.Brand),
		ShortDescription: s.sanitizer.Sanitize(req.ShortDescription),
		Description:      s.sanitizer.Sanitize(req.Description),
		Price:            req.Price,
		SalePrice:        req.SalePrice,
		Category:         req.Category,
		Images:           req.Images,
		Tags:             req.Tags,
		StockQuantity:    req.StockQuantity,
		DeliveryEstimate: req.DeliveryEstimate,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to load product").WithError(err)
	}

	return product, nil
}

// UpdateProduct applies the non-nil fields of the request on top of the
// stored product. A sale price above the resulting base price is rejected.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = s.sanitizer.Sanitize(*req.Name)
	}

	if req.Brand != nil {
		product.Brand = s.sanitizer.Sanitize(*req.Brand)
	}

	if req.ShortDescription != nil {
		product.ShortDescription = s.sanitizer.Sanitize(*req.ShortDescription)
	}

	if req.Description != nil {
		product.Description = s.sanitizer.Sanitize(*req.Description)
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.SalePrice != nil {
		product.SalePrice = req.SalePrice
	}

	if req.Category != nil {
		product.Category = *req.Category
	}

	if req.Images != nil {
		product.Images = req.Images
	}

	if req.Tags != nil {
		product.Tags = req.Tags
	}

	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}

	if req.DeliveryEstimate != nil {
		product.DeliveryEstimate = *req.DeliveryEstimate
	}

	if product.SalePrice != nil && *product.SalePrice > product.Price {
		return nil, appErrors.ValidationError("Sale price cannot exceed the base price")
	}

	product.UpdatedAt = time.Now()

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to update product").WithError(err)
	}

	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, category models.ProductCategory, page, size int) (*models.ProductListResponse, error) {
	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 20
	}

	if category != "" {
		switch category {
		case models.CategorySkincare, models.CategoryMakeup, models.CategoryHaircare, models.CategoryFragrance:
		default:
			return nil, appErrors.BadRequestError("Unknown product category")
		}
	}

	products, total, err := s.repo.ListProducts(ctx, category, page, size)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to list products").WithError(err)
	}

	return &models.ProductListResponse{Products: products, Total: total, Page: page, Size: size}, nil
}
