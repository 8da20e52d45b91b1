package models

import (
	"time"

	"github.com/google/uuid"
)

type ProductCategory string

const (
	CategorySkincare  ProductCategory = "skincare"
	CategoryMakeup    ProductCategory = "makeup"
	CategoryHaircare  ProductCategory = "haircare"
	CategoryFragrance ProductCategory = "fragrance"
)

type Product struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Brand            string          `json:"brand"`
	ShortDescription string          `json:"short_description"`
	Description      string          `json:"description"`
	Price            float64         `json:"price"`
	SalePrice        *float64        `json:"sale_price,omitempty"`
	Category         ProductCategory `json:"category"`
	Images           []string        `json:"images"`
	Tags             []string        `json:"tags"`
	StockQuantity    int             `json:"stock_quantity"`
	Rating           float64         `json:"rating"`
	ReviewCount      int             `json:"review_count"`
	DeliveryEstimate string          `json:"delivery_estimate"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// EffectivePrice is the price a buyer actually pays: the sale price when one
// is set and lower than the base price.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice < p.Price {
		return *p.SalePrice
	}

	return p.Price
}

type CreateProductRequest struct {
	Name             string          `json:"name" validate:"required,min=2,max=200"`
	Brand            string          `json:"brand" validate:"required,min=2,max=100"`
	ShortDescription string          `json:"short_description" validate:"required,max=300"`
	Description      string          `json:"description" validate:"required"`
	Price            float64         `json:"price" validate:"required,gt=0"`
	SalePrice        *float64        `json:"sale_price,omitempty" validate:"omitempty,gt=0,ltefield=Price"`
	Category         ProductCategory `json:"category" validate:"required,oneof=skincare makeup haircare fragrance"`
	Images           []string        `json:"images" validate:"required,min=1,dive,url"`
	Tags             []string        `json:"tags"`
	StockQuantity    int             `json:"stock_quantity" validate:"gte=0"`
	DeliveryEstimate string          `json:"delivery_estimate"`
}

type UpdateProductRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Brand            *string          `json:"brand,omitempty" validate:"omitempty,min=2,max=100"`
	ShortDescription *string          `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Description      *string          `json:"description,omitempty"`
	Price            *float64         `json:"price,omitempty" validate:"omitempty,gt=0"`
	SalePrice        *float64         `json:"sale_price,omitempty" validate:"omitempty,gt=0"`
	Category         *ProductCategory `json:"category,omitempty" validate:"omitempty,oneof=skincare makeup haircare fragrance"`
	Images           []string         `json:"images,omitempty" validate:"omitempty,min=1,dive,url"`
	Tags             []string         `json:"tags,omitempty"`
	StockQuantity    *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	DeliveryEstimate *string          `json:"delivery_estimate,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}
