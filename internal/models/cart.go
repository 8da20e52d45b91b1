package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a single line in a cart. Unit and sale price are snapshotted
// from the product at the time the line is created so totals can be computed
// without re-reading the catalog.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id" firestore:"productId"`
	Name      string    `json:"name" firestore:"name"`
	UnitPrice float64   `json:"unit_price" firestore:"unitPrice"`
	SalePrice *float64  `json:"sale_price,omitempty" firestore:"salePrice,omitempty"`
	Quantity  int       `json:"quantity" firestore:"quantity"`
}

// EffectivePrice mirrors Product.EffectivePrice for the snapshotted line.
func (i *CartItem) EffectivePrice() float64 {
	if i.SalePrice != nil && *i.SalePrice < i.UnitPrice {
		return *i.SalePrice
	}

	return i.UnitPrice
}

// Cart is an ordered sequence of lines, at most one per product id. The owner
// key is either a device id (guest) or a user id (authenticated).
type Cart struct {
	OwnerKey  string     `json:"owner_key" firestore:"ownerKey"`
	Items     []CartItem `json:"items" firestore:"items"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// Total sums effective price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].EffectivePrice() * float64(c.Items[i].Quantity)
	}

	return total
}

// ItemCount is the sum of quantities across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for i := range c.Items {
		count += c.Items[i].Quantity
	}

	return count
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest carries no lower bound on quantity: anything at or
// below zero means "remove the line".
type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type CartResponse struct {
	Cart      *Cart   `json:"cart"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}
