package cartstore

import (
	"context"
	"errors"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
)

// ErrCartNotFound is returned by both stores when no cart exists for the key.
var ErrCartNotFound = errors.New("cart not found")

// GuestStore holds anonymous carts keyed by device id. Contents are transient
// scratch space that only matters before login and during the one-time merge.
type GuestStore interface {
	Get(ctx context.Context, deviceID string) (*models.Cart, error)
	Save(ctx context.Context, deviceID string, cart *models.Cart) error
	Delete(ctx context.Context, deviceID string) error
}

// UserStore holds the authoritative cart of an authenticated user: one
// document per user id, overwritten whole on every mutation.
type UserStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, userID string, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
}
