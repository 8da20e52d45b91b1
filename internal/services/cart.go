package service

import (
	"context"
	"errors"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/cartstore"
	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/metrics"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/google/uuid"
)

// CartRef identifies whose cart an operation targets. A non-empty UserID
// means the session is authenticated and the remote document is
// authoritative; otherwise the device-keyed guest blob is.
type CartRef struct {
	UserID   string
	DeviceID string
}

func (r CartRef) Authenticated() bool {
	return r.UserID != ""
}

func (r CartRef) key() string {
	if r.Authenticated() {
		return r.UserID
	}

	return r.DeviceID
}

// CartService presents one consistent cart view regardless of authentication
// state and performs the one-time guest-to-user merge at login.
type CartService struct {
	guest    cartstore.GuestStore
	users    cartstore.UserStore
	products repository.ProductRepository
}

func NewCartService(guest cartstore.GuestStore, users cartstore.UserStore, products repository.ProductRepository) *CartService {
	return &CartService{guest: guest, users: users, products: products}
}

func (s *CartService) load(ctx context.Context, ref CartRef) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)

	if ref.Authenticated() {
		cart, err = s.users.Get(ctx, ref.UserID)
	} else {
		cart, err = s.guest.Get(ctx, ref.DeviceID)
	}

	if err != nil {
		if errors.Is(err, cartstore.ErrCartNotFound) {
			return &models.Cart{OwnerKey: ref.key()}, nil
		}

		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

func (s *CartService) save(ctx context.Context, ref CartRef, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	var err error
	if ref.Authenticated() {
		err = s.users.Save(ctx, ref.UserID, cart)
	} else {
		err = s.guest.Save(ctx, ref.DeviceID, cart)
	}

	if err != nil {
		return appErrors.DatabaseError("Failed to save cart").WithError(err)
	}

	return nil
}

func (s *CartService) GetCart(ctx context.Context, ref CartRef) (*models.Cart, error) {
	return s.load(ctx, ref)
}

// AddItem sums quantities when a line for the product already exists and
// appends a new line otherwise. Prices are snapshotted from the catalog when
// the line is created.
func (s *CartService) AddItem(ctx context.Context, ref CartRef, req *models.AddItemRequest) (*models.Cart, error) {
	if req.Quantity <= 0 {
		return nil, appErrors.BadRequestError("Quantity must be a positive integer")
	}

	cart, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if idx := findLine(cart.Items, req.ProductID); idx >= 0 {
		cart.Items[idx].Quantity += req.Quantity
	} else {
		product, err := s.products.GetProductByID(ctx, req.ProductID)
		if err != nil {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		if product.StockQuantity < req.Quantity {
			return nil, appErrors.BadRequestError("Insufficient stock for this product")
		}

		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			SalePrice: product.SalePrice,
			Quantity:  req.Quantity,
		})
	}

	if err := s.save(ctx, ref, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveItem removes the matching line. Removing an absent product is a
// no-op, not an error.
func (s *CartService) RemoveItem(ctx context.Context, ref CartRef, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	idx := findLine(cart.Items, productID)
	if idx < 0 {
		return cart, nil
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.save(ctx, ref, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// UpdateQuantity replaces a line's quantity; anything at or below zero is
// equivalent to RemoveItem.
func (s *CartService) UpdateQuantity(ctx context.Context, ref CartRef, req *models.UpdateQuantityRequest) (*models.Cart, error) {
	if req.Quantity <= 0 {
		return s.RemoveItem(ctx, ref, req.ProductID)
	}

	cart, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	idx := findLine(cart.Items, req.ProductID)
	if idx < 0 {
		return nil, appErrors.BadRequestError("Item not found in the cart")
	}

	cart.Items[idx].Quantity = req.Quantity

	if err := s.save(ctx, ref, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart empties the cart. For authenticated sessions the remote document
// is deleted outright rather than overwritten with an empty list.
func (s *CartService) ClearCart(ctx context.Context, ref CartRef) error {
	var err error
	if ref.Authenticated() {
		err = s.users.Delete(ctx, ref.UserID)
	} else {
		err = s.guest.Delete(ctx, ref.DeviceID)
	}

	if err != nil {
		return appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

// MergeGuestCart folds the device's guest cart into the user's remote cart,
// exactly once per login transition:
//
//   - remote exists: per-product quantities sum, unknown lines append, merged
//     result is persisted remotely
//   - no remote, guest non-empty: the guest cart becomes the remote cart
//     verbatim
//   - neither: the cart is empty
//
// The guest blob is discarded on success.
func (s *CartService) MergeGuestCart(ctx context.Context, deviceID, userID string) (*models.Cart, error) {
	guestCart, err := s.guest.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, cartstore.ErrCartNotFound) {
			return s.load(ctx, CartRef{UserID: userID})
		}

		return nil, appErrors.DatabaseError("Failed to load guest cart").WithError(err)
	}

	userRef := CartRef{UserID: userID}

	remoteCart, err := s.load(ctx, userRef)
	if err != nil {
		return nil, err
	}

	for _, line := range guestCart.Items {
		if idx := findLine(remoteCart.Items, line.ProductID); idx >= 0 {
			remoteCart.Items[idx].Quantity += line.Quantity
		} else {
			remoteCart.Items = append(remoteCart.Items, line)
		}
	}

	// Nothing folded in means nothing to write; the remote document stays as
	// is and only the guest blob is cleaned up.
	if len(guestCart.Items) > 0 {
		if err := s.save(ctx, userRef, remoteCart); err != nil {
			return nil, err
		}
	}

	if err := s.guest.Delete(ctx, deviceID); err != nil {
		return nil, appErrors.DatabaseError("Failed to discard guest cart").WithError(err)
	}

	metrics.RecordCartMerge()

	return remoteCart, nil
}

func findLine(items []models.CartItem, productID uuid.UUID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}

	return -1
}
