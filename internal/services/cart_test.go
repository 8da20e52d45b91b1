package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aurelle-beauty/commerce-platform/internal/cartstore"
	cartmocks "github.com/aurelle-beauty/commerce-platform/internal/cartstore/mocks"
	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/aurelle-beauty/commerce-platform/internal/repositories/mocks"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartFixture() (*cartmocks.GuestStore, *cartmocks.UserStore, *mocks.ProductRepository, *service.CartService) {
	guestStore := new(cartmocks.GuestStore)
	userStore := new(cartmocks.UserStore)
	productRepo := new(mocks.ProductRepository)

	return guestStore, userStore, productRepo, service.NewCartService(guestStore, userStore, productRepo)
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Missing Guest Cart Is Empty", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(nil, cartstore.ErrCartNotFound).Once()

		cart, err := cartService.GetCart(ctx, service.CartRef{DeviceID: "device-1"})

		assert.NoError(t, err)
		assert.NotNil(t, cart)
		assert.Empty(t, cart.Items)
		assert.Equal(t, float64(0), cart.Total())
		guestStore.AssertExpectations(t)
	})

	t.Run("Success - Authenticated Reads User Store", func(t *testing.T) {
		_, userStore, _, cartService := newCartFixture()
		userID := uuid.New().String()

		stored := &models.Cart{OwnerKey: userID, Items: []models.CartItem{
			{ProductID: uuid.New(), Name: "Rose Serum", UnitPrice: 20, Quantity: 2},
		}}

		userStore.On("Get", ctx, userID).Return(stored, nil).Once()

		cart, err := cartService.GetCart(ctx, service.CartRef{UserID: userID})

		assert.NoError(t, err)
		assert.Equal(t, stored, cart)
		userStore.AssertExpectations(t)
	})

	t.Run("Failure - Store Error", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(nil, errors.New("redis down")).Once()

		cart, err := cartService.GetCart(ctx, service.CartRef{DeviceID: "device-1"})

		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
		guestStore.AssertExpectations(t)
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("Success - New Line Snapshots Product Price", func(t *testing.T) {
		guestStore, _, productRepo, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(nil, cartstore.ErrCartNotFound).Once()
		productRepo.On("GetProductByID", ctx, productID).Return(&models.Product{
			ID:            productID,
			Name:          "Velvet Lipstick",
			Price:         20,
			SalePrice:     floatPtr(15),
			StockQuantity: 10,
		}, nil).Once()
		guestStore.On("Save", ctx, "device-1", mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.AddItem(ctx, service.CartRef{DeviceID: "device-1"},
			&models.AddItemRequest{ProductID: productID, Quantity: 3})

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, "Velvet Lipstick", cart.Items[0].Name)
		assert.Equal(t, float64(20), cart.Items[0].UnitPrice)
		assert.Equal(t, float64(15), *cart.Items[0].SalePrice)
		assert.Equal(t, 3, cart.Items[0].Quantity)

		// Sale price wins: 3 x 15.
		assert.Equal(t, float64(45), cart.Total())
		assert.Equal(t, 3, cart.ItemCount())
		guestStore.AssertExpectations(t)
		productRepo.AssertExpectations(t)
	})

	t.Run("Success - Existing Line Sums Quantities", func(t *testing.T) {
		guestStore, _, productRepo, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{
			OwnerKey: "device-1",
			Items:    []models.CartItem{{ProductID: productID, Name: "Velvet Lipstick", UnitPrice: 20, Quantity: 2}},
		}, nil).Once()
		guestStore.On("Save", ctx, "device-1", mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.AddItem(ctx, service.CartRef{DeviceID: "device-1"},
			&models.AddItemRequest{ProductID: productID, Quantity: 1})

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		productRepo.AssertNotCalled(t, "GetProductByID")
		guestStore.AssertExpectations(t)
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		guestStore, _, productRepo, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(nil, cartstore.ErrCartNotFound).Once()
		productRepo.On("GetProductByID", ctx, productID).Return(nil, errors.New("no rows")).Once()

		cart, err := cartService.AddItem(ctx, service.CartRef{DeviceID: "device-1"},
			&models.AddItemRequest{ProductID: productID, Quantity: 1})

		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		guestStore.AssertExpectations(t)
		productRepo.AssertExpectations(t)
	})

	t.Run("Failure - Insufficient Stock", func(t *testing.T) {
		guestStore, _, productRepo, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(nil, cartstore.ErrCartNotFound).Once()
		productRepo.On("GetProductByID", ctx, productID).Return(&models.Product{
			ID: productID, Name: "Velvet Lipstick", Price: 20, StockQuantity: 1,
		}, nil).Once()

		cart, err := cartService.AddItem(ctx, service.CartRef{DeviceID: "device-1"},
			&models.AddItemRequest{ProductID: productID, Quantity: 2})

		assert.Error(t, err)
		assert.Nil(t, cart)
		guestStore.AssertNotCalled(t, "Save")
	})

	t.Run("Failure - Non-Positive Quantity", func(t *testing.T) {
		_, _, _, cartService := newCartFixture()

		cart, err := cartService.AddItem(ctx, service.CartRef{DeviceID: "device-1"},
			&models.AddItemRequest{ProductID: productID, Quantity: 0})

		assert.Error(t, err)
		assert.Nil(t, cart)
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	otherID := uuid.New()

	t.Run("Success - Sets Quantity", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{
			OwnerKey: "device-1",
			Items:    []models.CartItem{{ProductID: productID, UnitPrice: 10, Quantity: 1}},
		}, nil).Once()
		guestStore.On("Save", ctx, "device-1", mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.UpdateQuantity(ctx, service.CartRef{DeviceID: "device-1"},
			&models.UpdateQuantityRequest{ProductID: productID, Quantity: 5})

		assert.NoError(t, err)
		assert.Equal(t, 5, cart.Items[0].Quantity)
		guestStore.AssertExpectations(t)
	})

	t.Run("Success - Zero Quantity Removes Line", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{
			OwnerKey: "device-1",
			Items: []models.CartItem{
				{ProductID: productID, UnitPrice: 10, Quantity: 2},
				{ProductID: otherID, UnitPrice: 5, Quantity: 1},
			},
		}, nil).Once()
		guestStore.On("Save", ctx, "device-1", mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.UpdateQuantity(ctx, service.CartRef{DeviceID: "device-1"},
			&models.UpdateQuantityRequest{ProductID: productID, Quantity: 0})

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.Equal(t, otherID, cart.Items[0].ProductID)
		guestStore.AssertExpectations(t)
	})

	t.Run("Failure - Line Not In Cart", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{OwnerKey: "device-1"}, nil).Once()

		cart, err := cartService.UpdateQuantity(ctx, service.CartRef{DeviceID: "device-1"},
			&models.UpdateQuantityRequest{ProductID: productID, Quantity: 2})

		assert.Error(t, err)
		assert.Nil(t, cart)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
		guestStore.AssertExpectations(t)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	t.Run("Success - Absent Product Is A No-Op", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{OwnerKey: "device-1"}, nil).Once()

		cart, err := cartService.RemoveItem(ctx, service.CartRef{DeviceID: "device-1"}, productID)

		assert.NoError(t, err)
		assert.Empty(t, cart.Items)
		guestStore.AssertNotCalled(t, "Save")
		guestStore.AssertExpectations(t)
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Authenticated Deletes Remote Document", func(t *testing.T) {
		_, userStore, _, cartService := newCartFixture()
		userID := uuid.New().String()

		userStore.On("Delete", ctx, userID).Return(nil).Once()

		err := cartService.ClearCart(ctx, service.CartRef{UserID: userID})

		assert.NoError(t, err)
		userStore.AssertExpectations(t)
	})

	t.Run("Success - Guest Deletes Device Blob", func(t *testing.T) {
		guestStore, _, _, cartService := newCartFixture()

		guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		err := cartService.ClearCart(ctx, service.CartRef{DeviceID: "device-1"})

		assert.NoError(t, err)
		guestStore.AssertExpectations(t)
	})
}

func TestMergeGuestCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	p1 := uuid.New()
	p2 := uuid.New()

	t.Run("Success - Quantities Sum And Unknown Lines Append", func(t *testing.T) {
		guestStore, userStore, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{
			OwnerKey: "device-1",
			Items: []models.CartItem{
				{ProductID: p1, Name: "Rose Serum", UnitPrice: 30, Quantity: 2},
				{ProductID: p2, Name: "Clay Mask", UnitPrice: 12, Quantity: 1},
			},
		}, nil).Once()
		userStore.On("Get", ctx, userID).Return(&models.Cart{
			OwnerKey: userID,
			Items:    []models.CartItem{{ProductID: p1, Name: "Rose Serum", UnitPrice: 30, Quantity: 1}},
		}, nil).Once()
		userStore.On("Save", ctx, userID, mock.AnythingOfType("*models.Cart")).Return(nil).Once()
		guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		cart, err := cartService.MergeGuestCart(ctx, "device-1", userID)

		assert.NoError(t, err)
		assert.Len(t, cart.Items, 2)
		assert.Equal(t, p1, cart.Items[0].ProductID)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.Equal(t, p2, cart.Items[1].ProductID)
		assert.Equal(t, 1, cart.Items[1].Quantity)
		guestStore.AssertExpectations(t)
		userStore.AssertExpectations(t)
	})

	t.Run("Success - Guest Cart Becomes Remote When None Exists", func(t *testing.T) {
		guestStore, userStore, _, cartService := newCartFixture()

		guestItems := []models.CartItem{{ProductID: p1, Name: "Rose Serum", UnitPrice: 30, Quantity: 2}}

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{OwnerKey: "device-1", Items: guestItems}, nil).Once()
		userStore.On("Get", ctx, userID).Return(nil, cartstore.ErrCartNotFound).Once()
		userStore.On("Save", ctx, userID, mock.AnythingOfType("*models.Cart")).Return(nil).Once()
		guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		cart, err := cartService.MergeGuestCart(ctx, "device-1", userID)

		assert.NoError(t, err)
		assert.Equal(t, guestItems, cart.Items)
		guestStore.AssertExpectations(t)
		userStore.AssertExpectations(t)
	})

	t.Run("Success - No Guest Cart Leaves Remote Untouched", func(t *testing.T) {
		guestStore, userStore, _, cartService := newCartFixture()

		remote := &models.Cart{OwnerKey: userID, Items: []models.CartItem{{ProductID: p1, UnitPrice: 30, Quantity: 1}}}

		guestStore.On("Get", ctx, "device-1").Return(nil, cartstore.ErrCartNotFound).Once()
		userStore.On("Get", ctx, userID).Return(remote, nil).Once()

		cart, err := cartService.MergeGuestCart(ctx, "device-1", userID)

		assert.NoError(t, err)
		assert.Equal(t, remote, cart)
		userStore.AssertNotCalled(t, "Save")
		guestStore.AssertNotCalled(t, "Delete")
		guestStore.AssertExpectations(t)
		userStore.AssertExpectations(t)
	})

	t.Run("Success - Empty Guest Cart Skips Remote Write", func(t *testing.T) {
		guestStore, userStore, _, cartService := newCartFixture()

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{OwnerKey: "device-1"}, nil).Once()
		userStore.On("Get", ctx, userID).Return(nil, cartstore.ErrCartNotFound).Once()
		guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		cart, err := cartService.MergeGuestCart(ctx, "device-1", userID)

		assert.NoError(t, err)
		assert.Empty(t, cart.Items)
		userStore.AssertNotCalled(t, "Save")
		guestStore.AssertExpectations(t)
		userStore.AssertExpectations(t)
	})

	t.Run("Success - Empty Guest Cart Never Rewrites Existing Remote", func(t *testing.T) {
		guestStore, userStore, _, cartService := newCartFixture()

		remote := &models.Cart{OwnerKey: userID, Items: []models.CartItem{{ProductID: p1, UnitPrice: 30, Quantity: 1}}}

		guestStore.On("Get", ctx, "device-1").Return(&models.Cart{OwnerKey: "device-1"}, nil).Once()
		userStore.On("Get", ctx, userID).Return(remote, nil).Once()
		guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		cart, err := cartService.MergeGuestCart(ctx, "device-1", userID)

		assert.NoError(t, err)
		assert.Equal(t, remote.Items, cart.Items)
		userStore.AssertNotCalled(t, "Save")
		guestStore.AssertExpectations(t)
		userStore.AssertExpectations(t)
	})
}
