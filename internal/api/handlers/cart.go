package handlers

import (
	"net/http"

	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/aurelle-beauty/commerce-platform/internal/utils"
	"github.com/aurelle-beauty/commerce-platform/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService *service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// refFromRequest resolves whose cart a request targets: authenticated
// sessions act on the user cart, anonymous ones on the X-Device-ID guest
// cart. A request with neither has no cart to act on.
func refFromRequest(r *http.Request) (service.CartRef, error) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return service.CartRef{UserID: claims.UserID.String()}, nil
	}

	deviceID := r.Header.Get(middleware.DeviceIDHeader)
	if deviceID == "" {
		return service.CartRef{}, errors.BadRequestError("X-Device-ID header is required for guest carts")
	}

	return service.CartRef{DeviceID: deviceID}, nil
}

func (h *CartHandler) cartResponse(w http.ResponseWriter, cart *models.Cart) {
	response.Success(w, http.StatusOK, models.CartResponse{
		Cart:      cart,
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	})
}

func (h *CartHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := refFromRequest(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		cart, err := h.cartService.GetCart(r.Context(), ref)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.cartResponse(w, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := refFromRequest(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		var req models.AddItemRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), ref, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.cartResponse(w, cart)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := refFromRequest(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		var req models.UpdateQuantityRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.UpdateQuantity(r.Context(), ref, &req)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.cartResponse(w, cart)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := refFromRequest(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		productID, err := uuid.Parse(r.PathValue("productId"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product id"))

			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), ref, productID)
		if err != nil {
			response.Error(w, err)

			return
		}

		h.cartResponse(w, cart)
	}
}

func (h *CartHandler) Clear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := refFromRequest(r)
		if err != nil {
			response.Error(w, err)

			return
		}

		if err := h.cartService.ClearCart(r.Context(), ref); err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
	}
}
