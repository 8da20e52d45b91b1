package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/aurelle-beauty/commerce-platform/internal/utils"
	"github.com/aurelle-beauty/commerce-platform/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validate
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService, validator: validator.New()}
}

func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		user, err := h.userService.RegisterUser(r.Context(), &req)
		if err != nil {
			slog.Error("User registration failed", slog.String("email", req.Email), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		slog.Info("User registered", slog.String("userId", user.ID.String()))
		response.Success(w, http.StatusCreated, user)
	}
}

// Login issues a token. When the request also carries X-Device-ID, the
// device's guest cart is merged into the user's cart as part of the same
// call.
func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		deviceID := r.Header.Get(middleware.DeviceIDHeader)

		resp, err := h.userService.Login(r.Context(), &req, deviceID)
		if err != nil {
			slog.Warn("Login failed", slog.String("email", req.Email), slog.String("error", err.Error()))

			if resp != nil {
				status := http.StatusUnauthorized
				if resp.RetryAfter > 0 {
					status = http.StatusTooManyRequests
				}

				response.WriteJson(w, status, resp)

				return
			}

			response.Error(w, err)

			return
		}

		slog.Info("User logged in", slog.String("email", req.Email), slog.Bool("cartMerged", resp.CartMerged))
		response.WriteJson(w, http.StatusOK, resp)
	}
}

func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		user, err := h.userService.GetProfile(r.Context(), claims)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, user)
	}
}
