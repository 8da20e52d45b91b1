package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	"github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/aurelle-beauty/commerce-platform/internal/utils"
	"github.com/aurelle-beauty/commerce-platform/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// maxWebhookBody caps the Stripe webhook payload read, per Stripe's own
// recommendation.
const maxWebhookBody = 65536

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
	cfg             *config.Config
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService *service.CheckoutService, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, cfg: cfg, validator: validator.New()}
}

func (h *CheckoutHandler) InitiateSSLCommerz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CheckoutRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.checkoutService.InitiateSSLCommerz(r.Context(), claims, &req)
		if err != nil {
			slog.Error("Checkout initiation failed", slog.String("userId", claims.UserID.String()), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}

// redirect sends the gateway's browser back to the storefront. 303 forces the
// follow-up to be a GET even though the gateway POSTs the callback.
func (h *CheckoutHandler) redirect(w http.ResponseWriter, r *http.Request, path string, params url.Values) {
	target := h.cfg.Checkout.StorefrontBaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// SSLCommerzSuccess is the gateway's server-to-server success callback. The
// outcome decides the redirect; duplicates land on the success page too.
func (h *CheckoutHandler) SSLCommerzSuccess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.redirect(w, r, "/checkout/failure", url.Values{"code": {models.CallbackErrInvalidPayload}})

			return
		}

		outcome := h.checkoutService.HandleSSLCommerzSuccess(r.Context(), models.GatewayCallbackFromForm(r.PostForm))
		if !outcome.Succeeded {
			h.redirect(w, r, "/checkout/failure", url.Values{"code": {outcome.Code}})

			return
		}

		h.redirect(w, r, "/checkout/success", url.Values{"order_id": {outcome.OrderID.String()}})
	}
}

func (h *CheckoutHandler) SSLCommerzFail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.redirect(w, r, "/checkout/failure", url.Values{"code": {"payment_failed"}})
	}
}

func (h *CheckoutHandler) SSLCommerzCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.redirect(w, r, "/cart", nil)
	}
}

func (h *CheckoutHandler) CreateStripeIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CheckoutRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		idempotencyKey := r.Header.Get("Idempotency-Key")

		resp, err := h.checkoutService.CreateStripeIntent(r.Context(), claims, &req, idempotencyKey)
		if err != nil {
			slog.Error("Payment intent creation failed", slog.String("userId", claims.UserID.String()), slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}

func (h *CheckoutHandler) StripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			response.Error(w, errors.BadRequestError("Failed to read webhook payload"))

			return
		}

		signature := r.Header.Get("Stripe-Signature")

		if err := h.checkoutService.ProcessStripeWebhook(r.Context(), payload, signature); err != nil {
			slog.Error("Webhook processing failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
