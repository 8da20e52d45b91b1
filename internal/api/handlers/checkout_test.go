package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/api/handlers"
	cartmocks "github.com/aurelle-beauty/commerce-platform/internal/cartstore/mocks"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	"github.com/aurelle-beauty/commerce-platform/internal/repositories/mocks"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/aurelle-beauty/commerce-platform/internal/testutils"
	sslmocks "github.com/aurelle-beauty/commerce-platform/pkg/sslcommerz/mocks"
	stripemocks "github.com/aurelle-beauty/commerce-platform/pkg/stripe/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCheckoutHandlerFixture() (*sslmocks.Client, *handlers.CheckoutHandler) {
	orders := new(mocks.OrderRepository)
	users := new(mocks.UserRepository)
	guestStore := new(cartmocks.GuestStore)
	userStore := new(cartmocks.UserStore)
	productRepo := new(mocks.ProductRepository)
	gateway := new(sslmocks.Client)
	stripeMock := new(stripemocks.Client)
	idem := new(mocks.IdempotencyRepository)

	cfg := &config.Config{
		SSLCommerz: config.SSLCommerz{StoreID: "store", StorePassword: "secret"},
		Checkout: config.Checkout{
			StorefrontBaseURL: "http://storefront.test",
			ServerBaseURL:     "http://api.test",
			DefaultCurrency:   "USD",
			IdempotencyTTL:    24 * time.Hour,
		},
	}

	carts := service.NewCartService(guestStore, userStore, productRepo)
	checkoutService := service.NewCheckoutService(orders, users, carts, gateway, stripeMock, idem, nil, nil, cfg)

	return gateway, handlers.NewCheckoutHandler(checkoutService, cfg)
}

func TestSSLCommerzCallbacks(t *testing.T) {
	t.Run("Missing Payload Redirects To Failure Page", func(t *testing.T) {
		_, handler := newCheckoutHandlerFixture()

		form := url.Values{}
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout/sslcommerz/success",
			strings.NewReader(form.Encode()), nil)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		handler.SSLCommerzSuccess()(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "http://storefront.test/checkout/failure?code=invalid_payload", rec.Header().Get("Location"))
	})

	t.Run("Gateway Outage Redirects With Its Own Code", func(t *testing.T) {
		gateway, handler := newCheckoutHandlerFixture()

		gateway.On("ValidateTransaction", mock.Anything, "val-1").Return(nil, assert.AnError).Once()

		form := url.Values{"val_id": {"val-1"}, "tran_id": {"tran-1"}}
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout/sslcommerz/success",
			strings.NewReader(form.Encode()), nil)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		handler.SSLCommerzSuccess()(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "http://storefront.test/checkout/failure?code=gateway_unavailable", rec.Header().Get("Location"))
		gateway.AssertExpectations(t)
	})

	t.Run("Fail Callback Redirects To Failure Page", func(t *testing.T) {
		_, handler := newCheckoutHandlerFixture()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout/sslcommerz/fail", nil, nil)
		rec := httptest.NewRecorder()

		handler.SSLCommerzFail()(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "http://storefront.test/checkout/failure?code=payment_failed", rec.Header().Get("Location"))
	})

	t.Run("Cancel Callback Redirects To Cart", func(t *testing.T) {
		_, handler := newCheckoutHandlerFixture()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout/sslcommerz/cancel", nil, nil)
		rec := httptest.NewRecorder()

		handler.SSLCommerzCancel()(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "http://storefront.test/cart", rec.Header().Get("Location"))
	})
}

func TestStripeWebhookHandler(t *testing.T) {
	t.Run("Unauthenticated Callers Without Claims Are Rejected", func(t *testing.T) {
		_, handler := newCheckoutHandlerFixture()

		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/checkout/stripe/intent",
			strings.NewReader(`{}`), nil)
		rec := httptest.NewRecorder()

		handler.CreateStripeIntent()(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
