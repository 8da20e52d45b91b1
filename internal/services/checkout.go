package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/events"
	"github.com/aurelle-beauty/commerce-platform/internal/metrics"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/aurelle-beauty/commerce-platform/pkg/sendgrid"
	"github.com/aurelle-beauty/commerce-platform/pkg/sslcommerz"
	stripeClient "github.com/aurelle-beauty/commerce-platform/pkg/stripe"
	"github.com/google/uuid"
)

const (
	ProviderSSLCommerz = "sslcommerz"
	ProviderStripe     = "stripe"
)

// CheckoutService turns a payment event from either provider into exactly one
// order record, idempotent on the provider transaction id.
type CheckoutService struct {
	orders    repository.OrderRepository
	userRepo  repository.UserRepository
	carts     *CartService
	gateway   sslcommerz.Client
	stripe    stripeClient.Client
	idem      repository.IdempotencyRepository
	publisher events.Publisher
	email     sendgrid.EmailService
	cfg       *config.Config
}

func NewCheckoutService(
	orders repository.OrderRepository,
	userRepo repository.UserRepository,
	carts *CartService,
	gateway sslcommerz.Client,
	stripe stripeClient.Client,
	idem repository.IdempotencyRepository,
	publisher events.Publisher,
	email sendgrid.EmailService,
	cfg *config.Config,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		userRepo:  userRepo,
		carts:     carts,
		gateway:   gateway,
		stripe:    stripe,
		idem:      idem,
		publisher: publisher,
		email:     email,
		cfg:       cfg,
	}
}

func (s *CheckoutService) currency(requested string) string {
	if requested != "" {
		return requested
	}

	return s.cfg.Checkout.DefaultCurrency
}

// InitiateSSLCommerz snapshots the caller's cart and opens a hosted-redirect
// session. The cart items, shipping address and user id travel through the
// gateway's opaque pass-through fields and come back on the callback.
func (s *CheckoutService) InitiateSSLCommerz(ctx context.Context, claims *models.Claims, req *models.CheckoutRequest) (*models.InitiateCheckoutResponse, error) {
	if s.cfg.SSLCommerz.StoreID == "" || s.cfg.SSLCommerz.StorePassword == "" {
		return nil, appErrors.MisconfiguredError("Payment gateway credentials are not configured")
	}

	cart, err := s.carts.GetCart(ctx, CartRef{UserID: claims.UserID.String()})
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, appErrors.BadRequestError("Cannot check out an empty cart")
	}

	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, appErrors.InternalError("Failed to encode cart snapshot").WithError(err)
	}

	addressJSON, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return nil, appErrors.InternalError("Failed to encode shipping address").WithError(err)
	}

	callbackBase := s.cfg.Checkout.ServerBaseURL + "/api/v1/checkout/sslcommerz/"

	initResp, err := s.gateway.InitiateSession(ctx, &sslcommerz.InitRequest{
		TotalAmount:     cart.Total(),
		Currency:        s.currency(req.Currency),
		TransactionID:   uuid.NewString(),
		SuccessURL:      callbackBase + "success",
		FailURL:         callbackBase + "fail",
		CancelURL:       callbackBase + "cancel",
		CustomerName:    req.ShippingAddress.Name,
		CustomerEmail:   claims.Email,
		Address:         req.ShippingAddress.Address,
		City:            req.ShippingAddress.City,
		State:           req.ShippingAddress.State,
		Zip:             req.ShippingAddress.Zip,
		Country:         req.ShippingAddress.Country,
		ProductName:     "Aurelle Beauty Order",
		ProductCategory: "beauty",
		ValueA:          string(itemsJSON),
		ValueB:          string(addressJSON),
		ValueC:          claims.UserID.String(),
	})
	if err != nil {
		return nil, appErrors.GatewayError("Failed to start payment session").WithError(err)
	}

	metrics.RecordCheckoutAttempt(ProviderSSLCommerz)

	return &models.InitiateCheckoutResponse{GatewayURL: initResp.GatewayPageURL}, nil
}

// HandleSSLCommerzSuccess processes the gateway's server-to-server success
// callback. The provider may deliver it more than once; the transaction-id
// existence check makes order creation idempotent. The returned outcome tells
// the handler where to send the browser — no error is raised for flow
// control.
func (s *CheckoutService) HandleSSLCommerzSuccess(ctx context.Context, cb models.GatewayCallback) models.CallbackOutcome {
	logger := middleware.LoggerFromContext(ctx)

	if cb.ValID == "" || cb.TransactionID == "" {
		logger.Warn("Gateway callback missing val_id or tran_id")

		return models.CallbackOutcome{Code: models.CallbackErrInvalidPayload}
	}

	validation, err := s.gateway.ValidateTransaction(ctx, cb.ValID)
	if err != nil {
		logger.Error("Gateway validation call failed", slog.String("error", err.Error()))

		return models.CallbackOutcome{Code: models.CallbackErrGatewayDown}
	}

	if !validation.Valid() {
		logger.Warn("Gateway rejected transaction",
			slog.String("tranId", cb.TransactionID),
			slog.String("status", validation.Status))

		return models.CallbackOutcome{Code: models.CallbackErrValidationFail}
	}

	// Duplicate-delivery guard: a second callback for the same transaction id
	// finds the existing order and succeeds without a second insert.
	existing, err := s.orders.GetOrderByTransactionID(ctx, cb.TransactionID)
	if err == nil {
		logger.Info("Duplicate gateway callback, order already exists",
			slog.String("orderId", existing.ID.String()))

		return models.CallbackOutcome{Succeeded: true, Duplicate: true, Code: models.CallbackOK, OrderID: existing.ID}
	}

	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error("Failed to check for existing order", slog.String("error", err.Error()))

		return models.CallbackOutcome{Code: models.CallbackErrPersistenceFail}
	}

	order, appErr := buildOrderFromCallback(cb)
	if appErr != nil {
		logger.Warn("Malformed gateway callback payload", slog.String("error", appErr.Error()))

		return models.CallbackOutcome{Code: models.CallbackErrInvalidPayload}
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		logger.Error("Failed to persist order from callback", slog.String("error", err.Error()))

		return models.CallbackOutcome{Code: models.CallbackErrPersistenceFail}
	}

	// Checkout completion destroys the cart. Best-effort: the order exists
	// either way.
	if err := s.carts.ClearCart(ctx, CartRef{UserID: order.UserID.String()}); err != nil {
		logger.Warn("Failed to clear cart after checkout", slog.String("error", err.Error()))
	}

	s.notifyOrderPaid(ctx, order, ProviderSSLCommerz)
	metrics.RecordOrderFinalized(ProviderSSLCommerz, "paid")

	logger.Info("Order finalized from gateway callback",
		slog.String("orderId", order.ID.String()),
		slog.String("tranId", cb.TransactionID))

	return models.CallbackOutcome{Succeeded: true, Code: models.CallbackOK, OrderID: order.ID}
}

func buildOrderFromCallback(cb models.GatewayCallback) (*models.Order, *appErrors.AppError) {
	var items []models.CartItem
	if err := json.Unmarshal([]byte(cb.ValueA), &items); err != nil || len(items) == 0 {
		return nil, appErrors.BadRequestError("Callback carries no decodable cart items").WithError(err)
	}

	var address models.Address
	if err := json.Unmarshal([]byte(cb.ValueB), &address); err != nil {
		return nil, appErrors.BadRequestError("Callback carries no decodable shipping address").WithError(err)
	}

	userID, err := uuid.Parse(strings.TrimSpace(cb.ValueC))
	if err != nil {
		return nil, appErrors.BadRequestError("Callback carries no valid user id").WithError(err)
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.OrderStatusPaid,
		TransactionID:   cb.TransactionID,
		ShippingAddress: address,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	var total float64

	for i := range items {
		unitPrice := items[i].EffectivePrice()
		total += unitPrice * float64(items[i].Quantity)

		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: items[i].ProductID,
			Name:      items[i].Name,
			Quantity:  items[i].Quantity,
			UnitPrice: unitPrice,
			CreatedAt: time.Now(),
		})
	}

	order.Total = total

	return order, nil
}

// CreateStripeIntent pre-creates a processing order and opens a payment
// intent tagged with its id. An Idempotency-Key header lets retried requests
// land on the already-created order instead of spawning a duplicate: the key
// is reserved only once the intent exists, and the stored record carries the
// client secret, so a replay returns a payable response and a retry after a
// gateway failure finds the key still free.
func (s *CheckoutService) CreateStripeIntent(ctx context.Context, claims *models.Claims, req *models.CheckoutRequest, idempotencyKey string) (*models.StripeIntentResponse, error) {
	if s.cfg.Stripe.APIKey == "" {
		return nil, appErrors.MisconfiguredError("Stripe credentials are not configured")
	}

	if idempotencyKey != "" {
		record, err := s.idem.Get(ctx, idempotencyKey)
		if err != nil {
			return nil, appErrors.DatabaseError("Failed to check idempotency key").WithError(err)
		}

		if record != nil {
			return &models.StripeIntentResponse{OrderID: record.OrderID, ClientSecret: record.ClientSecret}, nil
		}
	}

	cart, err := s.carts.GetCart(ctx, CartRef{UserID: claims.UserID.String()})
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, appErrors.BadRequestError("Cannot check out an empty cart")
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          claims.UserID,
		Status:          models.OrderStatusProcessing,
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	var total float64

	for i := range cart.Items {
		unitPrice := cart.Items[i].EffectivePrice()
		total += unitPrice * float64(cart.Items[i].Quantity)

		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: cart.Items[i].ProductID,
			Name:      cart.Items[i].Name,
			Quantity:  cart.Items[i].Quantity,
			UnitPrice: unitPrice,
			CreatedAt: time.Now(),
		})
	}

	order.Total = total

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, appErrors.DatabaseError("Failed to create order").WithError(err)
	}

	amountMinor := int64(math.Round(total * 100))

	intent, err := s.stripe.CreatePaymentIntent(amountMinor,
		strings.ToLower(s.currency(req.Currency)), "Aurelle Beauty Order", order.ID.String())
	if err != nil {
		return nil, appErrors.GatewayError("Failed to create payment intent").WithError(err)
	}

	if idempotencyKey != "" {
		if resp, done := s.reserveIntentKey(ctx, idempotencyKey, order, intent.ClientSecret); done {
			return resp, nil
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order, ProviderStripe); err != nil {
			middleware.LoggerFromContext(ctx).Warn("Failed to publish order.created",
				slog.String("error", err.Error()))
		}
	}

	metrics.RecordCheckoutAttempt(ProviderStripe)

	return &models.StripeIntentResponse{OrderID: order.ID, ClientSecret: intent.ClientSecret}, nil
}

// reserveIntentKey stamps the idempotency key with the freshly created order
// and intent. When the atomic reservation is lost to a concurrent request
// with the same key, our order is abandoned and the winner's record is
// returned instead, so the caller sees exactly one payable order per key.
func (s *CheckoutService) reserveIntentKey(ctx context.Context, key string, order *models.Order, clientSecret string) (*models.StripeIntentResponse, bool) {
	logger := middleware.LoggerFromContext(ctx)

	record := repository.IdempotencyRecord{OrderID: order.ID, ClientSecret: clientSecret}

	reserved, err := s.idem.Put(ctx, key, record, s.cfg.Checkout.IdempotencyTTL)
	if err != nil {
		logger.Warn("Failed to reserve idempotency key", slog.String("error", err.Error()))

		return nil, false
	}

	if reserved {
		return nil, false
	}

	winner, err := s.idem.Get(ctx, key)
	if err != nil || winner == nil {
		logger.Warn("Lost idempotency reservation but could not load winning record",
			slog.String("key", key))

		return nil, false
	}

	if err := s.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusFailed); err != nil {
		logger.Warn("Failed to abandon order after lost idempotency race",
			slog.String("orderId", order.ID.String()), slog.String("error", err.Error()))
	}

	logger.Info("Concurrent request with same idempotency key won, returning its order",
		slog.String("orderId", winner.OrderID.String()))

	return &models.StripeIntentResponse{OrderID: winner.OrderID, ClientSecret: winner.ClientSecret}, true
}

// ProcessStripeWebhook settles a pre-created order from the provider's
// asynchronous confirmation. The payment intent id becomes the order's
// transaction id; replays of the same event are no-ops.
func (s *CheckoutService) ProcessStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	logger := middleware.LoggerFromContext(ctx)

	event, err := s.stripe.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return appErrors.UnauthorizedError("Webhook signature verification failed").WithError(err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		logger.Debug("Ignoring webhook event", slog.String("type", string(event.Type)))

		return nil
	}

	intentID, orderID, appErr := parseIntentEvent(event)
	if appErr != nil {
		return appErr
	}

	// Idempotency: a replayed event finds its transaction id already stamped.
	if existing, err := s.orders.GetOrderByTransactionID(ctx, intentID); err == nil {
		logger.Info("Duplicate webhook delivery, order already settled",
			slog.String("orderId", existing.ID.String()))

		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.DatabaseError("Failed to check for settled order").WithError(err)
	}

	if event.Type == "payment_intent.payment_failed" {
		if err := s.orders.UpdateOrderStatus(ctx, orderID, models.OrderStatusFailed); err != nil {
			return appErrors.DatabaseError("Failed to mark order failed").WithError(err)
		}

		metrics.RecordOrderFinalized(ProviderStripe, "failed")

		return nil
	}

	if err := s.orders.MarkOrderPaid(ctx, orderID, intentID); err != nil {
		return appErrors.DatabaseError("Failed to mark order paid").WithError(err)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return appErrors.DatabaseError("Failed to reload settled order").WithError(err)
	}

	if err := s.carts.ClearCart(ctx, CartRef{UserID: order.UserID.String()}); err != nil {
		logger.Warn("Failed to clear cart after payment", slog.String("error", err.Error()))
	}

	s.notifyOrderPaid(ctx, order, ProviderStripe)
	metrics.RecordOrderFinalized(ProviderStripe, "paid")

	return nil
}

func parseIntentEvent(event stripeClient.Event) (string, uuid.UUID, *appErrors.AppError) {
	object := event.Data.Object

	intentID, ok := object["id"].(string)
	if !ok || intentID == "" {
		return "", uuid.Nil, appErrors.GatewayError("Missing payment intent id in webhook")
	}

	metadata, ok := object["metadata"].(map[string]any)
	if !ok {
		return "", uuid.Nil, appErrors.GatewayError("Missing metadata in webhook")
	}

	orderIDStr, ok := metadata[stripeClient.OrderIDMetadataKey].(string)
	if !ok {
		return "", uuid.Nil, appErrors.GatewayError("Missing order id in webhook metadata")
	}

	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		return "", uuid.Nil, appErrors.GatewayError("Invalid order id in webhook metadata")
	}

	return intentID, orderID, nil
}

// notifyOrderPaid fans out to the event queue and the confirmation email.
// Both are best-effort: the order is already durable.
func (s *CheckoutService) notifyOrderPaid(ctx context.Context, order *models.Order, provider string) {
	logger := middleware.LoggerFromContext(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPaid(ctx, order, provider); err != nil {
			logger.Warn("Failed to publish order.paid", slog.String("error", err.Error()))
		}
	}

	if s.email == nil {
		return
	}

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logger.Warn("Failed to look up user for confirmation email", slog.String("error", err.Error()))

		return
	}

	if err := s.email.SendOrderConfirmation(ctx, user.Email, order); err != nil {
		logger.Warn("Failed to send order confirmation email", slog.String("error", err.Error()))
	}
}
