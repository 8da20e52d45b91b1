package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/api/handlers"
	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/cartstore"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	"github.com/aurelle-beauty/commerce-platform/internal/events"
	"github.com/aurelle-beauty/commerce-platform/internal/health"
	"github.com/aurelle-beauty/commerce-platform/internal/metrics"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/aurelle-beauty/commerce-platform/internal/telemetry"
	"github.com/aurelle-beauty/commerce-platform/pkg/sendgrid"
	"github.com/aurelle-beauty/commerce-platform/pkg/sslcommerz"
	"github.com/aurelle-beauty/commerce-platform/pkg/stripe"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	// Tracing setup
	shutdownTracing, err := telemetry.Setup(ctx, &cfg.Telemetry, "commerce-platform")
	if err != nil {
		slog.Error("❌ Error setting up tracing", "error", err.Error())
		os.Exit(1)
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup (guest carts, rate limiting, idempotency keys)
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	// Firestore setup (user carts)
	firestoreClient, err := cartstore.NewFirestoreClient(ctx, &cfg.Firestore)
	if err != nil {
		slog.Error("❌ Error accessing firestore", "error", err.Error())
		os.Exit(1)
	}

	rateLimitRepo := repository.NewRateLimitRepo(redisClient, cfg)
	idempotencyRepo := repository.NewIdempotencyRepo(redisClient)
	guestStore := cartstore.NewRedisGuestStore(redisClient)
	userStore := cartstore.NewFirestoreUserStore(firestoreClient, cfg.Firestore.CartsCollection)

	jwtKey := []byte(cfg.Security.JWTKey)
	stripeClient := stripe.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret)
	gatewayClient := sslcommerz.NewClient(cfg.SSLCommerz.StoreID, cfg.SSLCommerz.StorePassword, cfg.SSLCommerz.BaseURL)

	var emailService sendgrid.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailService = sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		slog.Warn("⚠️ SendGrid not configured, order confirmation emails disabled")
	}

	// Event queue is optional: without it, downstream consumers just don't
	// hear about orders.
	var publisher events.Publisher

	if cfg.AMQP.URL != "" {
		publisher, err = events.NewPublisher(cfg.AMQP.URL)
		if err != nil {
			slog.Error("❌ Error connecting to the event queue", "error", err.Error())
			os.Exit(1)
		}
	} else {
		slog.Warn("⚠️ AMQP not configured, order events disabled")
	}

	cartService := service.NewCartService(guestStore, userStore, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	userService := service.NewUserService(repos.User, rateLimitRepo, cartService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	productService := service.NewProductService(repos.Product)
	productHandler := handlers.NewProductHandler(productService)
	orderService := service.NewOrderService(repos.Order)
	orderHandler := handlers.NewOrderHandler(orderService)
	checkoutService := service.NewCheckoutService(repos.Order, repos.User, cartService,
		gatewayClient, stripeClient, idempotencyRepo, publisher, emailService, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cfg)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{Firestore: firestoreClient})
	if err != nil {
		slog.Error("❌ Error setting up health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))

	routerMux.HandleFunc("GET /api/v1/products", productHandler.List())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.Get())
	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.RequireAdmin(productHandler.Create()))
	routerMux.HandleFunc("PUT /api/v1/products/{id}", authMiddleware.RequireAdmin(productHandler.Update()))

	// Cart routes serve both guests (X-Device-ID) and logged-in users.
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.AuthenticateOptional(cartHandler.Get()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.AuthenticateOptional(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/carts/items", authMiddleware.AuthenticateOptional(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{productId}", authMiddleware.AuthenticateOptional(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts", authMiddleware.AuthenticateOptional(cartHandler.Clear()))

	routerMux.HandleFunc("POST /api/v1/checkout/sslcommerz", authMiddleware.Authenticate(checkoutHandler.InitiateSSLCommerz()))
	routerMux.HandleFunc("POST /api/v1/checkout/stripe/intent", authMiddleware.Authenticate(checkoutHandler.CreateStripeIntent()))

	// Gateway callbacks and webhooks are unauthenticated by nature; the
	// checkout service verifies them against the provider instead.
	routerMux.HandleFunc("POST /api/v1/checkout/sslcommerz/success", checkoutHandler.SSLCommerzSuccess())
	routerMux.HandleFunc("POST /api/v1/checkout/sslcommerz/fail", checkoutHandler.SSLCommerzFail())
	routerMux.HandleFunc("POST /api/v1/checkout/sslcommerz/cancel", checkoutHandler.SSLCommerzCancel())
	routerMux.HandleFunc("POST /api/v1/checkout/stripe/webhook", checkoutHandler.StripeWebhook())

	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.Get()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListMine()))
	routerMux.HandleFunc("GET /api/v1/admin/orders", authMiddleware.RequireAdmin(orderHandler.ListAll()))
	routerMux.HandleFunc("PATCH /api/v1/orders/{id}/status", authMiddleware.RequireAdmin(orderHandler.UpdateStatus()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "commerce-platform")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event queue connection", slog.String("error", err.Error()))
		}
	}

	if err := firestoreClient.Close(); err != nil {
		slog.Error("⚠️ Error closing firestore client", slog.String("error", err.Error()))
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("⚠️ Error closing redis client", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error shutting down tracing", slog.String("error", err.Error()))
	}
}
