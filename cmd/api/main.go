package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/QuocDL/bitis-be/db"
	"github.com/QuocDL/bitis-be/internal/config"
	"github.com/QuocDL/bitis-be/internal/handler"
	"github.com/QuocDL/bitis-be/internal/mailer"
	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/payment"
	"github.com/QuocDL/bitis-be/internal/repository"
	"github.com/QuocDL/bitis-be/internal/service"
	appvalidator "github.com/QuocDL/bitis-be/internal/validator"
	"github.com/QuocDL/bitis-be/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Apply the embedded schema. Statements are idempotent.
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Bitis Storefront API",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator with custom validations
	validate := appvalidator.New()

	// Boundary collaborators
	gateway := payment.NewVNPay(cfg.VNPay)
	mail := mailer.New(cfg.Mail)

	// Repositories
	voucherRepo := repository.NewVoucherRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// Services
	voucherService := service.NewVoucherService(pool, voucherRepo, redemptionRepo)
	redemptionService := service.NewRedemptionService(pool, voucherRepo, redemptionRepo, userRepo)
	authService := service.NewAuthService(userRepo, mail, cfg.JWT)
	productService := service.NewProductService(pool, productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	checkoutService := service.NewCheckoutService(pool, productRepo, orderRepo, cartRepo, redemptionService, gateway, mail)
	orderService := service.NewOrderService(pool, orderRepo, productRepo, redemptionService)
	statsService := service.NewStatsService(statsRepo)

	// Handlers
	healthHandler := handler.NewHealthHandler(pool)
	authHandler := handler.NewAuthHandler(authService, validate)
	voucherHandler := handler.NewVoucherHandler(voucherService, redemptionService, validate)
	productHandler := handler.NewProductHandler(productService, validate)
	cartHandler := handler.NewCartHandler(cartService, validate)
	catalogHandler := handler.NewCatalogHandler(catalogService, validate)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, validate)
	orderHandler := handler.NewOrderHandler(orderService, validate)
	statsHandler := handler.NewStatsHandler(statsService)

	app.Get("/health", healthHandler.Check)

	auth := middleware.RequireAuth(cfg.JWT)
	admin := middleware.RequireAdmin()
	api := app.Group("/api")

	// Auth routes
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/forgot-password", authHandler.ForgotPassword)
	api.Get("/auth/me", auth, authHandler.Profile)

	// Admin account management
	api.Get("/users/all", auth, admin, authHandler.ListUsers)

	// Admin reports
	api.Get("/stats/total", auth, admin, statsHandler.Total)
	api.Get("/stats/orders-by-day", auth, admin, statsHandler.OrdersByDay)

	// Storefront routes (public)
	api.Get("/products/top-selling", productHandler.TopSelling)
	api.Get("/products/top-discounted", productHandler.TopDiscounted)
	api.Get("/products/:id", productHandler.Get)
	api.Get("/products", productHandler.List)
	api.Get("/catalog/:kind/:id", catalogHandler.Get)
	api.Get("/catalog/:kind", catalogHandler.List)

	// Admin catalog management
	api.Post("/products", auth, admin, productHandler.Create)
	api.Put("/products/:id", auth, admin, productHandler.Update)
	api.Delete("/products/:id", auth, admin, productHandler.Delete)
	api.Post("/catalog/:kind", auth, admin, catalogHandler.Create)
	api.Put("/catalog/:kind/:id", auth, admin, catalogHandler.Update)

	// Voucher routes
	api.Post("/vouchers/preview", auth, voucherHandler.Preview)
	api.Get("/vouchers/all", auth, admin, voucherHandler.List)
	api.Post("/vouchers", auth, admin, voucherHandler.Create)
	api.Get("/vouchers/:id", auth, admin, voucherHandler.Get)
	api.Put("/vouchers/:id", auth, admin, voucherHandler.Update)
	api.Patch("/vouchers/update-status/:id", auth, admin, voucherHandler.UpdateStatus)
	api.Delete("/vouchers/:id", auth, admin, voucherHandler.Delete)

	// Cart routes
	api.Get("/cart", auth, cartHandler.Get)
	api.Post("/cart/add", auth, cartHandler.Add)
	api.Patch("/cart/update", auth, cartHandler.Update)
	api.Delete("/cart/remove", auth, cartHandler.Remove)

	// Checkout and order routes
	api.Post("/checkout", auth, checkoutHandler.CheckoutCOD)
	api.Post("/checkout/vnpay", auth, checkoutHandler.CheckoutVNPay)
	api.Get("/checkout/vnpay/return", checkoutHandler.VNPayReturn)
	// The gateway's server-to-server notification carries the same signed
	// parameters as the browser redirect.
	api.Get("/checkout/vnpay/ipn", checkoutHandler.VNPayReturn)
	api.Get("/orders/all", auth, admin, orderHandler.ListAll)
	api.Get("/orders/:id", auth, orderHandler.Get)
	api.Get("/orders", auth, orderHandler.ListMine)
	api.Patch("/orders/:id/status", auth, orderHandler.SetStatus)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
