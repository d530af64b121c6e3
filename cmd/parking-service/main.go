package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/apiclient"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/config"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/handlers"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/notify"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/payment"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/queue"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

func main() {
	log.Println("Starting Parking Service...")

	cfg := config.Load()

	// Initialize Redis connection
	cache, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.Close()

	// The change journal is optional
	var journal services.ChangeJournal
	if cfg.PostgresEnabled() {
		db, err := database.NewPostgresDB(cfg.Postgres)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.Migrate(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		journal = database.NewJournalRepository(db.DB)
	} else {
		log.Println("DB_HOST not set, order change journal disabled")
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		events = queue.NewPublisher(cfg.RabbitMQURL)
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	var notifier notify.Notifier
	switch {
	case cfg.SMTPEnabled():
		notifier = notify.NewSMTPNotifier(cfg.SMTP)
	case cfg.TemplateEnabled():
		notifier = notify.NewTemplateProvider(cfg.Template)
	default:
		log.Println("No email channel configured, change notifications are only logged")
	}

	client := apiclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	engine := pricing.New(cfg.Pricing)

	// Payment gateways; the configured default goes first.
	// The sandbox settles without taking money, so it is opt-in.
	var sandbox *payment.SandboxGateway
	if cfg.Sandbox.Enabled {
		sandbox = payment.NewSandboxGateway()
		sandbox.SetFailureRate(cfg.Sandbox.FailureRate)
		sandbox.SetTimeoutRate(cfg.Sandbox.TimeoutRate)
		sandbox.SetDeferred(cfg.Sandbox.Deferred, cfg.Sandbox.ReturnURL)
		log.Println("Sandbox gateway enabled, checkouts can complete without payment")
	}

	var stripeGateway *payment.StripeGateway
	var webhooks handlers.WebhookParser
	if cfg.StripeEnabled() {
		stripeGateway = payment.NewStripeGateway(cfg.Stripe)
		webhooks = stripeGateway
		if cfg.Stripe.WebhookSecret == "" {
			log.Println("STRIPE_WEBHOOK_SECRET not set, Stripe webhooks will be refused")
		}
	} else {
		log.Println("STRIPE_SECRET_KEY not set, Stripe gateway disabled")
	}

	var gateways *payment.Registry
	if cfg.Server.DefaultGateway == payment.SandboxGatewayName {
		gateways = payment.NewRegistry(sandboxOrNil(sandbox), stripeOrNil(stripeGateway))
	} else {
		gateways = payment.NewRegistry(stripeOrNil(stripeGateway), sandboxOrNil(sandbox))
	}
	if len(gateways.Names()) == 0 {
		log.Fatalf("No payment gateway configured: set STRIPE_SECRET_KEY, or SANDBOX_ENABLED=true for development")
	}

	catalogService := services.NewCatalogService(client, cache, engine, cfg.API.CatalogCacheTTL)
	checkoutService := services.NewCheckoutService(catalogService, client, gateways, cache, engine, cfg.Stripe.Currency)
	orderService := services.NewOrderService(client, notifier, events, journal)

	// Initialize handlers
	router := handlers.NewEngine(handlers.Router{
		Catalog:        handlers.NewCatalogHandlers(catalogService),
		Checkout:       handlers.NewCheckoutHandlers(checkoutService),
		Payment:        handlers.NewPaymentHandlers(checkoutService, webhooks),
		Admin:          handlers.NewAdminHandlers(catalogService, orderService),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Warm the catalog cache
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if catalog := catalogService.LoadCatalog(ctx); !catalog.Complete() {
			log.Printf("Catalog warm-up incomplete: %+v", catalog)
		}
	}()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Parking Service listening on port %s (gateways: %v)", cfg.Server.Port, gateways.Names())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Parking Service...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Parking Service exited")
}

// stripeOrNil and sandboxOrNil keep a nil pointer from becoming a non-nil Gateway
func stripeOrNil(g *payment.StripeGateway) payment.Gateway {
	if g == nil {
		return nil
	}
	return g
}

func sandboxOrNil(g *payment.SandboxGateway) payment.Gateway {
	if g == nil {
		return nil
	}
	return g
}
