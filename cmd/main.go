package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"factura/internal/caching"
	"factura/internal/config"
	"factura/internal/handlers"
	"factura/internal/jobs"
	"factura/internal/jobs/background"
	"factura/internal/middleware"
	"factura/internal/repositories"
	"factura/internal/services"
	"factura/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Billing configuration
	cfg := config.DefaultBillingConfig()
	if configPath := os.Getenv("BILLING_CONFIG"); configPath != "" {
		cfg, err = config.LoadBillingConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load billing config: %v", err)
		}
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	exportBucket := os.Getenv("EXPORT_BUCKET")
	if exportBucket == "" {
		exportBucket = "invoice-exports"
	}

	documentSvc, err := services.NewDocumentService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize document service: %v", err)
	}

	// Create repositories
	customerRepo := repositories.NewCustomerRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	customerSvc := services.NewCustomerService(customerRepo, cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo)
	invoiceSvc := services.NewInvoiceService(invoiceRepo)

	emailSender := services.NewSMTPEmailSender(cfg.SMTP)
	whatsappSender := services.NewWhatsAppSender(cfg.WhatsApp, cfg.Billing.DefaultCountryCode)
	notifierSvc := services.NewNotifierService(invoiceRepo, customerRepo, emailSender, whatsappSender)

	billingSvc := services.NewBillingService(subscriptionRepo, invoiceRepo, customerRepo, notifierSvc, cfg.Billing.PaymentTermDays)

	// Create jobs
	lockTTL := time.Duration(cfg.Billing.RunLockTTLSeconds) * time.Second
	runner := jobs.NewBillingJobRunner(billingSvc, notifierSvc, invoiceSvc, cacheSvc, lockTTL)
	exporter := jobs.NewInvoiceExporter(invoiceRepo, documentSvc, exportBucket)

	scheduler, err := background.NewJobScheduler(runner, cfg.Billing)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create handlers
	customerHandlers := handlers.NewCustomerHandlers(customerSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, exporter)
	billingHandlers := handlers.NewBillingHandlers(runner, scheduler, cfg.Billing)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)

	// API routes
	v1 := e.Group("/v1")

	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}

	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(middleware.UserContext())

	// Customer routes
	protected.GET("/customers", customerHandlers.ListCustomers)
	protected.POST("/customers", customerHandlers.CreateCustomer)
	protected.GET("/customers/:id", customerHandlers.GetCustomer)
	protected.PUT("/customers/:id", customerHandlers.UpdateCustomer)
	protected.DELETE("/customers/:id", customerHandlers.DeleteCustomer)

	// Subscription routes
	protected.GET("/subscriptions", subscriptionHandlers.ListSubscriptions)
	protected.POST("/subscriptions", subscriptionHandlers.CreateSubscription)
	protected.GET("/subscriptions/:id", subscriptionHandlers.GetSubscription)
	protected.PUT("/subscriptions/:id", subscriptionHandlers.UpdateSubscription)
	protected.POST("/subscriptions/:id/finish", subscriptionHandlers.FinishSubscription)
	protected.DELETE("/subscriptions/:id", subscriptionHandlers.DeleteSubscription)

	// Invoice routes
	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.GET("/invoices/unpaid", invoiceHandlers.GetUnpaidInvoices)
	protected.GET("/invoices/export", invoiceHandlers.ExportInvoices)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PATCH("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)

	// Billing routes (manual triggers for the scheduled jobs)
	protected.POST("/billing/run", billingHandlers.RunBilling)
	protected.POST("/billing/reminders", billingHandlers.RunReminders)
	protected.POST("/billing/overdue-sweep", billingHandlers.RunOverdueSweep)
	protected.GET("/billing/jobs", billingHandlers.GetJobStatus)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Factura server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
