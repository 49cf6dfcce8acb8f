package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/retailbots/whatsapp-retailer-backend/database"
	"github.com/retailbots/whatsapp-retailer-backend/internal/handlers"
	"github.com/retailbots/whatsapp-retailer-backend/internal/jobs"
	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/routes"
	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		if err := database.Connect(); err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Item{},
			&models.Sale{},
			&models.WhatsAppSession{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}
	storage.SetStore(store)

	// Message transport
	var sender services.MessageSender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio not configured (%v) - replies will be logged only", err)
		sender = logSender{}
	} else {
		log.Println("✅ Twilio service initialized")
		sender = twilioService
	}

	// Invoice artifacts
	invoiceDir := os.Getenv("INVOICE_STORAGE_PATH")
	if invoiceDir == "" {
		invoiceDir = "./storage/invoices"
	}
	renderer, err := services.NewTextInvoiceRenderer(invoiceDir)
	if err != nil {
		log.Fatal("Failed to initialize invoice renderer:", err)
	}

	// Core services
	clock := services.NewRealClock()
	verifier := services.NewStoreCredentialVerifier(store)
	sessionManager := services.NewSessionManager(
		store, verifier, services.NewSecureTokenGenerator(), clock,
		hoursFromEnv("SESSION_TTL_HOURS", services.DefaultSessionTTL),
	)
	ledger := services.NewStockLedger(store)
	workflow := services.NewInvoiceWorkflow(
		store, ledger, renderer, sender, clock,
		hoursFromEnv("CONFIRM_WINDOW_HOURS", services.DefaultConfirmWindow),
	)
	inventory := services.NewInventoryService(store)

	// Reservations held by sales that were pending at last shutdown
	if err := workflow.RehydrateReservations(); err != nil {
		log.Fatal("Failed to restore pending reservations:", err)
	}

	inventoryBot := services.NewInventoryBot(store, sessionManager, inventory)
	invoiceBot := services.NewInvoiceBot(store, sessionManager, workflow)

	// Scheduled sweeps
	expiryJob := jobs.NewExpiryJob(workflow, sessionManager, sender, clock)
	expiryJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "WhatsApp Retailer Bots v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, &routes.Handlers{
		Health:   handlers.NewHealthHandler(version),
		Auth:     handlers.NewAuthHandler(verifier, jwtSecret, 24*time.Hour),
		Items:    handlers.NewItemHandler(inventory),
		Sales:    handlers.NewSaleHandler(store),
		WhatsApp: handlers.NewWhatsAppHandler(inventoryBot, invoiceBot, sender),
	}, jwtSecret)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("\n🛑 Gracefully shutting down...")
		expiryJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 WhatsApp Retailer Bots starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 WhatsApp: %s", whatsappStatus(twilioService))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

// logSender stands in for Twilio when credentials are absent
type logSender struct{}

func (logSender) Send(to, body string) error {
	log.Printf("📤 (not sent - Twilio not configured) to %s: %s", to, body)
	return nil
}

func hoursFromEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	hours, err := strconv.Atoi(v)
	if err != nil || hours <= 0 {
		log.Printf("⚠️  Ignoring invalid %s=%q", key, v)
		return fallback
	}
	return time.Duration(hours) * time.Hour
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsappStatus(t *services.TwilioService) string {
	if t == nil {
		return "Not configured"
	}
	return "Configured"
}
