package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/retailbots/whatsapp-retailer-backend/internal/handlers"
	"github.com/retailbots/whatsapp-retailer-backend/internal/middleware"
)

// Handlers bundles everything SetupRoutes wires up
type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Items    *handlers.ItemHandler
	Sales    *handlers.SaleHandler
	WhatsApp *handlers.WhatsAppHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers, jwtSecret string) {
	app.Get("/health", h.Health.Check)

	// ========== API ROUTES ==========
	api := app.Group("/api")

	api.Post("/auth/login", h.Auth.Login)

	authed := api.Use(middleware.RequireAuth(jwtSecret))

	items := authed.Group("/items")
	items.Get("/", h.Items.List)
	items.Get("/lowstock", h.Items.LowStock)
	items.Get("/:name", h.Items.Get)
	items.Post("/", h.Items.Create)
	items.Put("/:name/stock", h.Items.UpdateStock)

	sales := authed.Group("/sales")
	sales.Get("/", h.Sales.List)
	sales.Get("/:invoice_no", h.Sales.Get)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: skip signature validation so tunneled requests work
		webhooks.Post("/inventory", h.WhatsApp.InventoryWebhook)
		webhooks.Post("/invoice", h.WhatsApp.InvoiceWebhook)
	} else {
		webhooks.Post("/inventory", middleware.ValidateTwilioSignature(), h.WhatsApp.InventoryWebhook)
		webhooks.Post("/invoice", middleware.ValidateTwilioSignature(), h.WhatsApp.InvoiceWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if os.Getenv("ENVIRONMENT") == "development" {
		app.Post("/test/inventory", h.WhatsApp.TestInventoryWebhook)
		app.Post("/test/invoice", h.WhatsApp.TestInvoiceWebhook)
	}
}
