package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

// SaleHandler exposes read access to sale records for the dashboard
type SaleHandler struct {
	store storage.Store
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(store storage.Store) *SaleHandler {
	return &SaleHandler{store: store}
}

// List returns the authenticated user's sales, newest first
func (h *SaleHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	sales, err := h.store.GetSalesByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sales",
		})
	}
	return c.JSON(fiber.Map{"sales": sales})
}

// Get returns one sale by invoice number
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	invoiceNo := c.Params("invoice_no")
	sale, err := h.store.GetSaleByInvoiceNo(invoiceNo)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sale not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sale",
		})
	}
	return c.JSON(sale)
}
