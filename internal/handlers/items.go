package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
)

// ItemHandler exposes the trusted admin path for stock management
type ItemHandler struct {
	inventory *services.InventoryService
}

// NewItemHandler creates a new item handler
func NewItemHandler(inventory *services.InventoryService) *ItemHandler {
	return &ItemHandler{inventory: inventory}
}

type createItemRequest struct {
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type updateStockRequest struct {
	Quantity int `json:"quantity"`
}

// List returns all active items
func (h *ItemHandler) List(c *fiber.Ctx) error {
	items, err := h.inventory.ListItems()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list items",
		})
	}
	return c.JSON(fiber.Map{"items": items})
}

// LowStock returns items running low
func (h *ItemHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.inventory.LowStockItems()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list low stock items",
		})
	}
	return c.JSON(fiber.Map{"items": items})
}

// Get returns one item by name
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	name := c.Params("name")
	item, err := h.inventory.GetItem(name)
	if errors.Is(err, services.ErrItemNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Item not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch item",
		})
	}
	return c.JSON(item)
}

// Create adds a new item
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Item name is required",
		})
	}

	item, err := h.inventory.AddItem(req.Name, req.Quantity, req.Price, req.Description)
	if errors.Is(err, services.ErrItemExists) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Item already exists",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item created successfully",
		"item":    item,
	})
}

// UpdateStock overwrites the on-hand quantity
func (h *ItemHandler) UpdateStock(c *fiber.Ctx) error {
	name := c.Params("name")

	var req updateStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	item, old, err := h.inventory.SetStock(name, req.Quantity)
	if errors.Is(err, services.ErrItemNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Item not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Stock updated successfully",
		"item":         item,
		"old_quantity": old,
	})
}
