package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/retailbots/whatsapp-retailer-backend/internal/services"
)

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // e.g. "whatsapp:+919876543210"
	To         string `form:"To"`
	Body       string `form:"Body"`
}

// TestWebhookPayload is the JSON shape of the development test endpoints
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// MessageProcessor is the piece of a bot the webhook needs
type MessageProcessor interface {
	ProcessMessage(phone, text string) (string, error)
}

// WhatsAppHandler routes webhook deliveries to the two bots
type WhatsAppHandler struct {
	inventoryBot MessageProcessor
	invoiceBot   MessageProcessor
	sender       services.MessageSender
}

// NewWhatsAppHandler creates a new WhatsApp webhook handler
func NewWhatsAppHandler(inventoryBot, invoiceBot MessageProcessor, sender services.MessageSender) *WhatsAppHandler {
	return &WhatsAppHandler{
		inventoryBot: inventoryBot,
		invoiceBot:   invoiceBot,
		sender:       sender,
	}
}

// InventoryWebhook processes incoming inventory bot messages
func (h *WhatsAppHandler) InventoryWebhook(c *fiber.Ctx) error {
	return h.handleWebhook(c, h.inventoryBot)
}

// InvoiceWebhook processes incoming invoice bot messages
func (h *WhatsAppHandler) InvoiceWebhook(c *fiber.Ctx) error {
	return h.handleWebhook(c, h.invoiceBot)
}

func (h *WhatsAppHandler) handleWebhook(c *fiber.Ctx, bot MessageProcessor) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks carry no body; acknowledge and move on
	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	phone := strings.TrimPrefix(payload.From, "whatsapp:")

	response, err := bot.ProcessMessage(phone, payload.Body)
	if err != nil {
		log.Printf("Error processing message: %v", err)
		response = "❌ Sorry, something went wrong. Please try again."
	}

	if response != "" {
		if err := h.sender.Send(phone, response); err != nil {
			log.Printf("❌ Failed to send WhatsApp response: %v", err)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestInventoryWebhook processes test inventory messages (development only)
func (h *WhatsAppHandler) TestInventoryWebhook(c *fiber.Ctx) error {
	return h.handleTestWebhook(c, h.inventoryBot)
}

// TestInvoiceWebhook processes test invoice messages (development only)
func (h *WhatsAppHandler) TestInvoiceWebhook(c *fiber.Ctx) error {
	return h.handleTestWebhook(c, h.invoiceBot)
}

func (h *WhatsAppHandler) handleTestWebhook(c *fiber.Ctx, bot MessageProcessor) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	response, err := bot.ProcessMessage(payload.From, payload.Message)
	if err != nil {
		log.Printf("Error processing test message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"response": response,
	})
}
