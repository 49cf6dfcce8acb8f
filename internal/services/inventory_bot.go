package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

const loginPrompt = "🔒 Please login first using: login user_id password"

// InventoryBot turns inbound inventory-bot messages into stock operations
// and builds the WhatsApp reply text
type InventoryBot struct {
	store     storage.Store
	sessions  *SessionManager
	inventory *InventoryService
}

// NewInventoryBot creates a new inventory bot
func NewInventoryBot(store storage.Store, sessions *SessionManager, inventory *InventoryService) *InventoryBot {
	return &InventoryBot{
		store:     store,
		sessions:  sessions,
		inventory: inventory,
	}
}

// ProcessMessage handles one inbound message and returns the reply to send.
// Command and auth problems become user-facing replies; only store failures
// surface as errors.
func (b *InventoryBot) ProcessMessage(phone, text string) (string, error) {
	log.Printf("📦 Inventory bot message from %s: %s", phone, text)

	cmd, parseErr := ParseInventoryCommand(text)

	if cmd.Type == CommandLogin {
		if parseErr != nil {
			return "❌ " + parseErr.Error(), nil
		}
		return b.handleLogin(phone, cmd)
	}

	ctx, reply, err := b.authorize(phone)
	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}

	if parseErr != nil {
		return "❌ " + parseErr.Error(), nil
	}

	switch cmd.Type {
	case CommandLogout:
		return b.handleLogout(phone)
	case CommandAddItem:
		return b.handleAddItem(ctx, cmd)
	case CommandUpdateStock:
		return b.handleUpdateStock(cmd)
	case CommandViewItems:
		items, err := b.inventory.ListItems()
		if err != nil {
			return "", err
		}
		return FormatItemList(items), nil
	case CommandCheckStock:
		return b.handleCheckStock(cmd)
	case CommandLowStock:
		items, err := b.inventory.LowStockItems()
		if err != nil {
			return "", err
		}
		return FormatLowStockAlert(items), nil
	case CommandHelp:
		return HelpMessage(models.BotKindInventory), nil
	}

	return "❌ Unknown command. Type 'help' for available commands.", nil
}

// authorize resolves the caller's active session. A non-empty reply means
// the caller must be told to (re-)login.
func (b *InventoryBot) authorize(phone string) (*SessionContext, string, error) {
	session, err := b.store.GetActiveSession(phone, models.BotKindInventory)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, loginPrompt, nil
	}
	if err != nil {
		return nil, "", err
	}

	ctx, err := b.sessions.Authorize(session.Token)
	switch {
	case errors.Is(err, ErrSessionExpired):
		return nil, "⏰ Session expired. Please login again using: login user_id password", nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionInactive):
		return nil, loginPrompt, nil
	case err != nil:
		return nil, "", err
	}
	return ctx, "", nil
}

func (b *InventoryBot) handleLogin(phone string, cmd Command) (string, error) {
	session, err := b.sessions.Login(cmd.Username, cmd.Password, phone, models.BotKindInventory)
	if errors.Is(err, ErrInvalidCredential) {
		return "❌ Invalid credentials. Please check your user ID and password.", nil
	}
	if err != nil {
		return "", err
	}

	user, err := b.store.GetUser(session.UserID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Welcome %s! You are now logged in to the Inventory Bot.\nType 'help' for available commands.", user.Name), nil
}

func (b *InventoryBot) handleLogout(phone string) (string, error) {
	session, err := b.store.GetActiveSession(phone, models.BotKindInventory)
	if errors.Is(err, storage.ErrNotFound) {
		return "👋 You have been logged out from the Inventory Bot.", nil
	}
	if err != nil {
		return "", err
	}
	if err := b.sessions.Logout(session.Token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return "", err
	}
	return "👋 You have been logged out from the Inventory Bot.", nil
}

func (b *InventoryBot) handleAddItem(ctx *SessionContext, cmd Command) (string, error) {
	user, err := b.store.GetUser(ctx.UserID)
	if err != nil {
		return "", err
	}

	item, err := b.inventory.AddItem(cmd.ItemName, cmd.Quantity, cmd.Price, "Added via WhatsApp by "+user.Name)
	if errors.Is(err, ErrItemExists) {
		return fmt.Sprintf("❌ Item '%s' already exists. Use 'update' command to modify stock.", cmd.ItemName), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Item added successfully!\n\n📦 *%s*\nStock: %d\nPrice: ₹%.2f", item.Name, item.Quantity, item.Price), nil
}

func (b *InventoryBot) handleUpdateStock(cmd Command) (string, error) {
	item, old, err := b.inventory.SetStock(cmd.ItemName, cmd.Quantity)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Sprintf("❌ Item '%s' not found. Use 'view' to see available items.", cmd.ItemName), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s Stock updated successfully!\n\n📦 *%s*\nOld Stock: %d\nNew Stock: %d\nPrice: ₹%.2f",
		stockEmoji(item), item.Name, old, item.Quantity, item.Price), nil
}

func (b *InventoryBot) handleCheckStock(cmd Command) (string, error) {
	item, err := b.inventory.GetItem(cmd.ItemName)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Sprintf("❌ Item '%s' not found. Use 'view' to see available items.", cmd.ItemName), nil
	}
	if err != nil {
		return "", err
	}

	status := "Well Stocked"
	if item.IsOutOfStock() {
		status = "Out of Stock"
	} else if item.IsLowStock() {
		status = "Low Stock"
	}
	return fmt.Sprintf("%s *%s*\n\nStock: %d\nPrice: ₹%.2f\nStatus: %s",
		stockEmoji(item), item.Name, item.Quantity, item.Price, status), nil
}
