package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// CommandType identifies which operation an inbound message invokes
type CommandType string

const (
	// Inventory bot commands
	CommandAddItem     CommandType = "add"
	CommandUpdateStock CommandType = "update"
	CommandViewItems   CommandType = "view"
	CommandCheckStock  CommandType = "stock"
	CommandLowStock    CommandType = "lowstock"

	// Invoice bot commands
	CommandInvoiceRequest CommandType = "invoice"
	CommandConfirmSuccess CommandType = "success"
	CommandConfirmFail    CommandType = "fail"

	// Session commands
	CommandLogin  CommandType = "login"
	CommandLogout CommandType = "logout"

	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command is a parsed inbound message
type Command struct {
	Type         CommandType
	ItemName     string
	Quantity     int
	Price        float64
	Username     string
	Password     string
	CustomerName string
}

// ParseInventoryCommand parses inventory bot messages.
//
// Formats:
//
//	add <item name> <quantity> <price>
//	update <item name> <quantity>
//	stock <item name>
//	view | lowstock | help | logout
//	login <user_id> <password>
func ParseInventoryCommand(message string) (Command, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(message)))
	if len(parts) == 0 {
		return Command{Type: CommandUnknown}, fmt.Errorf("empty message")
	}

	switch parts[0] {
	case "add":
		if len(parts) < 4 {
			return Command{Type: CommandAddItem}, fmt.Errorf("invalid format. Use: add item_name quantity price")
		}
		qty, err := strconv.Atoi(parts[len(parts)-2])
		if err != nil {
			return Command{Type: CommandAddItem}, fmt.Errorf("invalid quantity %q", parts[len(parts)-2])
		}
		price, err := strconv.ParseFloat(parts[len(parts)-1], 64)
		if err != nil {
			return Command{Type: CommandAddItem}, fmt.Errorf("invalid price %q", parts[len(parts)-1])
		}
		return Command{
			Type:     CommandAddItem,
			ItemName: titleCase(strings.Join(parts[1:len(parts)-2], " ")),
			Quantity: qty,
			Price:    price,
		}, nil

	case "update":
		if len(parts) < 3 {
			return Command{Type: CommandUpdateStock}, fmt.Errorf("invalid format. Use: update item_name quantity")
		}
		qty, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return Command{Type: CommandUpdateStock}, fmt.Errorf("invalid quantity %q", parts[len(parts)-1])
		}
		return Command{
			Type:     CommandUpdateStock,
			ItemName: titleCase(strings.Join(parts[1:len(parts)-1], " ")),
			Quantity: qty,
		}, nil

	case "stock":
		if len(parts) < 2 {
			return Command{Type: CommandCheckStock}, fmt.Errorf("invalid format. Use: stock item_name")
		}
		return Command{Type: CommandCheckStock, ItemName: titleCase(strings.Join(parts[1:], " "))}, nil

	case "view":
		return Command{Type: CommandViewItems}, nil
	case "lowstock":
		return Command{Type: CommandLowStock}, nil
	case "help":
		return Command{Type: CommandHelp}, nil
	case "logout":
		return Command{Type: CommandLogout}, nil
	case "login":
		return parseLogin(parts)
	}

	return Command{Type: CommandUnknown}, fmt.Errorf("unknown command. Type 'help' for available commands")
}

// ParseInvoiceMessage parses invoice bot messages.
//
// Formats:
//
//	<customer name>: <item name>: <quantity>
//	success | fail | failed
//	login <user_id> <password> | logout | help
func ParseInvoiceMessage(message string) (Command, error) {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "success":
		return Command{Type: CommandConfirmSuccess}, nil
	case "fail", "failed":
		return Command{Type: CommandConfirmFail}, nil
	case "logout":
		return Command{Type: CommandLogout}, nil
	case "help":
		return Command{Type: CommandHelp}, nil
	}

	if strings.HasPrefix(lower, "login ") || lower == "login" {
		return parseLogin(strings.Fields(trimmed))
	}

	if strings.Contains(trimmed, ":") {
		parts := strings.Split(trimmed, ":")
		if len(parts) != 3 {
			return Command{Type: CommandUnknown}, fmt.Errorf("invalid format. Use: customer_name: item_name: quantity")
		}
		customer := strings.TrimSpace(parts[0])
		item := strings.TrimSpace(parts[1])
		qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || qty <= 0 {
			return Command{Type: CommandUnknown}, fmt.Errorf("invalid quantity %q", strings.TrimSpace(parts[2]))
		}
		if customer == "" || item == "" {
			return Command{Type: CommandUnknown}, fmt.Errorf("invalid format. Use: customer_name: item_name: quantity")
		}
		return Command{
			Type:         CommandInvoiceRequest,
			CustomerName: titleCase(customer),
			ItemName:     titleCase(item),
			Quantity:     qty,
		}, nil
	}

	return Command{Type: CommandUnknown}, fmt.Errorf("invalid format. Use: customer_name: item_name: quantity")
}

func parseLogin(parts []string) (Command, error) {
	if len(parts) != 3 {
		return Command{Type: CommandLogin}, fmt.Errorf("invalid format. Use: login user_id password")
	}
	return Command{Type: CommandLogin, Username: parts[1], Password: parts[2]}, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// HelpMessage returns the command reference for a bot
func HelpMessage(botKind string) string {
	switch botKind {
	case models.BotKindInventory:
		return `📦 *Inventory Bot Commands:*

*Stock Management:*
• ` + "`add item_name quantity price`" + ` - Add new item
• ` + "`update item_name quantity`" + ` - Update stock quantity
• ` + "`stock item_name`" + ` - Check specific item stock
• ` + "`view`" + ` - View all items
• ` + "`lowstock`" + ` - View low stock items

*Session:*
• ` + "`login user_id password`" + ` - Login to bot
• ` + "`logout`" + ` - Logout from bot`
	case models.BotKindInvoice:
		return `🧾 *Invoice Bot Commands:*

*Create Invoice:*
• ` + "`customer_name: item_name: quantity`" + ` - Generate invoice

*Retailer Response:*
• ` + "`success`" + ` - Confirm sale (stock will be deducted)
• ` + "`fail`" + ` - Reject sale (no stock change)

*Session:*
• ` + "`login user_id password`" + ` - Login to bot
• ` + "`logout`" + ` - Logout from bot`
	}
	return "Help not available for this bot."
}

// FormatItemList renders the inventory listing for a WhatsApp reply
func FormatItemList(items []*models.Item) string {
	if len(items) == 0 {
		return "No items found."
	}
	var b strings.Builder
	b.WriteString("📦 *Current Inventory:*\n\n")
	for _, item := range items {
		emoji := stockEmoji(item)
		fmt.Fprintf(&b, "%s *%s*\n   Stock: %d\n   Price: ₹%.2f\n\n", emoji, item.Name, item.Quantity, item.Price)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatLowStockAlert renders the low stock warning list
func FormatLowStockAlert(items []*models.Item) string {
	if len(items) == 0 {
		return "✅ All items are well stocked!"
	}
	var b strings.Builder
	b.WriteString("⚠️ *Low Stock Alert:*\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "• *%s*: %d left\n", item.Name, item.Quantity)
	}
	return strings.TrimRight(b.String(), "\n")
}

func stockEmoji(item *models.Item) string {
	switch {
	case item.Quantity > models.LowStockThreshold:
		return "✅"
	case item.Quantity > 0:
		return "⚠️"
	default:
		return "❌"
	}
}
