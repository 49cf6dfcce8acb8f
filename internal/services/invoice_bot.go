package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

// InvoiceBot turns inbound invoice-bot messages into workflow operations
// and builds the WhatsApp reply text
type InvoiceBot struct {
	store    storage.Store
	sessions *SessionManager
	workflow *InvoiceWorkflow
}

// NewInvoiceBot creates a new invoice bot
func NewInvoiceBot(store storage.Store, sessions *SessionManager, workflow *InvoiceWorkflow) *InvoiceBot {
	return &InvoiceBot{
		store:    store,
		sessions: sessions,
		workflow: workflow,
	}
}

// ProcessMessage handles one inbound message and returns the reply to send.
// An empty reply means the workflow already notified the retailer.
func (b *InvoiceBot) ProcessMessage(phone, text string) (string, error) {
	log.Printf("🧾 Invoice bot message from %s: %s", phone, text)

	cmd, parseErr := ParseInvoiceMessage(text)

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
	case CommandInvoiceRequest:
		return b.handleInvoiceRequest(ctx, phone, cmd)
	case CommandConfirmSuccess:
		return b.handleConfirmation(ctx, true)
	case CommandConfirmFail:
		return b.handleConfirmation(ctx, false)
	case CommandHelp:
		return HelpMessage(models.BotKindInvoice), nil
	}

	return "❌ Unknown command. Type 'help' for available commands.", nil
}

func (b *InvoiceBot) authorize(phone string) (*SessionContext, string, error) {
	session, err := b.store.GetActiveSession(phone, models.BotKindInvoice)
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

func (b *InvoiceBot) handleLogin(phone string, cmd Command) (string, error) {
	session, err := b.sessions.Login(cmd.Username, cmd.Password, phone, models.BotKindInvoice)
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
	return fmt.Sprintf("✅ Welcome %s! You are now logged in to the Invoice Bot.\nType 'help' for available commands.", user.Name), nil
}

func (b *InvoiceBot) handleLogout(phone string) (string, error) {
	session, err := b.store.GetActiveSession(phone, models.BotKindInvoice)
	if errors.Is(err, storage.ErrNotFound) {
		return "👋 You have been logged out from the Invoice Bot.", nil
	}
	if err != nil {
		return "", err
	}
	if err := b.sessions.Logout(session.Token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return "", err
	}
	return "👋 You have been logged out from the Invoice Bot.", nil
}

func (b *InvoiceBot) handleInvoiceRequest(ctx *SessionContext, phone string, cmd Command) (string, error) {
	sale, err := b.workflow.SubmitOrder(ctx.UserID, phone, cmd.CustomerName, map[string]int{cmd.ItemName: cmd.Quantity})
	switch {
	case errors.Is(err, ErrItemNotFound):
		return fmt.Sprintf("❌ Item '%s' not found in inventory.", cmd.ItemName), nil
	case errors.Is(err, ErrInsufficientStock):
		return fmt.Sprintf("❌ Insufficient stock for '%s'. Requested: %d", cmd.ItemName, cmd.Quantity), nil
	case err != nil:
		return "", err
	}

	lines, err := sale.Lines()
	if err != nil {
		return "", err
	}

	var b2 strings.Builder
	b2.WriteString("🧾 *INVOICE GENERATED*\n\n")
	fmt.Fprintf(&b2, "📋 *Invoice:* %s\n", sale.InvoiceNo)
	fmt.Fprintf(&b2, "👤 *Customer:* %s\n", sale.CustomerName)
	for _, line := range lines {
		fmt.Fprintf(&b2, "📦 *%s* x %d @ ₹%.2f\n", line.ItemName, line.Quantity, line.UnitPrice)
	}
	fmt.Fprintf(&b2, "💵 *Total Amount:* ₹%.2f\n\n", sale.TotalAmount)
	b2.WriteString("⏳ *Status:* Pending Confirmation\n\n")
	b2.WriteString("Please reply with:\n• `success` - to confirm sale and update stock\n• `fail` - to cancel sale")
	return b2.String(), nil
}

// handleConfirmation resolves the caller's most recent pending invoice and
// applies the answer. Late or duplicate answers are absorbed, not errors.
func (b *InvoiceBot) handleConfirmation(ctx *SessionContext, success bool) (string, error) {
	sale, err := b.store.GetLatestPendingSaleForUser(ctx.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ No pending invoice found. Please create an invoice first.", nil
	}
	if err != nil {
		return "", err
	}

	_, err = b.workflow.Confirm(sale.ID, success)
	switch {
	case errors.Is(err, ErrOrderNotPending), errors.Is(err, ErrOrderNotFound):
		return fmt.Sprintf("ℹ️ Invoice %s was already processed.", sale.InvoiceNo), nil
	case err != nil:
		return "", err
	}

	// The workflow sends the outcome notification itself
	return "", nil
}
