package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
	"github.com/retailbots/whatsapp-retailer-backend/internal/utils"
)

// DefaultConfirmWindow is how long a retailer has to answer success/fail
// before the order auto-expires and its reservation is released.
const DefaultConfirmWindow = 24 * time.Hour

// InvoiceWorkflow drives a sale through pending -> committed/failed/expired.
// It is the sole writer of stock decrements; the terminal transition is a
// compare-and-set on status, so whichever of Confirm or ExpireOverdue
// reaches an order first wins and the loser is a no-op.
type InvoiceWorkflow struct {
	store    storage.Store
	ledger   *StockLedger
	renderer DocumentRenderer
	sender   MessageSender
	clock    Clock
	window   time.Duration
}

// NewInvoiceWorkflow creates a new invoice workflow
func NewInvoiceWorkflow(store storage.Store, ledger *StockLedger, renderer DocumentRenderer, sender MessageSender, clock Clock, window time.Duration) *InvoiceWorkflow {
	if window <= 0 {
		window = DefaultConfirmWindow
	}
	return &InvoiceWorkflow{
		store:    store,
		ledger:   ledger,
		renderer: renderer,
		sender:   sender,
		clock:    clock,
		window:   window,
	}
}

// SubmitOrder reserves stock for the requested lines and records a pending
// sale. Insufficient stock propagates unchanged and leaves no sale behind.
// The invoice artifact is rendered and dispatched once, here.
func (w *InvoiceWorkflow) SubmitOrder(userID uint, retailerPhone, customerName string, requested map[string]int) (*models.Sale, error) {
	if customerName == "" {
		return nil, fmt.Errorf("customer name is required")
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}

	// Snapshot the items and current unit prices
	names := make([]string, 0, len(requested))
	for name := range requested {
		names = append(names, name)
	}
	sort.Strings(names)

	reserve := make(map[uint]int, len(requested))
	lines := make([]models.SaleLine, 0, len(requested))
	total := 0.0
	for _, name := range names {
		qty := requested[name]
		item, err := w.store.GetItemByName(name)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, name)
		}
		if err != nil {
			return nil, err
		}
		reserve[item.ID] = qty
		lines = append(lines, models.SaleLine{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Quantity:  qty,
			UnitPrice: item.Price,
		})
		total += item.Price * float64(qty)
	}

	token, err := w.ledger.Reserve(reserve)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		InvoiceNo:        utils.GenerateInvoiceNo(),
		UserID:           userID,
		RetailerPhone:    retailerPhone,
		CustomerName:     customerName,
		TotalAmount:      total,
		Status:           models.SaleStatusPending,
		ReservationToken: token,
		ConfirmDeadline:  w.clock.Now().Add(w.window),
	}
	if err := sale.SetLines(lines); err != nil {
		w.ledger.Release(token)
		return nil, err
	}

	sale, err = w.store.CreateSale(sale)
	if err != nil {
		w.ledger.Release(token)
		return nil, err
	}

	w.dispatchInvoice(sale)
	return sale, nil
}

// dispatchInvoice renders the invoice artifact and hands it to the sender.
// Delivery problems are logged, not retried; the sale stands either way.
func (w *InvoiceWorkflow) dispatchInvoice(sale *models.Sale) {
	path, err := w.renderer.Render(sale)
	if err != nil {
		log.Printf("❌ Failed to render invoice %s: %v", sale.InvoiceNo, err)
		return
	}
	if err := w.store.SetSaleArtifact(sale.ID, path); err != nil {
		log.Printf("❌ Failed to record invoice artifact for %s: %v", sale.InvoiceNo, err)
	}
	sale.ArtifactPath = path

	body := fmt.Sprintf("🧾 Invoice %s for %s is ready: %s", sale.InvoiceNo, sale.CustomerName, path)
	if err := w.sender.Send(sale.RetailerPhone, body); err != nil {
		log.Printf("❌ Failed to send invoice %s: %v", sale.InvoiceNo, err)
	}
}

// Confirm applies the retailer's success/fail answer. The answer is accepted
// at most once: a duplicate or late confirmation finds the order already out
// of pending and gets ErrOrderNotPending.
func (w *InvoiceWorkflow) Confirm(saleID uint, success bool) (*models.Sale, error) {
	sale, err := w.store.GetSale(saleID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	target := models.SaleStatusFailed
	if success {
		target = models.SaleStatusCommitted
	}

	won, err := w.store.TransitionSaleStatus(sale.ID, models.SaleStatusPending, target)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrOrderNotPending
	}

	if success {
		if err := w.ledger.Commit(sale.ReservationToken); err != nil {
			return nil, err
		}
	} else {
		w.ledger.Release(sale.ReservationToken)
	}
	sale.Status = target

	w.notifyOutcome(sale)
	return sale, nil
}

// ExpireOverdue sweeps pending sales past their confirmation deadline,
// releases their reservations, and returns the affected sales. Safe to run
// repeatedly and concurrently with Confirm: lost races are skipped.
func (w *InvoiceWorkflow) ExpireOverdue(now time.Time) ([]*models.Sale, error) {
	due, err := w.store.GetPendingSalesDueBefore(now)
	if err != nil {
		return nil, err
	}

	var expired []*models.Sale
	for _, sale := range due {
		won, err := w.store.TransitionSaleStatus(sale.ID, models.SaleStatusPending, models.SaleStatusExpired)
		if err != nil {
			return expired, err
		}
		if !won {
			continue
		}
		w.ledger.Release(sale.ReservationToken)
		sale.Status = models.SaleStatusExpired
		expired = append(expired, sale)
		w.notifyOutcome(sale)
	}
	return expired, nil
}

// notifyOutcome tells the retailer how the sale ended
func (w *InvoiceWorkflow) notifyOutcome(sale *models.Sale) {
	var body string
	switch sale.Status {
	case models.SaleStatusCommitted:
		body = fmt.Sprintf("✅ *SALE CONFIRMED*\n\nInvoice: %s\nCustomer: %s\nAmount: ₹%.2f\n\n📦 Stock has been updated.",
			sale.InvoiceNo, sale.CustomerName, sale.TotalAmount)
	case models.SaleStatusFailed:
		body = fmt.Sprintf("❌ *SALE CANCELLED*\n\nInvoice: %s\nCustomer: %s\nAmount: ₹%.2f\n\n📦 No stock changes made.",
			sale.InvoiceNo, sale.CustomerName, sale.TotalAmount)
	case models.SaleStatusExpired:
		body = fmt.Sprintf("⏰ *INVOICE EXPIRED*\n\nInvoice: %s for %s was not confirmed in time. The reserved stock has been released.",
			sale.InvoiceNo, sale.CustomerName)
	default:
		return
	}
	if err := w.sender.Send(sale.RetailerPhone, body); err != nil {
		log.Printf("❌ Failed to send outcome for invoice %s: %v", sale.InvoiceNo, err)
	}
}

// RehydrateReservations replays the holds for sales that were pending when
// the process last stopped. Call once at startup, before serving traffic.
func (w *InvoiceWorkflow) RehydrateReservations() error {
	pending, err := w.store.GetPendingSales()
	if err != nil {
		return err
	}
	for _, sale := range pending {
		lines, err := sale.Lines()
		if err != nil {
			log.Printf("⚠️  Skipping reservation for invoice %s: %v", sale.InvoiceNo, err)
			continue
		}
		held := make(map[uint]int, len(lines))
		for _, line := range lines {
			held[line.ItemID] = line.Quantity
		}
		w.ledger.Restore(sale.ReservationToken, held)
	}
	if len(pending) > 0 {
		log.Printf("🔄 Restored %d pending reservation(s)", len(pending))
	}
	return nil
}
