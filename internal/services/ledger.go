package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

// StockLedger tracks soft reservations on top of the stored quantities so
// two concurrent orders cannot oversell the same stock between submission
// and retailer confirmation. Quantities are only debited on Commit.
type StockLedger struct {
	store storage.Store

	// guards the check-then-reserve sequence
	mu           sync.Mutex
	reservedQty  map[uint]int            // item id -> total held across active reservations
	reservations map[string]map[uint]int // token -> item id -> quantity
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(store storage.Store) *StockLedger {
	return &StockLedger{
		store:        store,
		reservedQty:  make(map[uint]int),
		reservations: make(map[string]map[uint]int),
	}
}

// Reserve holds the requested quantities out of the sellable pool and
// returns a reservation token. The whole request fails on the first item
// whose available quantity (on hand minus other holds) is short; nothing
// is held in that case. Items are checked in id order so the failing item
// is deterministic.
func (l *StockLedger) Reserve(lines map[uint]int) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("no lines to reserve")
	}

	ids := make([]uint, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range ids {
		qty := lines[id]
		if qty <= 0 {
			return "", fmt.Errorf("quantity for item %d must be positive", id)
		}
		item, err := l.store.GetItem(id)
		if err != nil {
			return "", err
		}
		available := item.Quantity - l.reservedQty[id]
		if available < qty {
			return "", fmt.Errorf("%w: %s", ErrInsufficientStock, item.Name)
		}
	}

	token := uuid.NewString()
	held := make(map[uint]int, len(lines))
	for id, qty := range lines {
		l.reservedQty[id] += qty
		held[id] = qty
	}
	l.reservations[token] = held

	return token, nil
}

// Commit debits the reserved quantities from stock and spends the
// reservation. A token that was already committed or released fails with
// ErrUnknownReservation.
func (l *StockLedger) Commit(token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, ok := l.reservations[token]
	if !ok {
		return ErrUnknownReservation
	}

	for id, qty := range held {
		if err := l.store.AdjustItemQuantity(id, -qty); err != nil {
			return err
		}
		l.reservedQty[id] -= qty
		if l.reservedQty[id] <= 0 {
			delete(l.reservedQty, id)
		}
	}
	delete(l.reservations, token)
	return nil
}

// Release frees a reservation without touching stock. Idempotent: releasing
// an unknown or already-spent token is a no-op.
func (l *StockLedger) Release(token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, ok := l.reservations[token]
	if !ok {
		return nil
	}
	for id, qty := range held {
		l.reservedQty[id] -= qty
		if l.reservedQty[id] <= 0 {
			delete(l.reservedQty, id)
		}
	}
	delete(l.reservations, token)
	return nil
}

// Restore re-seeds reservation accounting for a reservation that survived a
// restart (pending sales are loaded at startup and their holds re-applied).
func (l *StockLedger) Restore(token string, lines map[uint]int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.reservations[token]; ok {
		return
	}
	held := make(map[uint]int, len(lines))
	for id, qty := range lines {
		l.reservedQty[id] += qty
		held[id] = qty
	}
	l.reservations[token] = held
}

// ReservedQuantity reports the total quantity currently held for an item
func (l *StockLedger) ReservedQuantity(itemID uint) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reservedQty[itemID]
}
