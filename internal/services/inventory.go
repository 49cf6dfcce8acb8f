package services

import (
	"errors"
	"fmt"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
	"github.com/retailbots/whatsapp-retailer-backend/internal/storage"
)

// InventoryService is the trusted admin path for stock edits. It writes
// quantities directly; sale decrements never come through here, they go
// through the invoice workflow.
type InventoryService struct {
	store storage.Store
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store storage.Store) *InventoryService {
	return &InventoryService{store: store}
}

// AddItem creates a new inventory line
func (s *InventoryService) AddItem(name string, quantity int, price float64, description string) (*models.Item, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	if price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	if _, err := s.store.GetItemByName(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemExists, name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	item := &models.Item{
		Name:        name,
		Quantity:    quantity,
		Price:       price,
		Description: description,
		IsActive:    true,
	}
	return s.store.CreateItem(item)
}

// SetStock overwrites the on-hand quantity for an item
func (s *InventoryService) SetStock(name string, quantity int) (*models.Item, int, error) {
	if quantity < 0 {
		return nil, 0, fmt.Errorf("quantity must not be negative")
	}
	item, err := s.store.GetItemByName(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	if err != nil {
		return nil, 0, err
	}

	old := item.Quantity
	item.Quantity = quantity
	if err := s.store.UpdateItem(item); err != nil {
		return nil, 0, err
	}
	return item, old, nil
}

// GetItem looks up one active item by name
func (s *InventoryService) GetItem(name string) (*models.Item, error) {
	item, err := s.store.GetItemByName(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	return item, err
}

// ListItems returns all active items
func (s *InventoryService) ListItems() ([]*models.Item, error) {
	return s.store.GetActiveItems()
}

// LowStockItems returns active items at or below the low stock threshold
func (s *InventoryService) LowStockItems() ([]*models.Item, error) {
	return s.store.GetLowStockItems(models.LowStockThreshold)
}
