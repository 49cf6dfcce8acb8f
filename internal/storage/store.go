package storage

import (
	"errors"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations. Both implementations
// must make each operation atomic; multi-step invariants are guarded by the
// services that own the records.
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUser(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)

	// Session operations
	CreateSession(session *models.WhatsAppSession) (*models.WhatsAppSession, error)
	GetSessionByToken(token string) (*models.WhatsAppSession, error)
	GetActiveSession(phone, botKind string) (*models.WhatsAppSession, error)
	DeactivateSession(token string) error
	DeactivateSessions(userID uint, phone, botKind string) error
	GetActiveSessionsExpiringBefore(cutoff time.Time) ([]*models.WhatsAppSession, error)

	// Item operations
	CreateItem(item *models.Item) (*models.Item, error)
	GetItem(id uint) (*models.Item, error)
	GetItemByName(name string) (*models.Item, error)
	GetActiveItems() ([]*models.Item, error)
	GetLowStockItems(threshold int) ([]*models.Item, error)
	UpdateItem(item *models.Item) error
	AdjustItemQuantity(id uint, delta int) error

	// Sale operations
	CreateSale(sale *models.Sale) (*models.Sale, error)
	GetSale(id uint) (*models.Sale, error)
	GetSaleByInvoiceNo(invoiceNo string) (*models.Sale, error)
	GetSalesByUser(userID uint) ([]*models.Sale, error)
	GetLatestPendingSaleForUser(userID uint) (*models.Sale, error)
	GetPendingSales() ([]*models.Sale, error)
	GetPendingSalesDueBefore(cutoff time.Time) ([]*models.Sale, error)
	TransitionSaleStatus(id uint, from, to string) (bool, error)
	SetSaleArtifact(id uint, path string) error
}
