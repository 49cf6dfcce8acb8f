package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local runs.
// Every operation works on snapshots: records going in are copied, records
// coming out are copies. Callers never share memory with the store, so
// mutating a returned record cannot bypass the store's locks.
type MemoryStore struct {
	users    map[uint]*models.User
	sessions map[uint]*models.WhatsAppSession
	items    map[uint]*models.Item
	sales    map[uint]*models.Sale

	// Mutexes for thread safety
	userMu    sync.RWMutex
	sessionMu sync.RWMutex
	itemMu    sync.RWMutex
	saleMu    sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	sessionCounter uint
	itemCounter    uint
	saleCounter    uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		sessions: make(map[uint]*models.WhatsAppSession),
		items:    make(map[uint]*models.Item),
		sales:    make(map[uint]*models.Sale),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("username %q already taken", user.Username)
		}
	}

	m.userCounter++
	stored := *user
	stored.ID = m.userCounter
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()

	m.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetUser(id uint) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if user.WhatsAppNumber == phone {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// Session operations

func (m *MemoryStore) CreateSession(session *models.WhatsAppSession) (*models.WhatsAppSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	m.sessionCounter++
	stored := *session
	stored.ID = m.sessionCounter
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()

	m.sessions[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetSessionByToken(token string) (*models.WhatsAppSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	for _, session := range m.sessions {
		if session.Token == token {
			out := *session
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetActiveSession(phone, botKind string) (*models.WhatsAppSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	for _, session := range m.sessions {
		if session.WhatsAppNumber == phone && session.BotKind == botKind && session.IsActive {
			out := *session
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeactivateSession(token string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for _, session := range m.sessions {
		if session.Token == token {
			session.IsActive = false
			session.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeactivateSessions(userID uint, phone, botKind string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	for _, session := range m.sessions {
		if session.UserID == userID && session.WhatsAppNumber == phone && session.BotKind == botKind && session.IsActive {
			session.IsActive = false
			session.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *MemoryStore) GetActiveSessionsExpiringBefore(cutoff time.Time) ([]*models.WhatsAppSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.WhatsAppSession
	for _, session := range m.sessions {
		if session.IsActive && !session.ExpiresAt.After(cutoff) {
			out := *session
			sessions = append(sessions, &out)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ExpiresAt.Before(sessions[j].ExpiresAt)
	})
	return sessions, nil
}

// Item operations

func (m *MemoryStore) CreateItem(item *models.Item) (*models.Item, error) {
	m.itemMu.Lock()
	defer m.itemMu.Unlock()

	for _, existing := range m.items {
		if strings.EqualFold(existing.Name, item.Name) && existing.IsActive {
			return nil, fmt.Errorf("item %q already exists", item.Name)
		}
	}

	m.itemCounter++
	stored := *item
	stored.ID = m.itemCounter
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()

	m.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetItem(id uint) (*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	item, exists := m.items[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *item
	return &out, nil
}

func (m *MemoryStore) GetItemByName(name string) (*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	for _, item := range m.items {
		if strings.EqualFold(item.Name, name) && item.IsActive {
			out := *item
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetActiveItems() ([]*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	var items []*models.Item
	for _, item := range m.items {
		if item.IsActive {
			out := *item
			items = append(items, &out)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (m *MemoryStore) GetLowStockItems(threshold int) ([]*models.Item, error) {
	m.itemMu.RLock()
	defer m.itemMu.RUnlock()

	var items []*models.Item
	for _, item := range m.items {
		if item.IsActive && item.Quantity > 0 && item.Quantity <= threshold {
			out := *item
			items = append(items, &out)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Quantity < items[j].Quantity
	})
	return items, nil
}

func (m *MemoryStore) UpdateItem(item *models.Item) error {
	m.itemMu.Lock()
	defer m.itemMu.Unlock()

	if _, exists := m.items[item.ID]; !exists {
		return ErrNotFound
	}
	stored := *item
	stored.UpdatedAt = time.Now()
	m.items[stored.ID] = &stored
	return nil
}

func (m *MemoryStore) AdjustItemQuantity(id uint, delta int) error {
	m.itemMu.Lock()
	defer m.itemMu.Unlock()

	item, exists := m.items[id]
	if !exists {
		return ErrNotFound
	}
	if item.Quantity+delta < 0 {
		return fmt.Errorf("quantity for %q would go negative", item.Name)
	}
	item.Quantity += delta
	item.UpdatedAt = time.Now()
	return nil
}

// Sale operations

func (m *MemoryStore) CreateSale(sale *models.Sale) (*models.Sale, error) {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	m.saleCounter++
	stored := *sale
	stored.ID = m.saleCounter
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	if stored.Status == "" {
		stored.Status = models.SaleStatusPending
	}

	m.sales[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetSale(id uint) (*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	sale, exists := m.sales[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := *sale
	return &out, nil
}

func (m *MemoryStore) GetSaleByInvoiceNo(invoiceNo string) (*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	for _, sale := range m.sales {
		if sale.InvoiceNo == invoiceNo {
			out := *sale
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetSalesByUser(userID uint) ([]*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var sales []*models.Sale
	for _, sale := range m.sales {
		if sale.UserID == userID {
			out := *sale
			sales = append(sales, &out)
		}
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].ID > sales[j].ID
	})
	return sales, nil
}

func (m *MemoryStore) GetLatestPendingSaleForUser(userID uint) (*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var latest *models.Sale
	for _, sale := range m.sales {
		if sale.UserID == userID && sale.Status == models.SaleStatusPending {
			if latest == nil || sale.ID > latest.ID {
				latest = sale
			}
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *MemoryStore) GetPendingSales() ([]*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var sales []*models.Sale
	for _, sale := range m.sales {
		if sale.Status == models.SaleStatusPending {
			out := *sale
			sales = append(sales, &out)
		}
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

func (m *MemoryStore) GetPendingSalesDueBefore(cutoff time.Time) ([]*models.Sale, error) {
	m.saleMu.RLock()
	defer m.saleMu.RUnlock()

	var sales []*models.Sale
	for _, sale := range m.sales {
		if sale.Status == models.SaleStatusPending && sale.ConfirmDeadline.Before(cutoff) {
			out := *sale
			sales = append(sales, &out)
		}
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

// TransitionSaleStatus is the compare-and-set guard for the terminal
// transition. It reports false when the sale was not in the expected
// status, which callers treat as having lost the race.
func (m *MemoryStore) TransitionSaleStatus(id uint, from, to string) (bool, error) {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, exists := m.sales[id]
	if !exists {
		return false, ErrNotFound
	}
	if sale.Status != from {
		return false, nil
	}
	sale.Status = to
	sale.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) SetSaleArtifact(id uint, path string) error {
	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, exists := m.sales[id]
	if !exists {
		return ErrNotFound
	}
	sale.ArtifactPath = path
	sale.UpdatedAt = time.Now()
	return nil
}
