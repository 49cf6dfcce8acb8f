package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retailbots/whatsapp-retailer-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("whats_app_number = ?", phone).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// Session operations

func (d *DatabaseStore) CreateSession(session *models.WhatsAppSession) (*models.WhatsAppSession, error) {
	if err := d.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *DatabaseStore) GetSessionByToken(token string) (*models.WhatsAppSession, error) {
	var session models.WhatsAppSession
	if err := d.db.Where("token = ?", token).First(&session).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &session, nil
}

func (d *DatabaseStore) GetActiveSession(phone, botKind string) (*models.WhatsAppSession, error) {
	var session models.WhatsAppSession
	err := d.db.Where("whats_app_number = ? AND bot_kind = ? AND is_active = ?", phone, botKind, true).
		Order("id DESC").First(&session).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &session, nil
}

func (d *DatabaseStore) DeactivateSession(token string) error {
	res := d.db.Model(&models.WhatsAppSession{}).
		Where("token = ?", token).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) DeactivateSessions(userID uint, phone, botKind string) error {
	return d.db.Model(&models.WhatsAppSession{}).
		Where("user_id = ? AND whats_app_number = ? AND bot_kind = ? AND is_active = ?", userID, phone, botKind, true).
		Update("is_active", false).Error
}

func (d *DatabaseStore) GetActiveSessionsExpiringBefore(cutoff time.Time) ([]*models.WhatsAppSession, error) {
	var sessions []*models.WhatsAppSession
	err := d.db.Where("is_active = ? AND expires_at <= ?", true, cutoff).
		Order("expires_at ASC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Item operations

func (d *DatabaseStore) CreateItem(item *models.Item) (*models.Item, error) {
	if err := d.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (d *DatabaseStore) GetItem(id uint) (*models.Item, error) {
	var item models.Item
	if err := d.db.First(&item, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (d *DatabaseStore) GetItemByName(name string) (*models.Item, error) {
	var item models.Item
	err := d.db.Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).First(&item).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (d *DatabaseStore) GetActiveItems() ([]*models.Item, error) {
	var items []*models.Item
	if err := d.db.Where("is_active = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DatabaseStore) GetLowStockItems(threshold int) ([]*models.Item, error) {
	var items []*models.Item
	err := d.db.Where("is_active = ? AND quantity > 0 AND quantity <= ?", true, threshold).
		Order("quantity ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DatabaseStore) UpdateItem(item *models.Item) error {
	return d.db.Save(item).Error
}

func (d *DatabaseStore) AdjustItemQuantity(id uint, delta int) error {
	res := d.db.Model(&models.Item{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Sale operations

func (d *DatabaseStore) CreateSale(sale *models.Sale) (*models.Sale, error) {
	if err := d.db.Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func (d *DatabaseStore) GetSale(id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := d.db.First(&sale, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &sale, nil
}

func (d *DatabaseStore) GetSaleByInvoiceNo(invoiceNo string) (*models.Sale, error) {
	var sale models.Sale
	if err := d.db.Where("invoice_no = ?", invoiceNo).First(&sale).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &sale, nil
}

func (d *DatabaseStore) GetSalesByUser(userID uint) ([]*models.Sale, error) {
	var sales []*models.Sale
	if err := d.db.Where("user_id = ?", userID).Order("id DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (d *DatabaseStore) GetLatestPendingSaleForUser(userID uint) (*models.Sale, error) {
	var sale models.Sale
	err := d.db.Where("user_id = ? AND status = ?", userID, models.SaleStatusPending).
		Order("id DESC").First(&sale).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &sale, nil
}

func (d *DatabaseStore) GetPendingSales() ([]*models.Sale, error) {
	var sales []*models.Sale
	err := d.db.Where("status = ?", models.SaleStatusPending).Order("id ASC").Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (d *DatabaseStore) GetPendingSalesDueBefore(cutoff time.Time) ([]*models.Sale, error) {
	var sales []*models.Sale
	err := d.db.Where("status = ? AND confirm_deadline < ?", models.SaleStatusPending, cutoff).
		Order("id ASC").Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// TransitionSaleStatus performs the terminal transition as a single guarded
// UPDATE so racing confirmations and expiry sweeps cannot both win.
func (d *DatabaseStore) TransitionSaleStatus(id uint, from, to string) (bool, error) {
	res := d.db.Model(&models.Sale{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (d *DatabaseStore) SetSaleArtifact(id uint, path string) error {
	res := d.db.Model(&models.Sale{}).
		Where("id = ?", id).
		Update("artifact_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
