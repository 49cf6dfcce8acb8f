package models

import (
	"time"

	"gorm.io/gorm"
)

// Bot kinds. Each bot keeps its own login.
const (
	BotKindInventory = "inventory"
	BotKindInvoice   = "invoice"
)

// WhatsAppSession is one authenticated login for one (user, phone, bot) tuple.
// Sessions are never deleted; superseded or expired sessions stay behind with
// IsActive=false as an audit trail.
type WhatsAppSession struct {
	gorm.Model
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	WhatsAppNumber string    `json:"whatsapp_number" gorm:"index;not null"`
	BotKind        string    `json:"bot_kind" gorm:"index;not null"`
	Token          string    `json:"-" gorm:"uniqueIndex;not null"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	LastActivity   time.Time `json:"last_activity"`
	ExpiresAt      time.Time `json:"expires_at" gorm:"not null"` // fixed at login time, never extended
}
