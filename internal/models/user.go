package models

import (
	"gorm.io/gorm"
)

// User is a retailer account that can log in to either bot
type User struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null"`
	Username       string `json:"username" gorm:"uniqueIndex;not null"`
	WhatsAppNumber string `json:"whatsapp_number" gorm:"uniqueIndex"`
	PasswordHash   string `json:"-" gorm:"not null"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}
