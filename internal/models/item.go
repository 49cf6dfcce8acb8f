package models

import (
	"gorm.io/gorm"
)

// LowStockThreshold is the quantity at or below which an item counts as low stock
const LowStockThreshold = 10

// Item represents one inventory line
type Item struct {
	gorm.Model
	Name        string  `json:"name" gorm:"uniqueIndex;not null"`
	Quantity    int     `json:"quantity" gorm:"not null;default:0"` // never negative; debited only through a committed sale
	Price       float64 `json:"price" gorm:"not null"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active" gorm:"default:true"`
}

// IsLowStock reports whether the item is running low
func (i *Item) IsLowStock() bool {
	return i.Quantity > 0 && i.Quantity <= LowStockThreshold
}

// IsOutOfStock reports whether the item is sold out
func (i *Item) IsOutOfStock() bool {
	return i.Quantity <= 0
}
