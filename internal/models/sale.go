package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Sale statuses. A sale leaves "pending" exactly once; all destinations are terminal.
const (
	SaleStatusPending   = "pending"
	SaleStatusCommitted = "committed"
	SaleStatusFailed    = "failed"
	SaleStatusExpired   = "expired"
)

// SaleLine is one invoiced line, a snapshot of the item at submit time
type SaleLine struct {
	ItemID    uint    `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Total returns the line total
func (l SaleLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Sale is an invoice request awaiting retailer confirmation
type Sale struct {
	gorm.Model
	InvoiceNo        string    `json:"invoice_no" gorm:"uniqueIndex;not null"`
	UserID           uint      `json:"user_id" gorm:"index;not null"`
	RetailerPhone    string    `json:"retailer_phone" gorm:"not null"`
	CustomerName     string    `json:"customer_name" gorm:"not null"`
	LinesJSON        string    `json:"-" gorm:"column:lines;type:text;not null"`
	TotalAmount      float64   `json:"total_amount" gorm:"not null"`
	Status           string    `json:"status" gorm:"index;default:pending"`
	ReservationToken string    `json:"-" gorm:"not null"`
	ArtifactPath     string    `json:"artifact_path"`
	ConfirmDeadline  time.Time `json:"confirm_deadline" gorm:"index;not null"`
}

// Lines decodes the stored line snapshot
func (s *Sale) Lines() ([]SaleLine, error) {
	var lines []SaleLine
	if err := json.Unmarshal([]byte(s.LinesJSON), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetLines encodes and stores the line snapshot
func (s *Sale) SetLines(lines []SaleLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	s.LinesJSON = string(data)
	return nil
}

// IsPending reports whether the sale still awaits retailer confirmation
func (s *Sale) IsPending() bool {
	return s.Status == SaleStatusPending
}
