package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentStatuses lists every valid payment status
var PaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusRefunded}

// Payment records money received from a user. It is not linked to an order.
type Payment struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Status    PaymentStatus   `json:"status" gorm:"type:varchar(20);not null"`
	UserID    string          `json:"user" gorm:"type:uuid;index;not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return nil
}
