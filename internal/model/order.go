package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus tracks fulfilment
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderStatuses lists every valid order status
var OrderStatuses = []OrderStatus{OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered}

// OrderType selects delivery or collection
type OrderType string

const (
	OrderTypeStandard OrderType = "standard"
	OrderTypePickup   OrderType = "pickup"
)

// OrderTypes lists every valid order type
var OrderTypes = []OrderType{OrderTypeStandard, OrderTypePickup}

// Order is a snapshot of a user's cart at checkout
type Order struct {
	ID         string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string          `json:"user" gorm:"type:uuid;index;not null"`
	Address    string          `json:"address" gorm:"type:text;not null"`
	Phone      string          `json:"phone" gorm:"type:varchar(32);not null"`
	Name       string          `json:"name" gorm:"type:varchar(255);not null"`
	City       string          `json:"city" gorm:"type:varchar(255);not null"`
	Type       OrderType       `json:"type" gorm:"type:varchar(20);not null"`
	Items      []OrderLine     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(20);not null"`
	Total      decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	PaymentRef string          `json:"paymentRef" gorm:"type:varchar(255);not null"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// OrderLine is a cart line copied into an order
type OrderLine struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	OrderID  string `json:"-" gorm:"type:uuid;index;not null"`
	ItemID   string `json:"itemId" gorm:"type:uuid;not null"`
	Item     *Item  `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Quantity int    `json:"quantity" gorm:"not null;default:1"`
}

// BeforeCreate assigns a UUID when none is set
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = newID()
	}
	if o.Status == "" {
		o.Status = OrderStatusConfirmed
	}
	return nil
}

// LinesFromCart copies cart lines into fresh order lines
func LinesFromCart(lines []CartLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return out
}
