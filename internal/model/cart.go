package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart holds the lines a user intends to order. One cart per user by convention.
type Cart struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string     `json:"user" gorm:"type:uuid;index;not null"`
	Items     []CartLine `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartLine is an (item, quantity) pair inside a cart
type CartLine struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	CartID   string `json:"-" gorm:"type:uuid;index;not null"`
	ItemID   string `json:"itemId" gorm:"type:uuid;not null"`
	Item     *Item  `json:"-" gorm:"foreignKey:ItemID"`
	Quantity int    `json:"quantity" gorm:"not null;default:1"`
}

// CartItemView is the denormalised cart line returned to clients
type CartItemView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Quantity      int             `json:"quantity"`
	ImageURL      string          `json:"imageUrl"`
	Price         decimal.Decimal `json:"price"`
	Stocked       bool            `json:"stocked"`
	DeliveryValue int             `json:"deliveryValue"`
	Description   string          `json:"description,omitempty"`
}

// BeforeCreate assigns a UUID when none is set
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

// NewCart returns a cart for userID holding a single line
func NewCart(userID, itemID string, quantity int) Cart {
	return Cart{
		UserID: userID,
		Items:  []CartLine{{ItemID: itemID, Quantity: quantity}},
	}
}

// IndexOf returns the position of the line for itemID, or -1
func (c *Cart) IndexOf(itemID string) int {
	for i, line := range c.Items {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Contains reports whether the cart already has a line for itemID
func (c *Cart) Contains(itemID string) bool {
	return c.IndexOf(itemID) >= 0
}

// View denormalises lines whose item is loaded. Lines pointing at deleted items are skipped.
func (c *Cart) View() []CartItemView {
	views := make([]CartItemView, 0, len(c.Items))
	for _, line := range c.Items {
		if line.Item == nil {
			continue
		}
		views = append(views, CartItemView{
			ID:            line.Item.ID,
			Name:          line.Item.Name,
			Category:      line.Item.Category,
			Quantity:      line.Quantity,
			ImageURL:      line.Item.ImageURL,
			Price:         line.Item.Price,
			Stocked:       line.Item.Stocked,
			DeliveryValue: line.Item.DeliveryValue,
			Description:   line.Item.Description,
		})
	}
	return views
}
