package model

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups catalog items
type Category string

const (
	CategoryBlock  Category = "block"
	CategorySand   Category = "sand"
	CategoryOthers Category = "others"
	CategoryCement Category = "cement"
)

// Categories lists every valid category
var Categories = []Category{CategoryBlock, CategorySand, CategoryOthers, CategoryCement}

// DeliveryValues lists the accepted delivery tiers
var DeliveryValues = []int{1, 2, 3, 4}

// ItemReviews is the rating summary shown with an item
type ItemReviews struct {
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"numReviews"`
}

// Item is a catalog entry
type Item struct {
	ID            string          `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Category      Category        `json:"category" gorm:"type:varchar(20);not null"`
	ImageURL      string          `json:"imageUrl" gorm:"type:text;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Discount      float64         `json:"discount" gorm:"not null"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	Stocked       bool            `json:"stocked" gorm:"not null"`
	Reviews       ItemReviews     `json:"reviews" gorm:"embedded;embeddedPrefix:review_"`
	DeliveryValue int             `json:"deliveryValue" gorm:"not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none is set
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = newID()
	}
	return nil
}

// NewItem builds a stocked item with a random discount and a seeded review summary
func NewItem(name string, category Category, imageURL string, price decimal.Decimal, deliveryValue int, description string) Item {
	return Item{
		Name:          name,
		Category:      category,
		ImageURL:      imageURL,
		Price:         price,
		Discount:      round2(rand.Float64()),
		Description:   description,
		Stocked:       true,
		DeliveryValue: deliveryValue,
		Reviews: ItemReviews{
			Rating:     3 + round2(rand.Float64())*2,
			NumReviews: 5 + rand.IntN(10),
		},
	}
}

// round2 rounds down to two decimals so a discount never reaches 1
func round2(f float64) float64 {
	return math.Floor(f*100) / 100
}
