package validation

import (
	"slices"
	"strings"

	"commerce-service/internal/model"

	"github.com/shopspring/decimal"
)

// ItemInput is the raw item payload. Price and deliveryValue stay untyped so that a
// malformed value yields a field message instead of a decode failure.
type ItemInput struct {
	Name          string      `json:"name"`
	Category      string      `json:"category"`
	ImageURL      string      `json:"imageUrl"`
	Price         interface{} `json:"price"`
	DeliveryValue interface{} `json:"deliveryValue"`
	Description   string      `json:"description"`
}

// ItemUpdate is a validated edit of an existing item
type ItemUpdate struct {
	Name     string
	Category model.Category
	Price    decimal.Decimal
	ImageURL string
}

func itemName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errorf("Incorrect or missing item name %s", display(nil))
	}
	return name, nil
}

func itemPrice(price interface{}) (decimal.Decimal, error) {
	d, ok := positiveAmount(price)
	if !ok {
		return decimal.Zero, errorf("Incorrect or missing item price %s", display(price))
	}
	return d, nil
}

func itemImageURL(url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errorf("Incorrect or missing item image URL %s", display(nil))
	}
	return url, nil
}

func itemCategory(category string) (model.Category, error) {
	if err := validate.Var(category, oneOf(model.Categories)); err != nil {
		return "", errorf("Incorrect or missing item category %s", display(nilIfEmpty(category)))
	}
	return model.Category(category), nil
}

func deliveryValue(v interface{}) (int, error) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) || !slices.Contains(model.DeliveryValues, int(f)) {
		return 0, errorf("Incorrect or missing delivery value %s", display(v))
	}
	return int(f), nil
}

// NewItem validates a creation payload and seeds the generated fields
func NewItem(in ItemInput) (model.Item, error) {
	name, err := itemName(in.Name)
	if err != nil {
		return model.Item{}, err
	}
	price, err := itemPrice(in.Price)
	if err != nil {
		return model.Item{}, err
	}
	category, err := itemCategory(in.Category)
	if err != nil {
		return model.Item{}, err
	}
	imageURL, err := itemImageURL(in.ImageURL)
	if err != nil {
		return model.Item{}, err
	}
	delivery, err := deliveryValue(in.DeliveryValue)
	if err != nil {
		return model.Item{}, err
	}
	return model.NewItem(name, category, imageURL, price, delivery, in.Description), nil
}

// UpdateItem validates an edit payload
func UpdateItem(in ItemInput) (ItemUpdate, error) {
	name, err := itemName(in.Name)
	if err != nil {
		return ItemUpdate{}, err
	}
	category, err := itemCategory(in.Category)
	if err != nil {
		return ItemUpdate{}, err
	}
	price, err := itemPrice(in.Price)
	if err != nil {
		return ItemUpdate{}, err
	}
	imageURL, err := itemImageURL(in.ImageURL)
	if err != nil {
		return ItemUpdate{}, err
	}
	return ItemUpdate{Name: name, Category: category, Price: price, ImageURL: imageURL}, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
