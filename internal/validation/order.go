package validation

import (
	"strings"

	"commerce-service/internal/model"

	"github.com/shopspring/decimal"
)

// OrderInput is the raw checkout payload
type OrderInput struct {
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	Phone      string      `json:"phone"`
	Type       string      `json:"type"`
	Total      interface{} `json:"total"`
	PaymentRef string      `json:"paymentRef"`
}

// StatusInput carries a status change for orders and payments
type StatusInput struct {
	Status string `json:"status"`
}

func required(value, field string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", errorf("Incorrect or missing %s %s", field, display(nil))
	}
	return value, nil
}

func orderType(t string) (model.OrderType, error) {
	if err := validate.Var(t, oneOf(model.OrderTypes)); err != nil {
		return "", errorf("Incorrect or missing type %s", display(nilIfEmpty(t)))
	}
	return model.OrderType(t), nil
}

func orderTotal(total interface{}) (decimal.Decimal, error) {
	d, ok := positiveAmount(total)
	if !ok {
		return decimal.Zero, errorf("Incorrect or missing total %s", display(total))
	}
	return d, nil
}

// OrderStatus accepts confirmed, shipped or delivered
func OrderStatus(status string) (model.OrderStatus, error) {
	if err := validate.Var(status, oneOf(model.OrderStatuses)); err != nil {
		return "", errorf("Incorrect or missing order status")
	}
	return model.OrderStatus(status), nil
}

// NewOrder validates checkout details. Items and owner are filled in by the caller.
func NewOrder(in OrderInput) (model.Order, error) {
	name, err := Name(in.Name)
	if err != nil {
		return model.Order{}, err
	}
	address, err := required(in.Address, "address")
	if err != nil {
		return model.Order{}, err
	}
	city, err := required(in.City, "city")
	if err != nil {
		return model.Order{}, err
	}
	phone, err := Phone(in.Phone)
	if err != nil {
		return model.Order{}, err
	}
	typ, err := orderType(in.Type)
	if err != nil {
		return model.Order{}, err
	}
	total, err := orderTotal(in.Total)
	if err != nil {
		return model.Order{}, err
	}
	paymentRef, err := required(in.PaymentRef, "payment reference")
	if err != nil {
		return model.Order{}, err
	}

	return model.Order{
		Name:       name,
		Address:    address,
		City:       city,
		Phone:      phone,
		Type:       typ,
		Total:      total,
		Status:     model.OrderStatusConfirmed,
		PaymentRef: paymentRef,
	}, nil
}
