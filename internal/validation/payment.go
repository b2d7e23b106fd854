package validation

import (
	"commerce-service/internal/model"

	"github.com/shopspring/decimal"
)

// PaymentInput is the raw payment payload
type PaymentInput struct {
	Amount interface{} `json:"amount"`
}

// Amount requires a positive number
func Amount(amount interface{}) (decimal.Decimal, error) {
	d, ok := positiveAmount(amount)
	if !ok {
		return decimal.Zero, errorf("Incorrect or missing amount %s", display(amount))
	}
	return d, nil
}

// PaymentStatus accepts pending, completed or refunded
func PaymentStatus(status string) (model.PaymentStatus, error) {
	if err := validate.Var(status, oneOf(model.PaymentStatuses)); err != nil {
		return "", errorf("Incorrect or missing payment status %s", display(nilIfEmpty(status)))
	}
	return model.PaymentStatus(status), nil
}
