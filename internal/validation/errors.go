// Package validation checks raw request input for every entity and turns it into model values.
// Failures are reported as *Error so handlers can answer 400 with the message.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Error is a validation failure carrying a client-facing message
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a validation failure
func IsValidationError(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

var validate = validator.New()

// oneOf builds a validator tag accepting exactly the given values
func oneOf[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return "required,oneof=" + strings.Join(parts, " ")
}

// toDecimal accepts JSON numbers and numeric strings
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case decimal.Decimal:
		return n, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

// positiveAmount parses a strictly positive money value
func positiveAmount(v interface{}) (decimal.Decimal, bool) {
	d, ok := toDecimal(v)
	if !ok || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// display renders raw input the way it appears in error messages
func display(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return "undefined"
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
