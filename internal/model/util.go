package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// money columns are exchanged as plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// newID returns a fresh UUID string for records keyed by string IDs
func newID() string {
	return uuid.NewString()
}

// All lists every model the service migrates
func All() []interface{} {
	return []interface{}{
		&User{},
		&Item{},
		&Cart{},
		&CartLine{},
		&Order{},
		&OrderLine{},
		&Payment{},
		&Review{},
		&PasswordResetToken{},
	}
}
