package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartIndexOf(t *testing.T) {
	cart := NewCart("user-1", "item-1", 2)
	cart.Items = append(cart.Items, CartLine{ItemID: "item-2", Quantity: 3})

	assert.Equal(t, 0, cart.IndexOf("item-1"))
	assert.Equal(t, 1, cart.IndexOf("item-2"))
	assert.Equal(t, -1, cart.IndexOf("missing"))
	assert.True(t, cart.Contains("item-2"))
	assert.False(t, cart.Contains("missing"))
}

func TestCartViewSkipsDeletedItems(t *testing.T) {
	item := Item{ID: "item-1", Name: "9 inches hollow", Category: CategoryBlock, Price: decimal.NewFromInt(450), Stocked: true, DeliveryValue: 2}
	cart := Cart{Items: []CartLine{
		{ItemID: "item-1", Item: &item, Quantity: 4},
		{ItemID: "gone", Quantity: 1},
	}}

	views := cart.View()

	assert.Len(t, views, 1)
	assert.Equal(t, "item-1", views[0].ID)
	assert.Equal(t, 4, views[0].Quantity)
	assert.True(t, views[0].Price.Equal(decimal.NewFromInt(450)))
}

func TestLinesFromCart(t *testing.T) {
	lines := LinesFromCart([]CartLine{{ID: 7, CartID: "c", ItemID: "item-1", Quantity: 3}})

	assert.Equal(t, []OrderLine{{ItemID: "item-1", Quantity: 3}}, lines)
}
