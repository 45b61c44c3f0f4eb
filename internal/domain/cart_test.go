package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTotalCents(t *testing.T) {
	d := CartLineDetail{
		CartLine:       CartLine{Quantity: 5},
		UnitPriceCents: 2500,
	}
	assert.Equal(t, int64(12500), d.LineTotalCents())
}

func TestComputeTotalCents(t *testing.T) {
	lines := []CartLineDetail{
		{CartLine: CartLine{Quantity: 2}, UnitPriceCents: 2500},
		{CartLine: CartLine{Quantity: 1}, UnitPriceCents: 990},
	}
	assert.Equal(t, int64(5990), ComputeTotalCents(lines))
}

func TestComputeTotalCents_Empty(t *testing.T) {
	assert.Zero(t, ComputeTotalCents(nil))
}
