package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleCart() Cart {
	return Cart{
		{ID: 1, Title: "Tênis de Caminhada", Price: 179.9, Amount: 2},
		{ID: 2, Title: "Tênis VR Caminhada", Price: 139.9, Amount: 1},
		{ID: 3, Title: "Tênis Adidas Duramo", Price: 219.9, Amount: 3},
	}
}

func TestCartFind(t *testing.T) {
	c := sampleCart()

	p, ok := c.Find(2)
	assert.True(t, ok)
	assert.Equal(t, "Tênis VR Caminhada", p.Title)

	_, ok = c.Find(9)
	assert.False(t, ok)
}

func TestCartWithAmountCopies(t *testing.T) {
	c := sampleCart()

	next := c.WithAmount(3, 7)

	assert.Equal(t, 7, next[2].Amount)
	assert.Equal(t, 3, c[2].Amount, "original must not change")
	assert.Equal(t, c.WithAmount(42, 1), c, "unknown id leaves contents unchanged")
}

func TestCartWithoutKeepsOrder(t *testing.T) {
	c := sampleCart()

	next := c.Without(2)

	assert.Len(t, c, 3)
	assert.Equal(t, []int{1, 3}, ids(next))
	assert.Equal(t, ids(c), ids(c.Without(99)))
}

func TestCartAppendDoesNotAlias(t *testing.T) {
	c := make(Cart, 0, 10)
	c = append(c, Product{ID: 1, Amount: 1})

	a := c.Append(Product{ID: 2, Amount: 1})
	b := c.Append(Product{ID: 3, Amount: 1})

	assert.Equal(t, []int{1, 2}, ids(a))
	assert.Equal(t, []int{1, 3}, ids(b))
}

func TestCartTotals(t *testing.T) {
	c := sampleCart()

	assert.Equal(t, 6, c.TotalAmount())
	assert.True(t, decimal.RequireFromString("1159.4").Equal(c.Subtotal()), c.Subtotal().String())
	assert.True(t, Cart{}.Subtotal().IsZero())
	assert.Equal(t, 0, Cart{}.TotalAmount())
}

func TestCartNormalize(t *testing.T) {
	c := Cart{
		{ID: 1, Amount: 1},
		{ID: 2, Amount: 0},
		{ID: 1, Amount: 5},
		{ID: 3, Amount: 2},
	}

	got, dropped := c.Normalize()

	assert.True(t, dropped)
	if diff := cmp.Diff(Cart{{ID: 1, Amount: 1}, {ID: 3, Amount: 2}}, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	clean, dropped := sampleCart().Normalize()
	assert.False(t, dropped)
	assert.Equal(t, sampleCart(), clean)
}

func TestValidateProductID(t *testing.T) {
	assert.NoError(t, ValidateProductID(1))
	assert.ErrorIs(t, ValidateProductID(0), ErrInvalidProductID)
	assert.ErrorIs(t, ValidateProductID(-4), ErrInvalidProductID)
}

func ids(c Cart) []int {
	out := make([]int, len(c))
	for i, p := range c {
		out[i] = p.ID
	}
	return out
}
