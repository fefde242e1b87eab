package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock       = errors.New("requested quantity out of stock")
	ErrProductNotInCart = errors.New("product not in cart")
)

// Cart is an ordered list of products, unique by ID, in order of first addition.
type Cart []Product

// Find returns the entry for id and whether it exists
func (c Cart) Find(id int) (Product, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Clone returns a copy that shares no backing array with c
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// WithAmount returns a copy where the entry for id carries amount.
// A missing id yields an unchanged copy.
func (c Cart) WithAmount(id, amount int) Cart {
	out := c.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Amount = amount
		}
	}
	return out
}

// Without returns a copy with the entry for id removed
func (c Cart) Without(id int) Cart {
	out := make(Cart, 0, len(c))
	for _, p := range c {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Append returns a copy with p added at the end
func (c Cart) Append(p Product) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, p)
}

// TotalAmount sums the amounts of every entry
func (c Cart) TotalAmount() int {
	total := 0
	for _, p := range c {
		total += p.Amount
	}
	return total
}

// Subtotal sums price times amount of every entry
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c {
		total = total.Add(p.Subtotal())
	}
	return total
}

// Normalize drops repeated IDs (the first entry wins) and entries without a
// positive amount. It reports whether anything was dropped.
func (c Cart) Normalize() (Cart, bool) {
	seen := make(map[int]struct{}, len(c))
	out := make(Cart, 0, len(c))
	for _, p := range c {
		if _, dup := seen[p.ID]; dup || p.Amount <= 0 {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, len(out) != len(c)
}
