package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID = errors.New("product id must be positive")
	ErrInvalidAmount    = errors.New("product amount must be positive")
)

// Product represents a catalog product as held in the cart.
// Title, Price and Image are display attributes the cart never interprets.
type Product struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`

	// Extra keeps any other catalog fields so they survive a save and
	// reload. It is never mutated after decoding.
	Extra map[string]json.RawMessage `json:"-"`
}

var productKeys = []string{"id", "title", "price", "image", "amount"}

// MarshalJSON writes the typed fields merged over Extra
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	raw, err := json.Marshal(plain(p))
	if err != nil || len(p.Extra) == 0 {
		return raw, err
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(productKeys))
	for k, v := range p.Extra {
		merged[k] = v
	}
	// Typed fields win over extras with the same name
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the typed fields and collects the rest into Extra
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var fields plain
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range all {
		for _, known := range productKeys {
			// encoding/json matches field names case-insensitively
			if strings.EqualFold(k, known) {
				delete(all, k)
				break
			}
		}
	}

	*p = Product(fields)
	if len(all) > 0 {
		p.Extra = all
	}
	return nil
}

// Stock is the inventory level reported for a product
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Subtotal is price times amount
func (p Product) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Amount)))
}

// ValidateProductID rejects identifiers that can't reference a catalog entry
func ValidateProductID(id int) error {
	if id <= 0 {
		return ErrInvalidProductID
	}
	return nil
}
