package service

import "fmt"

// StockCheck selects how UpdateProductAmount compares a requested amount
// against available stock.
type StockCheck string

const (
	// StockCheckLegacy rejects when amount+1 exceeds stock, matching the
	// storefront's historical behavior. It refuses to set the last unit.
	StockCheckLegacy StockCheck = "legacy"
	// StockCheckStrict rejects only when amount exceeds stock.
	StockCheckStrict StockCheck = "strict"
)

// ParseStockCheck converts a configuration value into a StockCheck
func ParseStockCheck(s string) (StockCheck, error) {
	switch StockCheck(s) {
	case StockCheckLegacy, "":
		return StockCheckLegacy, nil
	case StockCheckStrict:
		return StockCheckStrict, nil
	}
	return "", fmt.Errorf("unknown stock check %q", s)
}

// exceeds reports whether amount can't be satisfied by available units
func (c StockCheck) exceeds(amount, available int) bool {
	if c == StockCheckStrict {
		return amount > available
	}
	return amount+1 > available
}
