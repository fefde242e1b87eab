package service

import (
	"fmt"

	"github.com/mrops-br/cart-api/internal/domain"
)

// Operation names a cart mutation
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationRemove Operation = "remove"
	OperationUpdate Operation = "update"
)

// Outcome classifies how a cart operation ended
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeOutOfStock Outcome = "out_of_stock"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeFailure    Outcome = "failure"
)

// User-facing messages
const (
	MessageOutOfStock   = "Requested quantity out of stock"
	MessageAddFailed    = "Error adding product"
	MessageRemoveFailed = "Error removing product"
	MessageUpdateFailed = "Error updating product amount"
)

// Result describes a finished cart operation. Cart is the cart after the
// operation, whether it changed or not. Err keeps the underlying cause of
// a failure for logging; it is never returned to the caller as an error.
type Result struct {
	Operation Operation
	Outcome   Outcome
	ProductID int
	Message   string
	Err       error
	Cart      domain.Cart
}

// OK reports whether the cart was committed
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// ShouldNotify reports whether the outcome is something the user must see
func (r Result) ShouldNotify() bool {
	switch r.Outcome {
	case OutcomeOutOfStock, OutcomeNotFound, OutcomeFailure:
		return true
	default:
		return false
	}
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s product %d: %s (%v)", r.Operation, r.ProductID, r.Outcome, r.Err)
	}
	return fmt.Sprintf("%s product %d: %s", r.Operation, r.ProductID, r.Outcome)
}

func failureMessage(op Operation) string {
	switch op {
	case OperationAdd:
		return MessageAddFailed
	case OperationRemove:
		return MessageRemoveFailed
	default:
		return MessageUpdateFailed
	}
}
