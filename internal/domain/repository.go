package domain

import (
	"context"
	"errors"
)

var (
	ErrInventory        = errors.New("inventory request failed")
	ErrProductNotFound  = errors.New("product not found")
	ErrUnexpectedStatus = errors.New("unexpected inventory response status")
	ErrProductMismatch  = errors.New("inventory returned a different product")
)

// Catalog is the read side of the remote inventory service
type Catalog interface {
	Stock(ctx context.Context, productID int) (Stock, error)
	Product(ctx context.Context, productID int) (Product, error)
}

// CartRepository persists the cart snapshot.
// Load reports found=false when nothing was stored yet.
type CartRepository interface {
	Load(ctx context.Context) (cart Cart, found bool, err error)
	Save(ctx context.Context, cart Cart) error
}
