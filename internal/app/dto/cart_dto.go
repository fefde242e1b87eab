package dto

import (
	"github.com/mrops-br/cart-api/internal/domain"
)

// AddProductRequest represents the request to add one unit of a product
type AddProductRequest struct {
	ProductID int `json:"productId"`
}

// UpdateProductAmountRequest represents the request to set a product's amount
type UpdateProductAmountRequest struct {
	ProductID int `json:"productId"`
	Amount    int `json:"amount"`
}

// CartItemResponse represents one cart entry
type CartItemResponse struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Amount   int     `json:"amount"`
	Subtotal float64 `json:"subtotal"`
}

// CartResponse represents the read-only cart view
type CartResponse struct {
	Items       []*CartItemResponse `json:"items"`
	TotalAmount int                 `json:"total_amount"`
	Total       float64             `json:"total"`
}

// OperationResponse represents the outcome of a cart mutation
type OperationResponse struct {
	Operation string        `json:"operation"`
	Outcome   string        `json:"outcome"`
	ProductID int           `json:"product_id"`
	Message   string        `json:"message,omitempty"`
	Cart      *CartResponse `json:"cart"`
}

// ToCartItemResponse converts a domain Product to CartItemResponse
func ToCartItemResponse(p domain.Product) *CartItemResponse {
	return &CartItemResponse{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Image:    p.Image,
		Amount:   p.Amount,
		Subtotal: p.Subtotal().InexactFloat64(),
	}
}

// ToCartResponse converts a domain Cart to CartResponse
func ToCartResponse(c domain.Cart) *CartResponse {
	items := make([]*CartItemResponse, len(c))
	for i, p := range c {
		items[i] = ToCartItemResponse(p)
	}
	return &CartResponse{
		Items:       items,
		TotalAmount: c.TotalAmount(),
		Total:       c.Subtotal().InexactFloat64(),
	}
}
