package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// quantity 未帶時預設 1
type AddToCartDTO struct {
	PostID   *uint `json:"post_id"`
	Quantity *int  `json:"quantity"`
}

// quantity <= 0 代表移除
type UpdateCartItemDTO struct {
	Quantity *int `json:"quantity"`
}

type CartItemDTO struct {
	ID       uint            `json:"id"`
	PostID   uint            `json:"post_id"`
	Post     *PostDTO        `json:"post,omitempty"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
	AddedAt  time.Time       `json:"added_at"`
}

type CartDTO struct {
	ID          uint            `json:"id"`
	Items       []CartItemDTO   `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateOrderDTO struct {
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address"`
	ContactInfo     json.RawMessage `json:"contact_info"`
}

// post 被刪除後 PostID 與 Post 皆為 null
type OrderItemDTO struct {
	ID       uint            `json:"id"`
	PostID   *uint           `json:"post_id"`
	Post     *PostDTO        `json:"post,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type OrderDTO struct {
	ID              uint            `json:"id"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	ContactInfo     json.RawMessage `json:"contact_info"`
	Items           []OrderItemDTO  `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
