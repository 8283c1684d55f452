package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 每個 user 只會有一台購物車, 第一次存取時建立
type Cart struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"not null;type:uuid;uniqueIndex" json:"user_id"`
	User   *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	BaseModel
}

// (cart_id, post_id) 唯一, 重複加入只累加數量
type CartItem struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	CartID   uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_post" json:"cart_id"`
	PostID   uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_post" json:"post_id"`
	Post     *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	Quantity int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	AddedAt  time.Time `gorm:"not null;autoCreateTime" json:"added_at"`
}

// Subtotal uses the live post price.
func (c *CartItem) Subtotal() decimal.Decimal {
	if c.Post == nil {
		return decimal.Zero
	}
	return c.Post.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Total is computed on every read and never persisted.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}
