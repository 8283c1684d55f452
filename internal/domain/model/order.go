package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 待處理
	OrderStatusProcessing OrderStatus = "processing" // 處理中
	OrderStatusCompleted  OrderStatus = "completed"  // 已完成
	OrderStatusCancelled  OrderStatus = "cancelled"  // 已取消
)

// 建立後只有 Status 會變動, TotalAmount 與 Items 皆為快照
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"not null;type:uuid;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Status          OrderStatus     `gorm:"not null;type:varchar(20);default:pending;index" json:"status"`
	PaymentMethod   PaymentMethod   `gorm:"not null;type:varchar(20)" json:"payment_method"`
	TotalAmount     decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
	ShippingAddress string          `gorm:"not null;type:text" json:"shipping_address"`
	ContactInfo     datatypes.JSON  `gorm:"type:jsonb" json:"contact_info"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	BaseModel
}

// Price 為下單當下的 post 價格, 之後 post 改價不影響
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	PostID    *uint           `gorm:"index" json:"post_id"`
	Post      *Post           `gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL" json:"post,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (o *Order) IsCancellable() bool {
	return o.Status == OrderStatusPending
}
