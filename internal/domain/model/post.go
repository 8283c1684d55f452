package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Post struct {
	ID      uint            `gorm:"primaryKey" json:"id"`
	UserID  uuid.UUID       `gorm:"not null;type:uuid;index" json:"user_id"`
	User    *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Caption string          `gorm:"not null;type:text" json:"caption"`
	Price   decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Images  []PostImage     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"images"`
	BaseModel
}

// Path 為 storage key, 實際 URL 由 handler 組出
type PostImage struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"not null;index" json:"post_id"`
	Path   string `gorm:"not null;type:varchar(255)" json:"path"`
	Order  int    `gorm:"column:sort_order;not null;default:0" json:"order"`
}
