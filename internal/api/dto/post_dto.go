package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PostImageDTO struct {
	ID    uint   `json:"id"`
	URL   string `json:"url"`
	Order int    `json:"order"`
}

type PostDTO struct {
	ID        uint            `json:"id"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username,omitempty"`
	Caption   string          `json:"caption"`
	Price     decimal.Decimal `json:"price"`
	Images    []PostImageDTO  `json:"images"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PostPageDTO struct {
	Items      []PostDTO `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
