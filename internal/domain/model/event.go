package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order_created"
	OrderEventCancelled OrderEventType = "order_cancelled"
)

// OrderEvent 訂單狀態變更後對外發布的事件
type OrderEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   OrderEventType  `json:"event_type"`
	OrderID     uint            `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewOrderEvent(eventType OrderEventType, order *Order) OrderEvent {
	return OrderEvent{
		EventID:     uuid.New(),
		EventType:   eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}
