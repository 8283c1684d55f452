package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

type IOrderService interface {
	CreateOrderFromCart(ctx context.Context, userID uuid.UUID, params CreateOrderParams) (*model.Order, error)
	CancelOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error)
}

// OrderEventPublisher 訂單事件的發送端, 實作在 infra/producer
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event model.OrderEvent) error
}

type CreateOrderParams struct {
	PaymentMethod   string
	ShippingAddress string
	// ContactInfo 原樣保存, 不解析內容
	ContactInfo json.RawMessage
}

type OrderService struct {
	store     db.IStore
	publisher OrderEventPublisher
	logger    *zerolog.Logger
}

func NewOrderService(store db.IStore, publisher OrderEventPublisher, logger *zerolog.Logger) *OrderService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (p CreateOrderParams) validate() (datatypes.JSON, error) {
	if !model.IsValidPaymentMethod(p.PaymentMethod) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidArgument, p.PaymentMethod)
	}
	if strings.TrimSpace(p.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrInvalidArgument)
	}

	contact := strings.TrimSpace(string(p.ContactInfo))
	if contact == "" || contact == "null" {
		return datatypes.JSON("{}"), nil
	}
	if !json.Valid([]byte(contact)) {
		return nil, fmt.Errorf("%w: contact info must be valid json", ErrInvalidArgument)
	}
	return datatypes.JSON(contact), nil
}

// CreateOrderFromCart 結帳, 以購物車內容建立訂單並清空購物車
// 鎖定購物車、建立訂單與明細、清空購物車都在同一個 transaction 內
// 同一台購物車的並行結帳會被 row lock 序列化, 後到的會看到空購物車
//
// 錯誤:
//   - ErrInvalidArgument: 付款方式不支援, 缺少收件地址, 或總金額超出 decimal(10,2)
//   - ErrCartEmpty: 購物車不存在或沒有項目, 不會有任何寫入
func (o *OrderService) CreateOrderFromCart(ctx context.Context, userID uuid.UUID, params CreateOrderParams) (*model.Order, error) {
	contactInfo, err := params.validate()
	if err != nil {
		return nil, err
	}

	var orderID uint
	err = o.store.ExecTx(ctx, func(tx db.IStore) error {
		cart, err := tx.GetCartByUserID(ctx, userID, true)
		if err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}

		cart, err = tx.GetCartWithItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		total := cart.Total()
		if total.GreaterThanOrEqual(maxPrice) {
			return fmt.Errorf("%w: order total must be less than %s", ErrInvalidArgument, maxPrice.String())
		}

		order := &model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			PaymentMethod:   model.PaymentMethod(params.PaymentMethod),
			TotalAmount:     total,
			ShippingAddress: strings.TrimSpace(params.ShippingAddress),
			ContactInfo:     contactInfo,
			Items:           make([]model.OrderItem, 0, len(cart.Items)),
		}
		for _, item := range cart.Items {
			if item.Post == nil {
				return fmt.Errorf("cart item %d: %w", item.ID, ErrPostNotFound)
			}
			postID := item.PostID
			order.Items = append(order.Items, model.OrderItem{
				PostID:   &postID,
				Quantity: item.Quantity,
				Price:    item.Post.Price,
			})
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if _, err := tx.ClearCart(ctx, cart.ID); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := o.store.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, model.OrderEventCreated, order)
	return order, nil
}

// CancelOrder 只有 pending 狀態可以取消, 其他狀態一律視為找不到
func (o *OrderService) CancelOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error) {
	affected, err := o.store.UpdateOrderStatusFrom(ctx, userID, orderID, model.OrderStatusPending, model.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderNotFound
	}

	order, err := o.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, model.OrderEventCancelled, order)
	return order, nil
}

func (o *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return o.store.ListOrdersByUserID(ctx, userID)
}

func (o *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error) {
	order, err := o.store.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// publish 在 commit 之後送出, 失敗只記錄不影響回應
func (o *OrderService) publish(ctx context.Context, eventType model.OrderEventType, order *model.Order) {
	if o.publisher == nil {
		return
	}
	event := model.NewOrderEvent(eventType, order)
	if err := o.publisher.PublishOrderEvent(ctx, event); err != nil {
		o.logger.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Uint("order_id", order.ID).
			Msg("failed to publish order event")
	}
}

var _ IOrderService = (*OrderService)(nil)
