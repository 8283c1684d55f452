package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IOrderRepository Order 相關操作介面
type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderForUser(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error)
	ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateOrderStatusFrom(ctx context.Context, userID uuid.UUID, orderID uint, from, to model.OrderStatus) (int64, error)
}

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create - 訂單與 order items 一起寫入
func (r *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func preloadOrderItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Post").
		Preload("Items.Post.User").
		Preload("Items.Post.Images", preloadImages)
}

// Read - 只查得到自己的訂單
func (r *OrderRepo) GetOrderForUser(ctx context.Context, userID uuid.UUID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := preloadOrderItems(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (r *OrderRepo) ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := preloadOrderItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// Update - 條件式更新狀態, 狀態不是 from 時不會更新, 回傳影響筆數
func (r *OrderRepo) UpdateOrderStatusFrom(ctx context.Context, userID uuid.UUID, orderID uint, from, to model.OrderStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND user_id = ? AND status = ?", orderID, userID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
