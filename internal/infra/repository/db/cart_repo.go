package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ICartRepository Cart 相關操作介面
type ICartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetCartByUserID(ctx context.Context, userID uuid.UUID, forUpdate bool) (*model.Cart, error)
	GetCartWithItems(ctx context.Context, cartID uint) (*model.Cart, error)
	UpsertCartItem(ctx context.Context, cartID, postID uint, quantity int) error
	GetCartItemForUser(ctx context.Context, userID uuid.UUID, itemID uint) (*model.CartItem, error)
	SetCartItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteCartItem(ctx context.Context, itemID uint) error
	ClearCart(ctx context.Context, cartID uint) (int64, error)
}

type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

// 冪等, user_id 為 unique index, 重複建立時不做任何事
func (r *CartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.Cart{UserID: userID}).Error
	if err != nil {
		return nil, err
	}

	var cart model.Cart
	if err := db.First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &cart, nil
}

// forUpdate 時鎖住購物車列, 同一台購物車的結帳會依序執行
func (r *CartRepo) GetCartByUserID(ctx context.Context, userID uuid.UUID, forUpdate bool) (*model.Cart, error) {
	query := r.db.WithContext(ctx)
	if forUpdate && isPostgres(r.db.DB) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart model.Cart
	if err := query.First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, translateErr(err)
	}
	return &cart, nil
}

func (r *CartRepo) GetCartWithItems(ctx context.Context, cartID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at ASC, id ASC")
		}).
		Preload("Items.Post").
		Preload("Items.Post.User").
		Preload("Items.Post.Images", preloadImages).
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &cart, nil
}

// 同一個 (cart, post) 已存在時累加數量, 不覆蓋
func (r *CartRepo) UpsertCartItem(ctx context.Context, cartID, postID uint, quantity int) error {
	item := model.CartItem{
		CartID:   cartID,
		PostID:   postID,
		Quantity: quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "post_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
}

// 找不到或不屬於該 user 的購物車都回傳 ErrRecordNotFound
func (r *CartRepo) GetCartItemForUser(ctx context.Context, userID uuid.UUID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Select("cart_items.*").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		Preload("Post").
		Preload("Post.User").
		Preload("Post.Images", preloadImages).
		First(&item).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &item, nil
}

func (r *CartRepo) SetCartItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *CartRepo) DeleteCartItem(ctx context.Context, itemID uint) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, itemID).Error
}

func (r *CartRepo) ClearCart(ctx context.Context, cartID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{})
	return result.RowsAffected, result.Error
}
