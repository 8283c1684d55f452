package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ICartService interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, postID uint, quantity int) (*CartView, error)
	GetItem(ctx context.Context, userID uuid.UUID, itemID uint) (*model.CartItem, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, itemID uint) error
	UpdateItemQuantity(ctx context.Context, userID uuid.UUID, itemID uint, quantity int) (*model.CartItem, bool, error)
}

// CartView 購物車與即時計算的總金額, 總金額不落地
type CartView struct {
	Cart        *model.Cart
	TotalAmount decimal.Decimal
}

func newCartView(cart *model.Cart) *CartView {
	return &CartView{
		Cart:        cart,
		TotalAmount: cart.Total(),
	}
}

type CartService struct {
	store db.IStore
}

func NewCartService(store db.IStore) *CartService {
	return &CartService{
		store: store,
	}
}

// GetOrCreateCart 第一次存取時建立空購物車, 重複呼叫回傳同一台
func (c *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := c.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.loadView(ctx, cart.ID)
}

func (c *CartService) loadView(ctx context.Context, cartID uint) (*CartView, error) {
	cart, err := c.store.GetCartWithItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return newCartView(cart), nil
}

// lockCart 取得並鎖住購物車列, 所有購物車異動與結帳都經過這裡而互相序列化
func lockCart(ctx context.Context, tx db.IStore, userID uuid.UUID) (*model.Cart, error) {
	if _, err := tx.GetOrCreateCart(ctx, userID); err != nil {
		return nil, err
	}
	return tx.GetCartByUserID(ctx, userID, true)
}

var errQuantityTooLarge = fmt.Errorf("%w: quantity must be at most %d", ErrInvalidArgument, constants.MaxCartItemQuantity)

// AddItem 同一個 post 已在購物車內時累加數量
//
// 錯誤:
//   - ErrInvalidArgument: postID 為 0, quantity < 1, 或累加後超過 MaxCartItemQuantity
//   - ErrPostNotFound: post 不存在
func (c *CartService) AddItem(ctx context.Context, userID uuid.UUID, postID uint, quantity int) (*CartView, error) {
	if postID == 0 {
		return nil, fmt.Errorf("%w: post_id is required", ErrInvalidArgument)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	}
	if quantity > constants.MaxCartItemQuantity {
		return nil, errQuantityTooLarge
	}

	var cartID uint
	err := c.store.ExecTx(ctx, func(tx db.IStore) error {
		cart, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		if _, err := tx.GetPostByID(ctx, postID); err != nil {
			if errors.Is(err, db.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		withItems, err := tx.GetCartWithItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		for _, item := range withItems.Items {
			if item.PostID == postID && item.Quantity > constants.MaxCartItemQuantity-quantity {
				return errQuantityTooLarge
			}
		}

		cartID = cart.ID
		return tx.UpsertCartItem(ctx, cart.ID, postID, quantity)
	})
	if err != nil {
		return nil, err
	}

	return c.loadView(ctx, cartID)
}

// GetItem 只回傳自己購物車內的項目, 否則 ErrCartItemNotFound
func (c *CartService) GetItem(ctx context.Context, userID uuid.UUID, itemID uint) (*model.CartItem, error) {
	return c.ownedItem(ctx, c.store, userID, itemID)
}

// RemoveItem 只能刪除自己購物車內的項目
//
// 先鎖購物車再查項目, 同時進行的結帳清空購物車後這裡會得到 ErrCartItemNotFound
func (c *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, itemID uint) error {
	return c.store.ExecTx(ctx, func(tx db.IStore) error {
		if _, err := lockCart(ctx, tx, userID); err != nil {
			return err
		}
		item, err := c.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		return tx.DeleteCartItem(ctx, item.ID)
	})
}

// UpdateItemQuantity quantity 為絕對值, <= 0 時等同刪除並回傳 removed = true
//
// 錯誤:
//   - ErrInvalidArgument: quantity 超過 MaxCartItemQuantity
//   - ErrCartItemNotFound: 項目不存在或不屬於 userID
func (c *CartService) UpdateItemQuantity(ctx context.Context, userID uuid.UUID, itemID uint, quantity int) (*model.CartItem, bool, error) {
	if quantity > constants.MaxCartItemQuantity {
		return nil, false, errQuantityTooLarge
	}

	removed := quantity <= 0
	err := c.store.ExecTx(ctx, func(tx db.IStore) error {
		if _, err := lockCart(ctx, tx, userID); err != nil {
			return err
		}
		item, err := c.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if removed {
			return tx.DeleteCartItem(ctx, item.ID)
		}
		return tx.SetCartItemQuantity(ctx, item.ID, quantity)
	})
	if err != nil {
		return nil, false, err
	}
	if removed {
		return nil, true, nil
	}

	item, err := c.ownedItem(ctx, c.store, userID, itemID)
	if err != nil {
		return nil, false, err
	}
	return item, false, nil
}

func (c *CartService) ownedItem(ctx context.Context, store db.IStore, userID uuid.UUID, itemID uint) (*model.CartItem, error) {
	item, err := store.GetCartItemForUser(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, db.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

var _ ICartService = (*CartService)(nil)
