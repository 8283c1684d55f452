package service

import (
	"context"
	"math"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartServiceTestSuite struct {
	suite.Suite
	store       *db.Store
	cartService *CartService
	seller      *model.User
	buyer       *model.User
	other       *model.User
	lamp        *model.Post
	chair       *model.Post
}

func (suite *CartServiceTestSuite) SetupTest() {
	suite.store = dbtest.NewStore(suite.T())
	suite.cartService = NewCartService(suite.store)
	suite.seller = dbtest.CreateUser(suite.T(), suite.store, "seller")
	suite.buyer = dbtest.CreateUser(suite.T(), suite.store, "buyer")
	suite.other = dbtest.CreateUser(suite.T(), suite.store, "other")
	suite.lamp = dbtest.CreatePost(suite.T(), suite.store, suite.seller, "lamp", "10.00")
	suite.chair = dbtest.CreatePost(suite.T(), suite.store, suite.seller, "chair", "5.00")
}

func (suite *CartServiceTestSuite) TestGetOrCreateCart_Idempotent() {
	ctx := context.Background()

	first, err := suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	second, err := suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)

	require.Equal(suite.T(), first.Cart.ID, second.Cart.ID)
	require.Empty(suite.T(), second.Cart.Items)
	require.True(suite.T(), second.TotalAmount.IsZero())

	otherCart, err := suite.cartService.GetOrCreateCart(ctx, suite.other.ID)
	require.NoError(suite.T(), err)
	require.NotEqual(suite.T(), first.Cart.ID, otherCart.Cart.ID)
}

func (suite *CartServiceTestSuite) TestAddItem_MergesQuantities() {
	ctx := context.Background()

	_, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.NoError(suite.T(), err)
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 3)
	require.NoError(suite.T(), err)

	require.Len(suite.T(), view.Cart.Items, 1)
	require.Equal(suite.T(), 5, view.Cart.Items[0].Quantity)
	require.True(suite.T(), decimal.RequireFromString("50.00").Equal(view.TotalAmount))
}

func (suite *CartServiceTestSuite) TestAddItem_Validation() {
	ctx := context.Background()

	_, err := suite.cartService.AddItem(ctx, suite.buyer.ID, 0, 1)
	require.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 0)
	require.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = suite.cartService.AddItem(ctx, suite.buyer.ID, 9999, 1)
	require.ErrorIs(suite.T(), err, ErrPostNotFound)

	view, err := suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), view.Cart.Items)
}

func (suite *CartServiceTestSuite) TestUpdateItemQuantity_SetsAbsoluteValue() {
	ctx := context.Background()
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 4)
	require.NoError(suite.T(), err)
	itemID := view.Cart.Items[0].ID

	item, removed, err := suite.cartService.UpdateItemQuantity(ctx, suite.buyer.ID, itemID, 2)
	require.NoError(suite.T(), err)
	require.False(suite.T(), removed)
	require.Equal(suite.T(), 2, item.Quantity)
	require.NotNil(suite.T(), item.Post)
}

func (suite *CartServiceTestSuite) TestUpdateItemQuantity_ZeroOrNegativeRemoves() {
	ctx := context.Background()

	for _, quantity := range []int{0, -3} {
		view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 1)
		require.NoError(suite.T(), err)
		itemID := view.Cart.Items[0].ID

		item, removed, err := suite.cartService.UpdateItemQuantity(ctx, suite.buyer.ID, itemID, quantity)
		require.NoError(suite.T(), err)
		require.True(suite.T(), removed)
		require.Nil(suite.T(), item)

		view, err = suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
		require.NoError(suite.T(), err)
		require.Empty(suite.T(), view.Cart.Items)
	}
}

func (suite *CartServiceTestSuite) TestRemoveItem() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 1)
	require.NoError(suite.T(), err)
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.chair.ID, 1)
	require.NoError(suite.T(), err)
	lampItem := cartItemByPost(suite.T(), view, suite.lamp.ID)

	require.NoError(suite.T(), suite.cartService.RemoveItem(ctx, suite.buyer.ID, lampItem.ID))

	view, err = suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Cart.Items, 1)
	require.Equal(suite.T(), suite.chair.ID, view.Cart.Items[0].PostID)

	err = suite.cartService.RemoveItem(ctx, suite.buyer.ID, lampItem.ID)
	require.ErrorIs(suite.T(), err, ErrCartItemNotFound)
}

func (suite *CartServiceTestSuite) TestAddItem_QuantityCap() {
	ctx := context.Background()

	_, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, math.MaxInt64)
	require.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, constants.MaxCartItemQuantity-1)
	require.NoError(suite.T(), err)

	// 累加後超過上限, 原本的數量不變
	_, err = suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.ErrorIs(suite.T(), err, ErrInvalidArgument)
	_, err = suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, math.MaxInt64)
	require.ErrorIs(suite.T(), err, ErrInvalidArgument)

	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Cart.Items, 1)
	require.Equal(suite.T(), constants.MaxCartItemQuantity, view.Cart.Items[0].Quantity)

	// 其他商品不受影響
	view, err = suite.cartService.AddItem(ctx, suite.buyer.ID, suite.chair.ID, constants.MaxCartItemQuantity)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Cart.Items, 2)
}

func (suite *CartServiceTestSuite) TestUpdateItemQuantity_QuantityCap() {
	ctx := context.Background()
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.NoError(suite.T(), err)
	itemID := view.Cart.Items[0].ID

	for _, quantity := range []int{constants.MaxCartItemQuantity + 1, math.MaxInt64} {
		_, _, err = suite.cartService.UpdateItemQuantity(ctx, suite.buyer.ID, itemID, quantity)
		require.ErrorIs(suite.T(), err, ErrInvalidArgument)
	}

	item, removed, err := suite.cartService.UpdateItemQuantity(ctx, suite.buyer.ID, itemID, constants.MaxCartItemQuantity)
	require.NoError(suite.T(), err)
	require.False(suite.T(), removed)
	require.Equal(suite.T(), constants.MaxCartItemQuantity, item.Quantity)
}

func (suite *CartServiceTestSuite) TestGetItem() {
	ctx := context.Background()
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.NoError(suite.T(), err)
	itemID := view.Cart.Items[0].ID

	item, err := suite.cartService.GetItem(ctx, suite.buyer.ID, itemID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, item.Quantity)

	_, err = suite.cartService.GetItem(ctx, suite.other.ID, itemID)
	require.ErrorIs(suite.T(), err, ErrCartItemNotFound)
}

func (suite *CartServiceTestSuite) TestOtherUsersItemsAreInvisible() {
	ctx := context.Background()
	view, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.NoError(suite.T(), err)
	itemID := view.Cart.Items[0].ID

	err = suite.cartService.RemoveItem(ctx, suite.other.ID, itemID)
	require.ErrorIs(suite.T(), err, ErrCartItemNotFound)

	_, _, err = suite.cartService.UpdateItemQuantity(ctx, suite.other.ID, itemID, 10)
	require.ErrorIs(suite.T(), err, ErrCartItemNotFound)

	_, _, err = suite.cartService.UpdateItemQuantity(ctx, suite.other.ID, itemID, 0)
	require.ErrorIs(suite.T(), err, ErrCartItemNotFound)

	view, err = suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Cart.Items, 1)
	require.Equal(suite.T(), 2, view.Cart.Items[0].Quantity)

	otherView, err := suite.cartService.GetOrCreateCart(ctx, suite.other.ID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), otherView.Cart.Items)
}

func (suite *CartServiceTestSuite) TestTotalFollowsLivePrice() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, suite.buyer.ID, suite.lamp.ID, 2)
	require.NoError(suite.T(), err)

	suite.lamp.Price = decimal.RequireFromString("12.50")
	require.NoError(suite.T(), suite.store.UpdatePost(ctx, suite.lamp))

	view, err := suite.cartService.GetOrCreateCart(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.RequireFromString("25.00").Equal(view.TotalAmount))
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
