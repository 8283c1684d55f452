package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
)

type OrderRepoTestSuite struct {
	suite.Suite
	store *db.Store
	owner *model.User
	buyer *model.User
	post  *model.Post
}

func (suite *OrderRepoTestSuite) SetupTest() {
	suite.store = dbtest.NewStore(suite.T())
	suite.owner = dbtest.CreateUser(suite.T(), suite.store, "seller")
	suite.buyer = dbtest.CreateUser(suite.T(), suite.store, "buyer")
	suite.post = dbtest.CreatePost(suite.T(), suite.store, suite.owner, "lamp", "10.00")
}

func (suite *OrderRepoTestSuite) createTestOrder() *model.Order {
	postID := suite.post.ID
	order := &model.Order{
		UserID:          suite.buyer.ID,
		Status:          model.OrderStatusPending,
		PaymentMethod:   model.PaymentMethodBank,
		TotalAmount:     decimal.RequireFromString("20.00"),
		ShippingAddress: "1 Main St",
		ContactInfo:     datatypes.JSON(`{"email":"buyer@example.com"}`),
		Items: []model.OrderItem{
			{PostID: &postID, Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
	}
	require.NoError(suite.T(), suite.store.CreateOrder(context.Background(), order))
	return order
}

func (suite *OrderRepoTestSuite) TestCreateOrder() {
	order := suite.createTestOrder()

	require.NotZero(suite.T(), order.ID)
	require.Len(suite.T(), order.Items, 1)
	require.NotZero(suite.T(), order.Items[0].ID)
	require.Equal(suite.T(), order.ID, order.Items[0].OrderID)
}

func (suite *OrderRepoTestSuite) TestGetOrderForUser() {
	order := suite.createTestOrder()
	ctx := context.Background()

	found, err := suite.store.GetOrderForUser(ctx, suite.buyer.ID, order.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.RequireFromString("20").Equal(found.TotalAmount))
	require.Len(suite.T(), found.Items, 1)
	require.NotNil(suite.T(), found.Items[0].Post)
	require.JSONEq(suite.T(), `{"email":"buyer@example.com"}`, string(found.ContactInfo))

	_, err = suite.store.GetOrderForUser(ctx, suite.owner.ID, order.ID)
	require.ErrorIs(suite.T(), err, db.ErrRecordNotFound)
}

func (suite *OrderRepoTestSuite) TestListOrdersByUserID() {
	first := suite.createTestOrder()
	second := suite.createTestOrder()

	orders, err := suite.store.ListOrdersByUserID(context.Background(), suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)
	require.Equal(suite.T(), second.ID, orders[0].ID)
	require.Equal(suite.T(), first.ID, orders[1].ID)

	orders, err = suite.store.ListOrdersByUserID(context.Background(), suite.owner.ID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
}

func (suite *OrderRepoTestSuite) TestUpdateOrderStatusFrom() {
	order := suite.createTestOrder()
	ctx := context.Background()

	affected, err := suite.store.UpdateOrderStatusFrom(ctx, suite.buyer.ID, order.ID, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(suite.T(), err)
	require.EqualValues(suite.T(), 1, affected)

	// 已不是 pending, 不會再更新
	affected, err = suite.store.UpdateOrderStatusFrom(ctx, suite.buyer.ID, order.ID, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(suite.T(), err)
	require.EqualValues(suite.T(), 0, affected)

	found, err := suite.store.GetOrderForUser(ctx, suite.buyer.ID, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCancelled, found.Status)
}

func (suite *OrderRepoTestSuite) TestDeletePost_KeepsOrderItems() {
	order := suite.createTestOrder()
	ctx := context.Background()

	require.NoError(suite.T(), suite.store.DeletePost(ctx, suite.post.ID))

	found, err := suite.store.GetOrderForUser(ctx, suite.buyer.ID, order.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), found.Items, 1)
	require.Nil(suite.T(), found.Items[0].PostID)
	require.True(suite.T(), decimal.RequireFromString("10").Equal(found.Items[0].Price))
}

func (suite *OrderRepoTestSuite) TestExecTx_RollbackOnError() {
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := suite.store.ExecTx(ctx, func(tx db.IStore) error {
		postID := suite.post.ID
		order := &model.Order{
			UserID:        suite.buyer.ID,
			Status:        model.OrderStatusPending,
			PaymentMethod: model.PaymentMethodBank,
			TotalAmount:   decimal.RequireFromString("10.00"),
			Items:         []model.OrderItem{{PostID: &postID, Quantity: 1, Price: suite.post.Price}},
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(suite.T(), err, errBoom)

	orders, err := suite.store.ListOrdersByUserID(ctx, suite.buyer.ID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
}

func TestOrderRepoTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepoTestSuite))
}
