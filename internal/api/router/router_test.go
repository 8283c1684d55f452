package router_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/api"
	"github.com/RoyceAzure/lab/marketplace/internal/api/handler"
	"github.com/RoyceAzure/lab/marketplace/internal/api/router"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/lab/marketplace/internal/metrics"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const testTokenKey = "12345678901234567890123456789012"

type RouterTestSuite struct {
	suite.Suite
	store      *db.Store
	media      *storage.LocalStorage
	tokenMaker token.Maker[uuid.UUID]
	handler    http.Handler
}

func (suite *RouterTestSuite) SetupTest() {
	t := suite.T()
	suite.store = dbtest.NewStore(t)

	media, err := storage.NewLocalStorage(t.TempDir(), "/media")
	suite.Require().NoError(err)
	suite.media = media

	suite.tokenMaker, err = token.NewPasetoMaker[uuid.UUID](testTokenKey)
	suite.Require().NoError(err)

	userService := service.NewUserService(suite.store, suite.tokenMaker, media, time.Hour, nil)
	postService := service.NewPostService(suite.store, media, nil)
	cartService := service.NewCartService(suite.store)
	orderService := service.NewOrderService(suite.store, producer.NoopOrderEventPublisher{}, nil)

	server := api.NewServer(
		handler.NewUserHandler(userService, media),
		handler.NewPostHandler(postService, media),
		handler.NewCartHandler(cartService, media),
		handler.NewOrderHandler(orderService, media),
	)
	suite.handler = router.SetupRouter(server, suite.tokenMaker, nil, router.Options{
		Metrics:   metrics.NewServerMetrics("test", prometheus.NewRegistry()),
		MediaRoot: media.Root(),
		MediaURL:  "/media",
	})
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) tokenFor(user *model.User) string {
	accessToken, _, err := suite.tokenMaker.CreateToken(user.Email, user.ID, time.Hour)
	suite.Require().NoError(err)
	return accessToken
}

func (suite *RouterTestSuite) do(method, path, accessToken string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	return rec
}

func (suite *RouterTestSuite) doJSON(method, path, accessToken, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return suite.do(method, path, accessToken, reader, "application/json")
}

func (suite *RouterTestSuite) requireFailed(rec *httptest.ResponseRecorder) {
	suite.Require().GreaterOrEqual(rec.Code, 400, rec.Body.String())
}

func (suite *RouterTestSuite) cartOf(user *model.User) *model.Cart {
	ctx := context.Background()
	cart, err := suite.store.GetOrCreateCart(ctx, user.ID)
	suite.Require().NoError(err)
	cart, err = suite.store.GetCartWithItems(ctx, cart.ID)
	suite.Require().NoError(err)
	return cart
}

func (suite *RouterTestSuite) TestRegisterAndLogin() {
	rec := suite.doJSON(http.MethodPost, "/api/v1/users/register", "",
		`{"username":"alice","email":"alice@example.com","password":"password123"}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().NotContains(rec.Body.String(), "password123")

	rec = suite.doJSON(http.MethodPost, "/api/v1/users/register", "",
		`{"username":"alice","email":"other@example.com","password":"password123"}`)
	suite.requireFailed(rec)

	rec = suite.doJSON(http.MethodPost, "/api/v1/users/login", "",
		`{"username":"alice","password":"password123"}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().Contains(rec.Body.String(), "access_token")

	rec = suite.doJSON(http.MethodPost, "/api/v1/users/login", "",
		`{"username":"alice","password":"wrong-password"}`)
	suite.requireFailed(rec)

	rec = suite.doJSON(http.MethodPost, "/api/v1/users/login", "", `{not json`)
	suite.requireFailed(rec)
}

func (suite *RouterTestSuite) TestProfile() {
	user := dbtest.CreateUser(suite.T(), suite.store, "bob")
	accessToken := suite.tokenFor(user)

	suite.requireFailed(suite.doJSON(http.MethodGet, "/api/v1/users/me", "", ""))

	rec := suite.doJSON(http.MethodGet, "/api/v1/users/me", accessToken, "")
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().Contains(rec.Body.String(), "bob@example.com")

	rec = suite.doJSON(http.MethodPatch, "/api/v1/users/me", accessToken,
		`{"bio":"hello","preferred_payment_method":"stripe"}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	got, err := suite.store.GetUserByID(context.Background(), user.ID)
	suite.Require().NoError(err)
	suite.Require().Equal("hello", got.Bio)
	suite.Require().Equal("stripe", got.PreferredPaymentMethod)

	rec = suite.doJSON(http.MethodPatch, "/api/v1/users/me", accessToken,
		`{"preferred_payment_method":"cash"}`)
	suite.requireFailed(rec)
}

func (suite *RouterTestSuite) TestProtectedRoutesRequireToken() {
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/orders/cart"},
		{http.MethodPost, "/api/v1/orders/cart/add"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/orders/create"},
		{http.MethodPost, "/api/v1/posts"},
	}
	for _, p := range paths {
		rec := suite.doJSON(p.method, p.path, "", "")
		suite.requireFailed(rec)
	}

	rec := suite.doJSON(http.MethodGet, "/api/v1/orders/cart", "not-a-token", "")
	suite.requireFailed(rec)
}

func (suite *RouterTestSuite) TestCartAndCheckoutFlow() {
	t := suite.T()
	seller := dbtest.CreateUser(t, suite.store, "seller")
	buyer := dbtest.CreateUser(t, suite.store, "buyer")
	postA := dbtest.CreatePost(t, suite.store, seller, "A", "10.00")
	postB := dbtest.CreatePost(t, suite.store, seller, "B", "5.00")
	accessToken := suite.tokenFor(buyer)

	rec := suite.doJSON(http.MethodGet, "/api/v1/orders/cart", accessToken, "")
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// quantity 未帶時為 1
	rec = suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d}`, postA.ID))
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d,"quantity":1}`, postA.ID))
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	rec = suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d,"quantity":1}`, postB.ID))
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, `{"quantity":1}`))
	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, `{"post_id":999}`))
	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d,"quantity":0}`, postA.ID)))

	cart := suite.cartOf(buyer)
	suite.Require().Len(cart.Items, 2)
	suite.Require().True(decimal.RequireFromString("25").Equal(cart.Total()))

	rec = suite.doJSON(http.MethodPost, "/api/v1/orders/create", accessToken,
		`{"payment_method":"bank","shipping_address":"Taipei","contact_info":{"phone":"0912"}}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	orders, err := suite.store.ListOrdersByUserID(context.Background(), buyer.ID)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Require().True(decimal.RequireFromString("25").Equal(orders[0].TotalAmount))
	suite.Require().Equal(model.OrderStatusPending, orders[0].Status)
	suite.Require().Empty(suite.cartOf(buyer).Items)

	// 購物車已清空
	rec = suite.doJSON(http.MethodPost, "/api/v1/orders/create", accessToken,
		`{"payment_method":"bank","shipping_address":"Taipei"}`)
	suite.requireFailed(rec)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", orders[0].ID)
	suite.Require().Equal(http.StatusOK, suite.doJSON(http.MethodGet, orderPath, accessToken, "").Code)
	suite.Require().Equal(http.StatusOK, suite.doJSON(http.MethodGet, "/api/v1/orders", accessToken, "").Code)

	// 別人的訂單視為不存在
	other := suite.tokenFor(seller)
	suite.requireFailed(suite.doJSON(http.MethodGet, orderPath, other, ""))
	suite.requireFailed(suite.doJSON(http.MethodPatch, orderPath+"/cancel", other, ""))

	rec = suite.doJSON(http.MethodPatch, orderPath+"/cancel", accessToken, "")
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.requireFailed(suite.doJSON(http.MethodPatch, orderPath+"/cancel", accessToken, ""))

	order, err := suite.store.GetOrderForUser(context.Background(), buyer.ID, orders[0].ID)
	suite.Require().NoError(err)
	suite.Require().Equal(model.OrderStatusCancelled, order.Status)
}

func (suite *RouterTestSuite) TestCheckoutValidation() {
	t := suite.T()
	seller := dbtest.CreateUser(t, suite.store, "seller")
	buyer := dbtest.CreateUser(t, suite.store, "buyer")
	post := dbtest.CreatePost(t, suite.store, seller, "A", "10.00")
	accessToken := suite.tokenFor(buyer)

	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/create", accessToken,
		`{"payment_method":"bank","shipping_address":"Taipei"}`))

	rec := suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d}`, post.ID))
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/create", accessToken,
		`{"payment_method":"cash","shipping_address":"Taipei"}`))
	suite.requireFailed(suite.doJSON(http.MethodPost, "/api/v1/orders/create", accessToken,
		`{"payment_method":"bank","shipping_address":""}`))
	suite.Require().Len(suite.cartOf(buyer).Items, 1)
}

func (suite *RouterTestSuite) TestUpdateAndRemoveCartItem() {
	t := suite.T()
	seller := dbtest.CreateUser(t, suite.store, "seller")
	buyer := dbtest.CreateUser(t, suite.store, "buyer")
	stranger := dbtest.CreateUser(t, suite.store, "stranger")
	postA := dbtest.CreatePost(t, suite.store, seller, "A", "10.00")
	postB := dbtest.CreatePost(t, suite.store, seller, "B", "5.00")
	accessToken := suite.tokenFor(buyer)

	for _, id := range []uint{postA.ID, postB.ID} {
		rec := suite.doJSON(http.MethodPost, "/api/v1/orders/cart/add", accessToken, fmt.Sprintf(`{"post_id":%d}`, id))
		suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
	cart := suite.cartOf(buyer)
	itemA, itemB := cart.Items[0], cart.Items[1]
	if itemA.PostID != postA.ID {
		itemA, itemB = itemB, itemA
	}

	rec := suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/orders/cart/update/%d", itemA.ID), accessToken, `{"quantity":3}`)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/orders/cart/update/%d", itemA.ID), accessToken, `{}`)
	suite.Require().Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	// 別人的購物車項目, 缺 quantity 也先回 404
	rec = suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/orders/cart/update/%d", itemA.ID), suite.tokenFor(stranger), `{}`)
	suite.Require().Equal(http.StatusNotFound, rec.Code, rec.Body.String())
	rec = suite.doJSON(http.MethodPatch, "/api/v1/orders/cart/update/9999", accessToken, `{}`)
	suite.Require().Equal(http.StatusNotFound, rec.Code, rec.Body.String())

	suite.requireFailed(suite.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/orders/cart/remove/%d", itemA.ID), suite.tokenFor(stranger), ""))

	rec = suite.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/orders/cart/update/%d", itemB.ID), accessToken, `{"quantity":0}`)
	suite.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())

	cart = suite.cartOf(buyer)
	suite.Require().Len(cart.Items, 1)
	suite.Require().Equal(3, cart.Items[0].Quantity)

	rec = suite.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/orders/cart/remove/%d", itemA.ID), accessToken, "")
	suite.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
	suite.Require().Empty(suite.cartOf(buyer).Items)

	suite.requireFailed(suite.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/orders/cart/remove/%d", itemA.ID), accessToken, ""))
	suite.requireFailed(suite.doJSON(http.MethodDelete, "/api/v1/orders/cart/remove/abc", accessToken, ""))
}

func multipartPost(fields map[string]string, images map[string][]byte) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for name, content := range images {
		part, _ := w.CreateFormFile("images", name)
		_, _ = part.Write(content)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func (suite *RouterTestSuite) TestPostLifecycle() {
	t := suite.T()
	owner := dbtest.CreateUser(t, suite.store, "owner")
	other := dbtest.CreateUser(t, suite.store, "other")
	accessToken := suite.tokenFor(owner)

	body, ct := multipartPost(map[string]string{"caption": "Vintage lamp", "price": "12.50"},
		map[string][]byte{"lamp.png": []byte("fake-png")})
	rec := suite.do(http.MethodPost, "/api/v1/posts", accessToken, body, ct)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	posts, total, err := suite.store.ListPosts(context.Background(), db.PostFilter{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().EqualValues(1, total)
	post := posts[0]
	suite.Require().Len(post.Images, 1)

	// 圖片由 /media 提供
	rec = suite.do(http.MethodGet, suite.media.URL(post.Images[0].Path), "", nil, "")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().Equal("fake-png", rec.Body.String())
	suite.Require().Equal(http.StatusNotFound, suite.do(http.MethodGet, "/media/", "", nil, "").Code)

	rec = suite.do(http.MethodGet, "/api/v1/posts?search=lamp&sort=-price&page=1&page_size=5", "", nil, "")
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.Require().Contains(rec.Body.String(), "Vintage lamp")

	postPath := fmt.Sprintf("/api/v1/posts/%d", post.ID)
	suite.Require().Equal(http.StatusOK, suite.do(http.MethodGet, postPath, "", nil, "").Code)
	suite.requireFailed(suite.do(http.MethodGet, "/api/v1/posts/999", "", nil, ""))

	body, ct = multipartPost(map[string]string{"price": "abc"}, nil)
	suite.requireFailed(suite.do(http.MethodPost, "/api/v1/posts", accessToken, body, ct))

	body, ct = multipartPost(map[string]string{"caption": "Lamp", "price": "12.555"}, nil)
	suite.requireFailed(suite.do(http.MethodPost, "/api/v1/posts", accessToken, body, ct))

	// 非擁有者不能修改或刪除
	body, ct = multipartPost(map[string]string{"caption": "stolen"}, nil)
	suite.requireFailed(suite.do(http.MethodPatch, postPath, suite.tokenFor(other), body, ct))
	suite.requireFailed(suite.do(http.MethodDelete, postPath, suite.tokenFor(other), nil, ""))

	body, ct = multipartPost(map[string]string{"price": "15.00"}, nil)
	rec = suite.do(http.MethodPatch, postPath, accessToken, body, ct)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	got, err := suite.store.GetPostByID(context.Background(), post.ID)
	suite.Require().NoError(err)
	suite.Require().Equal("Vintage lamp", got.Caption)
	suite.Require().True(decimal.RequireFromString("15").Equal(got.Price))

	rec = suite.do(http.MethodDelete, postPath, accessToken, nil, "")
	suite.Require().Equal(http.StatusNoContent, rec.Code, rec.Body.String())
	suite.requireFailed(suite.do(http.MethodGet, postPath, "", nil, ""))
}

func (suite *RouterTestSuite) TestProfilePhotoUpload() {
	user := dbtest.CreateUser(suite.T(), suite.store, "photo")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", "me.jpg")
	suite.Require().NoError(err)
	_, err = part.Write([]byte("fake-jpg"))
	suite.Require().NoError(err)
	suite.Require().NoError(w.Close())

	rec := suite.do(http.MethodPut, "/api/v1/users/me/photo", suite.tokenFor(user), &buf, w.FormDataContentType())
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	got, err := suite.store.GetUserByID(context.Background(), user.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(got.ProfilePhoto)
	suite.Require().True(strings.HasPrefix(*got.ProfilePhoto, constants.ProfileImageDir+"/"))
}

func (suite *RouterTestSuite) TestRequestIDAndMetrics() {
	rec := suite.do(http.MethodGet, "/api/v1/posts", "", nil, "")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().NotEmpty(rec.Header().Get(constants.RequestIDHeader))

	rec = suite.do(http.MethodGet, "/metrics", "", nil, "")
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().Contains(rec.Body.String(), "marketplace_test_http_requests_total")
	suite.Require().Contains(rec.Body.String(), `handler="/api/v1/posts`)
}
