package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
)

type OrderHandler struct {
	orderService service.IOrderService
	url          urlFunc
}

func NewOrderHandler(orderService service.IOrderService, fileStorage storage.FileStorage) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{
		orderService: orderService,
		url:          fileStorage.URL,
	}
}

// @Summary list orders
// @Description 只回傳自己的訂單, 新的在前
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.Response{data=[]dto.OrderDTO} "success"
// @Router /orders [get]
func (o *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orders, err := o.orderService.ListOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res := make([]dto.OrderDTO, 0, len(orders))
	for i := range orders {
		res = append(res, convertOrderModelToDTO(&orders[i], o.url))
	}
	api.SuccessJSON(w, res, nil)
}

// @Summary get order
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "order id"
// @Success 200 {object} api.Response{data=dto.OrderDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/{id} [get]
func (o *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orderID, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	order, err := o.orderService.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertOrderModelToDTO(order, o.url), nil)
}

// @Summary checkout
// @Description 以目前購物車內容建立訂單並清空購物車
// @Tags orders
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param order body dto.CreateOrderDTO true "payment and shipping info"
// @Success 200 {object} api.Response{data=dto.OrderDTO} "success"
// @Failure 400 {object} api.ResponseError{data=string} "Cart is empty"
// @Router /orders/create [post]
func (o *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var createDTO dto.CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&createDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}

	order, err := o.orderService.CreateOrderFromCart(r.Context(), userID, service.CreateOrderParams{
		PaymentMethod:   createDTO.PaymentMethod,
		ShippingAddress: createDTO.ShippingAddress,
		ContactInfo:     createDTO.ContactInfo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertOrderModelToDTO(order, o.url), nil)
}

// @Summary cancel order
// @Description 只有 pending 的訂單可以取消
// @Tags orders
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "order id"
// @Success 200 {object} api.Response{data=dto.OrderDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/{id}/cancel [patch]
func (o *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orderID, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	order, err := o.orderService.CancelOrder(r.Context(), userID, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertOrderModelToDTO(order, o.url), nil)
}
