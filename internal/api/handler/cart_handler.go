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

type CartHandler struct {
	cartService service.ICartService
	url         urlFunc
}

func NewCartHandler(cartService service.ICartService, fileStorage storage.FileStorage) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{
		cartService: cartService,
		url:         fileStorage.URL,
	}
}

// @Summary get cart
// @Description 沒有購物車時自動建立
// @Tags cart
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} api.Response{data=dto.CartDTO} "success"
// @Router /orders/cart [get]
func (c *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := c.cartService.GetOrCreateCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertCartViewToDTO(view, c.url), nil)
}

// @Summary add to cart
// @Description 同一個 post 重複加入會累加數量, quantity 未帶時為 1
// @Tags cart
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param item body dto.AddToCartDTO true "post id and quantity"
// @Success 200 {object} api.Response{data=dto.CartDTO} "success"
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/cart/add [post]
func (c *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var addDTO dto.AddToCartDTO
	if err := json.NewDecoder(r.Body).Decode(&addDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}
	if addDTO.PostID == nil {
		api.ErrorJSON(w, int(er.BadRequestCode), er.New(er.BadRequestCode, "post_id is required"), er.ErrStrMap[er.BadRequestCode])
		return
	}
	quantity := 1
	if addDTO.Quantity != nil {
		quantity = *addDTO.Quantity
	}

	view, err := c.cartService.AddItem(r.Context(), userID, *addDTO.PostID, quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertCartViewToDTO(view, c.url), nil)
}

// @Summary remove cart item
// @Tags cart
// @Security ApiKeyAuth
// @Param id path int true "cart item id"
// @Success 204
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/cart/remove/{id} [delete]
func (c *CartHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	itemID, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := c.cartService.RemoveItem(r.Context(), userID, itemID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary update cart item quantity
// @Description quantity <= 0 時移除該項目並回傳 204
// @Tags cart
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "cart item id"
// @Param item body dto.UpdateCartItemDTO true "quantity"
// @Success 200 {object} api.Response{data=dto.CartItemDTO} "success"
// @Success 204
// @Failure 404 {object} api.ResponseError{data=string} "NotFoundCode"
// @Router /orders/cart/update/{id} [patch]
func (c *CartHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	itemID, err := uintURLParam(r, "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var updateDTO dto.UpdateCartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&updateDTO); err != nil {
		api.ErrorJSON(w, int(er.BadRequestCode), nil, er.ErrStrMap[er.BadRequestCode])
		return
	}
	if updateDTO.Quantity == nil {
		// 不屬於自己的項目一律 404, 缺欄位的 400 在確認擁有權之後
		if _, err := c.cartService.GetItem(r.Context(), userID, itemID); err != nil {
			writeServiceError(w, err)
			return
		}
		api.ErrorJSON(w, int(er.BadRequestCode), er.New(er.BadRequestCode, "quantity is required"), er.ErrStrMap[er.BadRequestCode])
		return
	}

	item, removed, err := c.cartService.UpdateItemQuantity(r.Context(), userID, itemID, *updateDTO.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if removed {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	api.SuccessJSON(w, convertCartItemToDTO(item, c.url), nil)
}
