package handler

import (
	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/shopspring/decimal"
)

// urlFunc 把 storage key 轉成對外 URL
type urlFunc func(key string) string

func convertUserModelToDTO(user *model.User, url urlFunc) dto.UserDTO {
	res := dto.UserDTO{
		ID:                     user.ID.String(),
		Username:               user.Username,
		Email:                  user.Email,
		FirstName:              user.FirstName,
		LastName:               user.LastName,
		Bio:                    user.Bio,
		Phone:                  user.Phone,
		DeliveryAddress:        user.DeliveryAddress,
		PreferredPaymentMethod: user.PreferredPaymentMethod,
	}
	if user.ProfilePhoto != nil && *user.ProfilePhoto != "" {
		photo := url(*user.ProfilePhoto)
		res.ProfilePhoto = &photo
	}
	return res
}

func convertPostModelToDTO(post *model.Post, url urlFunc) dto.PostDTO {
	res := dto.PostDTO{
		ID:        post.ID,
		UserID:    post.UserID.String(),
		Caption:   post.Caption,
		Price:     post.Price,
		Images:    make([]dto.PostImageDTO, 0, len(post.Images)),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if post.User != nil {
		res.Username = post.User.Username
	}
	for _, img := range post.Images {
		res.Images = append(res.Images, dto.PostImageDTO{
			ID:    img.ID,
			URL:   url(img.Path),
			Order: img.Order,
		})
	}
	return res
}

func convertPostPageToDTO(page *service.PostPage, url urlFunc) dto.PostPageDTO {
	res := dto.PostPageDTO{
		Items:      make([]dto.PostDTO, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for i := range page.Items {
		res.Items = append(res.Items, convertPostModelToDTO(&page.Items[i], url))
	}
	return res
}

func convertCartItemToDTO(item *model.CartItem, url urlFunc) dto.CartItemDTO {
	res := dto.CartItemDTO{
		ID:       item.ID,
		PostID:   item.PostID,
		Quantity: item.Quantity,
		Subtotal: item.Subtotal(),
		AddedAt:  item.AddedAt,
	}
	if item.Post != nil {
		post := convertPostModelToDTO(item.Post, url)
		res.Post = &post
	}
	return res
}

func convertCartViewToDTO(view *service.CartView, url urlFunc) dto.CartDTO {
	res := dto.CartDTO{
		ID:          view.Cart.ID,
		Items:       make([]dto.CartItemDTO, 0, len(view.Cart.Items)),
		TotalAmount: view.TotalAmount,
		CreatedAt:   view.Cart.CreatedAt,
		UpdatedAt:   view.Cart.UpdatedAt,
	}
	for i := range view.Cart.Items {
		res.Items = append(res.Items, convertCartItemToDTO(&view.Cart.Items[i], url))
	}
	return res
}

func convertOrderModelToDTO(order *model.Order, url urlFunc) dto.OrderDTO {
	res := dto.OrderDTO{
		ID:              order.ID,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		ContactInfo:     []byte(order.ContactInfo),
		Items:           make([]dto.OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		itemDTO := dto.OrderItemDTO{
			ID:       item.ID,
			PostID:   item.PostID,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Post != nil {
			post := convertPostModelToDTO(item.Post, url)
			itemDTO.Post = &post
		}
		res.Items = append(res.Items, itemDTO)
	}
	return res
}
