package service

import "errors"

// service 層統一回傳以下錯誤, handler 再轉成 rj_error code
// 不屬於自己的資料一律視為不存在
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrCartEmpty          = errors.New("Cart is empty")
	ErrPostNotFound       = errors.New("post not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
