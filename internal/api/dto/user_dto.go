package dto

import "time"

type RegisterDTO struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenInfo 表示令牌資訊
type TokenInfo struct {
	Value     string    `json:"value"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LoginResponse struct {
	AccessToken TokenInfo `json:"access_token"`
	User        UserDTO   `json:"user"`
}

// UserDTO 不含密碼, profile_photo 為完整 URL
type UserDTO struct {
	ID                     string  `json:"id"`
	Username               string  `json:"username"`
	Email                  string  `json:"email"`
	FirstName              string  `json:"first_name"`
	LastName               string  `json:"last_name"`
	ProfilePhoto           *string `json:"profile_photo"`
	Bio                    string  `json:"bio"`
	Phone                  string  `json:"phone"`
	DeliveryAddress        string  `json:"delivery_address"`
	PreferredPaymentMethod string  `json:"preferred_payment_method"`
}

// 欄位為 null 或未帶時不更新
type UpdateProfileDTO struct {
	FirstName              *string `json:"first_name"`
	LastName               *string `json:"last_name"`
	Bio                    *string `json:"bio"`
	Phone                  *string `json:"phone"`
	DeliveryAddress        *string `json:"delivery_address"`
	PreferredPaymentMethod *string `json:"preferred_payment_method"`
}
