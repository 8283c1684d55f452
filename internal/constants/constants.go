package constants

const (
	// 商品列表分頁
	DefaultPostPageSize int = 9
	MaxPostPageSize     int = 100
	DefaultPage         int = 1

	// 個人簡介上限
	MaxBioLength int = 500
	// decimal(10,2)
	MaxPriceDigits int32 = 8
	// 單一購物車項目數量上限
	MaxCartItemQuantity int = 999

	// multipart 上傳上限
	MaxUploadBytes int64 = 32 << 20
)

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
)

type TokenDurationHour int

const (
	AccessTokenDuration TokenDurationHour = 24
)

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type RequestID string

const (
	RequestIDKey    RequestID = "request_id"
	RequestIDHeader string    = "X-Request-Id"
)

const (
	PostImageDir    = "images_posts"
	ProfileImageDir = "images_profiles"
)
