package middleware

import (
	"net"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/util"
)

// RateLimitMiddleware 登入者以 user id 分 bucket, 其餘以 ip
// 需放在 AuthPayloadMiddleware 與 RealIP 之後
func RateLimitMiddleware(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), rateLimitKey(r)) {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if id, ok := util.GetUserIDFromContext(r.Context()); ok {
		return "user:" + id.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
