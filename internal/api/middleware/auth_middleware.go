package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/util"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
)

// 驗證是ctx是否有token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := util.GetUserIDFromContext(r.Context()); !ok {
			api.ErrorJSON(w, int(er.UnauthenticatedCode), er.New(er.UnauthenticatedCode, "unauthenticated"), er.ErrStrMap[er.UnauthenticatedCode])
			return
		}
		next.ServeHTTP(w, r)
	})
}
