package middleware

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/util"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/google/uuid"
)

// 有合法 token 時把 payload 放進 ctx, 沒有也放行, 由 AuthMiddleware 決定是否擋下
func AuthPayloadMiddleware(tokenMaker token.Maker[uuid.UUID]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := checkAuthPayload(tokenMaker, r)
			if ok {
				next.ServeHTTP(w, r.WithContext(util.WithTokenPayload(r.Context(), payload)))
			} else {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func checkAuthPayload(tokenMaker token.Maker[uuid.UUID], r *http.Request) (*token.Payload[uuid.UUID], bool) {
	authorizationHeader := r.Header.Get(string(constants.AuthorizationHeaderKey))
	if len(authorizationHeader) == 0 {
		return nil, false
	}

	fields := strings.Fields(authorizationHeader)
	if len(fields) < 2 {
		return nil, false
	}

	authorizationType := strings.ToLower(fields[0])
	if authorizationType != string(constants.AuthorizationTypeBearer) {
		return nil, false
	}

	payload, err := tokenMaker.VertifyToken(fields[1])
	if err != nil {
		return nil, false
	}

	return payload, true
}
