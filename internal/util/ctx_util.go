package util

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/google/uuid"
)

func GetTokenPayloadFromContext[T token.UserIDConstraint](ctx context.Context) *token.Payload[T] {
	var tokenPayload *token.Payload[T]

	if v := ctx.Value(constants.AuthorizationPayloadKey); v != nil {
		tokenPayload, _ = v.(*token.Payload[T])
	}

	return tokenPayload
}

// GetUserIDFromContext 未登入時 ok 為 false
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	payload := GetTokenPayloadFromContext[uuid.UUID](ctx)
	if payload == nil || payload.UserId == uuid.Nil {
		return uuid.Nil, false
	}
	return payload.UserId, true
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}

func WithTokenPayload(ctx context.Context, payload *token.Payload[uuid.UUID]) context.Context {
	return context.WithValue(ctx, constants.AuthorizationPayloadKey, payload)
}
