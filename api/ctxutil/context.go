// Package ctxutil moves request scoped values between gin and context.Context.
package ctxutil

import (
	"context"

	"edusync/api/response"
	"edusync/domain/identity"
	"edusync/domain/shared"
	"edusync/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// IdentityKey 认证中间件写入的调用方身份
const IdentityKey = "caller_identity"

func WithRequestID(ctx *gin.Context) context.Context {
	requestID := response.GetRequestID(ctx)
	return persistence.ContextWithRequestID(ctx.Request.Context(), requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}

func SetIdentity(ctx *gin.Context, id identity.Identity) {
	ctx.Set(IdentityKey, id)
}

// Identity the caller set by the auth middleware; ok is false on public routes.
func Identity(ctx *gin.Context) (identity.Identity, bool) {
	v, exists := ctx.Get(IdentityKey)
	if !exists {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

// MustIdentity writes 401 and aborts when the auth middleware did not run.
func MustIdentity(ctx *gin.Context) (identity.Identity, bool) {
	id, ok := Identity(ctx)
	if !ok {
		response.HandleAppError(ctx, shared.NewUnauthorizedError("caller identity missing"))
	}
	return id, ok
}
