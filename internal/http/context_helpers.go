package httpx

import (
	"context"

	"github.com/target/mmk-jobqueue/internal/adapters/oidc"
)

type (
	identityKey  struct{}
	requestIDKey struct{}
)

// SetRequestIDInContext returns a child context carrying the request id.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// SetIdentityInContext returns a child context that carries the verified caller.
// If id is nil, the original ctx is returned unchanged.
func SetIdentityInContext(ctx context.Context, id *oidc.Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified caller, if any.
func IdentityFromContext(ctx context.Context) (*oidc.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*oidc.Identity)
	return id, ok && id != nil
}
