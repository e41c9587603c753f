package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UserIDHeader carries the authenticated user id, set by the gateway in front of the service.
const UserIDHeader = "x-user-id"

type ctxKey struct{}

// WithUserID returns a child context carrying the caller's id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the caller's id, or "" when the request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// UnaryServerInterceptor copies x-user-id from incoming metadata into the context.
// Requests without it pass through anonymous; handlers decide whether that is allowed.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(UserIDHeader); len(vals) > 0 {
				if id := strings.TrimSpace(vals[0]); id != "" {
					ctx = WithUserID(ctx, id)
				}
			}
		}
		return handler(ctx, req)
	}
}
