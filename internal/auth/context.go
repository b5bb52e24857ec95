package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type claimsKey struct{}

// ContextWithClaims attaches the caller to ctx. Nil claims leave ctx as is.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller attached by the interceptor, if any
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims, claims != nil
}

// Actor names the caller for events and logs. Anonymous callers yield "".
func Actor(ctx context.Context) string {
	claims, _ := ClaimsFromContext(ctx)
	return claims.DisplayName()
}

// RequireUser returns the identified caller. Printed reports and imports are
// attributed to this user, so anonymous calls fail with Unauthenticated.
func RequireUser(ctx context.Context) (*Claims, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return nil, status.Errorf(codes.Unauthenticated, "an identified user is required: send %s metadata", UserIDMetadataKey)
	}
	return claims, nil
}

// RequireRole admits identified callers whose role ranks at least min
func RequireRole(ctx context.Context, min Role) (*Claims, error) {
	claims, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.AtLeast(min) {
		return nil, status.Errorf(codes.PermissionDenied, "role %s may not do this, %s or higher is required", claims.Role, min)
	}
	return claims, nil
}
