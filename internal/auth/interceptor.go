package auth

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Metadata keys carrying the caller identity on every request.
const (
	UserIDMetadataKey   = "x-user-id"
	UserNameMetadataKey = "x-user-name"
	RoleMetadataKey     = "x-user-role"

	metadataRequiredMessage = "x-user-id metadata required"
)

// Interceptor reads the caller identity from request metadata and injects claims into the context.
type Interceptor struct {
	logger    *logrus.Logger
	allowlist map[string]struct{}
	required  bool
}

// Option customizes the interceptor behaviour.
type Option func(*Interceptor)

// WithAllowAnonymous registers fully qualified RPC method names that may be called without an identity.
func WithAllowAnonymous(methods ...string) Option {
	return func(i *Interceptor) {
		for _, m := range methods {
			if strings.TrimSpace(m) == "" {
				continue
			}
			i.allowlist[m] = struct{}{}
		}
	}
}

// WithIdentityRequired rejects requests that carry no user id, except allowlisted methods.
func WithIdentityRequired(required bool) Option {
	return func(i *Interceptor) {
		i.required = required
	}
}

// NewInterceptor constructs an identity interceptor.
func NewInterceptor(logger *logrus.Logger, opts ...Option) *Interceptor {
	if logger == nil {
		logger = logrus.New()
	}

	i := &Interceptor{
		logger:    logger,
		allowlist: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Unary returns a unary server interceptor attaching caller claims.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims, ok := i.identify(ctx)
		if ok {
			return handler(ContextWithClaims(ctx, claims), req)
		}

		if _, allowed := i.allowlist[info.FullMethod]; allowed || !i.required {
			return handler(ctx, req)
		}

		i.logger.WithField("method", info.FullMethod).Warn("request without caller identity rejected")
		return nil, status.Error(codes.Unauthenticated, metadataRequiredMessage)
	}
}

func (i *Interceptor) identify(ctx context.Context) (*Claims, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, false
	}

	userID := first(md, UserIDMetadataKey)
	if userID == "" {
		return nil, false
	}

	claims := &Claims{
		UserID: userID,
		Name:   first(md, UserNameMetadataKey),
		Role:   NormalizeRole(first(md, RoleMetadataKey)),
	}

	i.logger.WithFields(logrus.Fields{
		"user_id": claims.UserID,
		"role":    claims.Role,
	}).Debug("caller identified")

	return claims, true
}

func first(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// OutgoingContext attaches claims to ctx as outgoing gRPC metadata for client calls.
func OutgoingContext(ctx context.Context, claims *Claims) context.Context {
	if claims == nil || claims.UserID == "" {
		return ctx
	}

	pairs := []string{UserIDMetadataKey, claims.UserID}
	if claims.Name != "" {
		pairs = append(pairs, UserNameMetadataKey, claims.Name)
	}
	if claims.Role != RoleUnknown {
		pairs = append(pairs, RoleMetadataKey, string(claims.Role))
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
