package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestNormalizeRole(t *testing.T) {
	tests := map[string]Role{
		"admin":  RoleAdmin,
		" Clerk": RoleClerk,
		"VIEWER": RoleViewer,
		"root":   RoleUnknown,
		"":       RoleUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeRole(in), in)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Dana", (&Claims{UserID: "u1", Name: "Dana"}).DisplayName())
	assert.Equal(t, "u1", (&Claims{UserID: "u1", Name: "  "}).DisplayName())
	assert.Equal(t, "", (*Claims)(nil).DisplayName())
}

func TestRequireUser(t *testing.T) {
	_, err := RequireUser(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), UserIDMetadataKey)

	_, err = RequireUser(ContextWithClaims(context.Background(), &Claims{Name: "Dana"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "a name alone does not identify a user")

	ctx := ContextWithClaims(context.Background(), &Claims{UserID: "u1", Role: RoleClerk})
	claims, err := RequireUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRequireRoleRanksRoles(t *testing.T) {
	tests := []struct {
		role    Role
		min     Role
		allowed bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleClerk, true},
		{RoleClerk, RoleViewer, true},
		{RoleClerk, RoleAdmin, false},
		{RoleViewer, RoleClerk, false},
		{RoleUnknown, RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s needs %s", tt.role, tt.min), func(t *testing.T) {
			ctx := ContextWithClaims(context.Background(), &Claims{UserID: "u1", Role: tt.role})
			_, err := RequireRole(ctx, tt.min)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, codes.PermissionDenied, status.Code(err))
			assert.Contains(t, status.Convert(err).Message(), tt.role.String())
		})
	}

	_, err := RequireRole(context.Background(), RoleViewer)
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "identity is checked before role")
}

func TestActor(t *testing.T) {
	assert.Equal(t, "", Actor(context.Background()))
	assert.Equal(t, "Dana", Actor(ContextWithClaims(context.Background(), &Claims{UserID: "u1", Name: "Dana"})))
	assert.Equal(t, "u2", Actor(ContextWithClaims(context.Background(), &Claims{UserID: "u2"})))

	plain := context.Background()
	assert.Equal(t, plain, ContextWithClaims(plain, nil))
}

func TestInterceptorInjectsClaims(t *testing.T) {
	interceptor := NewInterceptor(nil, WithIdentityRequired(true))
	info := &grpc.UnaryServerInfo{FullMethod: "/warehouse.v1.WarehouseService/AddStock"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		UserIDMetadataKey, "u1",
		UserNameMetadataKey, "Dana",
		RoleMetadataKey, "admin",
	))

	var got *Claims
	_, err := interceptor.Unary()(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		got, _ = ClaimsFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, &Claims{UserID: "u1", Name: "Dana", Role: RoleAdmin}, got)
}

func TestInterceptorRequiredIdentity(t *testing.T) {
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/warehouse.v1.WarehouseService/AddStock"}

	strict := NewInterceptor(nil, WithIdentityRequired(true), WithAllowAnonymous("/warehouse.v1.WarehouseService/GetItem", " "))
	_, err := strict.Unary()(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err := strict.Unary()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/warehouse.v1.WarehouseService/GetItem"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	lenient := NewInterceptor(nil)
	resp, err = lenient.Unary()(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestOutgoingContext(t *testing.T) {
	ctx := OutgoingContext(context.Background(), &Claims{UserID: "u1", Name: "Dana", Role: RoleClerk})
	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"u1"}, md.Get(UserIDMetadataKey))
	assert.Equal(t, []string{"Dana"}, md.Get(UserNameMetadataKey))
	assert.Equal(t, []string{"clerk"}, md.Get(RoleMetadataKey))

	plain := context.Background()
	assert.Equal(t, plain, OutgoingContext(plain, nil))
}
