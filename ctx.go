package newsletter

import (
	"context"

	"github.com/google/uuid"
)

var identityCtxKey = &contextKey{"identity"}
var tenantCtxKey = &contextKey{"tenant"}

type contextKey struct {
	name string
}

// TenantContext is the context shape attached by the API-key guard. It is
// deliberately distinct from Identity: handlers behind the key guard know
// the owning tenant but nothing about a logged-in user session.
type TenantContext struct {
	TenantID    uuid.UUID
	OwnerUserID uuid.UUID
}

// WithIdentityContext sets the verified Identity in the given context.
// Exactly one guard populates a request context; the bearer guard uses this.
func WithIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity attached by the bearer guard.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// IdentityUUID is a convenience accessor for the authenticated user's id.
func IdentityUUID(ctx context.Context) (uuid.UUID, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(identity.ID())
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithTenantContext sets the TenantContext in the given context.
// The API-key guard uses this.
func WithTenantContext(ctx context.Context, tenant *TenantContext) context.Context {
	return context.WithValue(ctx, tenantCtxKey, tenant)
}

// TenantFromContext finds the tenant attached by the API-key guard.
func TenantFromContext(ctx context.Context) (*TenantContext, bool) {
	raw, ok := ctx.Value(tenantCtxKey).(*TenantContext)
	if raw == nil {
		return nil, false
	}
	return raw, ok
}
