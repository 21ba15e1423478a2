package newsletter_test

import (
	"context"
	"testing"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContext(t *testing.T) {
	t.Run("round trips the identity", func(t *testing.T) {
		ctx := newsletter.WithIdentityContext(context.Background(), testIdentity())

		got, ok := newsletter.IdentityFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, testIdentity().Email(), got.Email())
	})

	t.Run("empty context has no identity", func(t *testing.T) {
		_, ok := newsletter.IdentityFromContext(context.Background())
		assert.False(t, ok)

		_, ok = newsletter.IdentityUUID(context.Background())
		assert.False(t, ok)
	})

	t.Run("uuid accessor parses the id claim", func(t *testing.T) {
		want := uuid.New()
		identity := TestIdentity{id: want.String(), email: "ada@example.com"}

		ctx := newsletter.WithIdentityContext(context.Background(), identity)

		got, ok := newsletter.IdentityUUID(ctx)
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("non uuid ids fail the accessor", func(t *testing.T) {
		identity := TestIdentity{id: "not-a-uuid"}
		ctx := newsletter.WithIdentityContext(context.Background(), identity)

		_, ok := newsletter.IdentityUUID(ctx)
		assert.False(t, ok)
	})
}

func TestTenantContext(t *testing.T) {
	t.Run("round trips the tenant", func(t *testing.T) {
		want := &newsletter.TenantContext{
			TenantID:    uuid.New(),
			OwnerUserID: uuid.New(),
		}

		ctx := newsletter.WithTenantContext(context.Background(), want)

		got, ok := newsletter.TenantFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, want.TenantID, got.TenantID)
		assert.Equal(t, want.OwnerUserID, got.OwnerUserID)
	})

	t.Run("empty context has no tenant", func(t *testing.T) {
		_, ok := newsletter.TenantFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("tenant and identity do not bleed into each other", func(t *testing.T) {
		ctx := newsletter.WithTenantContext(context.Background(), &newsletter.TenantContext{
			TenantID: uuid.New(),
		})

		_, ok := newsletter.IdentityFromContext(ctx)
		assert.False(t, ok)
	})
}
