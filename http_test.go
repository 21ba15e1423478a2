package newsletter_test

import (
	"context"
	"testing"
	"time"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newHTTPAuth(t *testing.T) (*newsletter.RouteAuthenticator, *newsletter.Auther, *MockIdentityProvider) {
	t.Helper()

	provider := new(MockIdentityProvider)
	auther := newsletter.NewAuthenticator(provider, newTestConfig())

	httpAuth, err := newsletter.NewHTTPAuthenticator(auther, nil, newTestConfig())
	require.NoError(t, err)

	return httpAuth, auther, provider
}

func TestNewHTTPAuthenticator(t *testing.T) {
	t.Run("requires an authenticator", func(t *testing.T) {
		_, err := newsletter.NewHTTPAuthenticator(nil, nil, newTestConfig())
		assert.Error(t, err)
	})

	t.Run("builds with defaults", func(t *testing.T) {
		httpAuth, _, _ := newHTTPAuth(t)
		assert.NotNil(t, httpAuth)
	})
}

func TestRouteAuthenticator_Login(t *testing.T) {
	t.Run("success installs the refresh cookie", func(t *testing.T) {
		httpAuth, _, provider := newHTTPAuth(t)
		identity := testIdentity()

		provider.On("VerifyIdentity", mock.Anything, identity.Email(), "password123").
			Return(identity, nil).Once()

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())

		var cookie *router.Cookie
		ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
			cookie = args.Get(0).(*router.Cookie)
		}).Return()

		got, pair, err := httpAuth.Login(ctx, identity.Email(), "password123")
		require.NoError(t, err)
		require.NotNil(t, pair)

		assert.Equal(t, identity.ID(), got.ID())

		require.NotNil(t, cookie)
		assert.Equal(t, "refreshToken", cookie.Name)
		assert.Equal(t, pair.RefreshToken, cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HTTPOnly)
		assert.Equal(t, "Lax", cookie.SameSite)
		assert.True(t, cookie.Expires.After(time.Now()))
	})

	t.Run("failure leaves the cookie jar untouched", func(t *testing.T) {
		httpAuth, _, provider := newHTTPAuth(t)

		provider.On("VerifyIdentity", mock.Anything, "ada@example.com", "wrong").
			Return(nil, newsletter.ErrMismatchedHashAndPassword).Once()

		ctx := router.NewMockContext()
		ctx.On("Context").Return(context.Background())

		_, _, err := httpAuth.Login(ctx, "ada@example.com", "wrong")
		require.Error(t, err)

		ctx.AssertNotCalled(t, "Cookie", mock.Anything)
	})
}

func TestRouteAuthenticator_Refresh(t *testing.T) {
	t.Run("rotates the cookie along with the pair", func(t *testing.T) {
		httpAuth, auther, _ := newHTTPAuth(t)

		refresh, err := auther.TokenService().IssueRefresh(testIdentity())
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.CookiesM["refreshToken"] = refresh
		ctx.On("Cookies", "refreshToken").Return(refresh).Maybe()

		var cookie *router.Cookie
		ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
			cookie = args.Get(0).(*router.Cookie)
		}).Return()

		pair, err := httpAuth.Refresh(ctx)
		require.NoError(t, err)

		require.NotNil(t, cookie)
		assert.Equal(t, pair.RefreshToken, cookie.Value)
		assert.True(t, cookie.Expires.After(time.Now()))
	})

	t.Run("missing cookie fails without clearing anything", func(t *testing.T) {
		httpAuth, _, _ := newHTTPAuth(t)

		ctx := router.NewMockContext()
		ctx.On("Cookies", "refreshToken").Return("").Maybe()

		_, err := httpAuth.Refresh(ctx)
		assert.ErrorIs(t, err, newsletter.ErrTokenExpired)
		assert.Equal(t, "Access token expired", newsletter.AsRichError(err).Message)

		ctx.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("a bad token clears the cookie before failing", func(t *testing.T) {
		httpAuth, _, _ := newHTTPAuth(t)

		ctx := router.NewMockContext()
		ctx.CookiesM["refreshToken"] = "not-a-token"
		ctx.On("Cookies", "refreshToken").Return("not-a-token").Maybe()

		var cookie *router.Cookie
		ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
			cookie = args.Get(0).(*router.Cookie)
		}).Return()

		_, err := httpAuth.Refresh(ctx)
		require.Error(t, err)

		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.Expires.Before(time.Now()))
	})

	t.Run("an access token in the cookie is rejected", func(t *testing.T) {
		httpAuth, auther, _ := newHTTPAuth(t)

		access, err := auther.TokenService().IssueAccess(testIdentity())
		require.NoError(t, err)

		ctx := router.NewMockContext()
		ctx.CookiesM["refreshToken"] = access
		ctx.On("Cookies", "refreshToken").Return(access).Maybe()
		ctx.On("Cookie", mock.Anything).Return()

		_, err = httpAuth.Refresh(ctx)
		assert.Error(t, err)
	})
}

func TestRouteAuthenticator_Logout(t *testing.T) {
	httpAuth, _, _ := newHTTPAuth(t)

	ctx := router.NewMockContext()

	var cookie *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		cookie = args.Get(0).(*router.Cookie)
	}).Return()

	httpAuth.Logout(ctx)

	require.NotNil(t, cookie)
	assert.Equal(t, "refreshToken", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
}
