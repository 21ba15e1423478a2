package newsletter_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	newsletter "github.com/goliatone/go-newsletter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() TestIdentity {
	return TestIdentity{
		id:        "b4b5378c-6a41-4943-b3a1-f6f9dbb9f1a0",
		email:     "ada@example.com",
		firstName: "Ada",
		lastName:  "Lovelace",
	}
}

func TestTokenServiceRoundTrip(t *testing.T) {
	service := newsletter.NewTokenService(newTestConfig(), nil)
	identity := testIdentity()

	t.Run("access token verifies as access", func(t *testing.T) {
		token, err := service.IssueAccess(identity)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := service.Verify(token, newsletter.TokenClassAccess)
		require.NoError(t, err)

		assert.Equal(t, identity.ID(), claims.ID())
		assert.Equal(t, identity.Email(), claims.Email())
		assert.Equal(t, identity.FirstName(), claims.FirstName())
		assert.Equal(t, identity.LastName(), claims.LastName())
		assert.Equal(t, newsletter.TokenClassAccess, claims.Class)
	})

	t.Run("refresh token verifies as refresh", func(t *testing.T) {
		token, err := service.IssueRefresh(identity)
		require.NoError(t, err)

		claims, err := service.Verify(token, newsletter.TokenClassRefresh)
		require.NoError(t, err)
		assert.Equal(t, newsletter.TokenClassRefresh, claims.Class)
	})

	t.Run("tokens carry a unique id", func(t *testing.T) {
		one, err := service.IssueAccess(identity)
		require.NoError(t, err)
		two, err := service.IssueAccess(identity)
		require.NoError(t, err)
		assert.NotEqual(t, one, two)
	})
}

func TestTokenServiceClassIsolation(t *testing.T) {
	service := newsletter.NewTokenService(newTestConfig(), nil)
	identity := testIdentity()

	t.Run("access token fails refresh verification", func(t *testing.T) {
		token, err := service.IssueAccess(identity)
		require.NoError(t, err)

		_, err = service.Verify(token, newsletter.TokenClassRefresh)
		require.Error(t, err)
		assert.True(t, newsletter.IsMalformedError(err) || err.Error() == newsletter.ErrTokenMalformed.Error())
	})

	t.Run("refresh token fails access verification", func(t *testing.T) {
		token, err := service.IssueRefresh(identity)
		require.NoError(t, err)

		_, err = service.Verify(token, newsletter.TokenClassAccess)
		require.Error(t, err)
	})
}

func TestTokenServiceVerifyFailures(t *testing.T) {
	cfg := newTestConfig()
	service := newsletter.NewTokenService(cfg, nil)

	t.Run("empty token is reported as missing", func(t *testing.T) {
		_, err := service.Verify("", newsletter.TokenClassAccess)
		assert.ErrorIs(t, err, newsletter.ErrTokenMissing)
	})

	t.Run("garbage token is malformed", func(t *testing.T) {
		_, err := service.Verify("not-a-jwt", newsletter.TokenClassAccess)
		require.Error(t, err)
		assert.False(t, newsletter.IsTokenExpiredError(err))
	})

	t.Run("expired token is reported as expired not malformed", func(t *testing.T) {
		claims := &newsletter.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.GetIssuer(),
				Subject:   "b4b5378c-6a41-4943-b3a1-f6f9dbb9f1a0",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			},
			Class: newsletter.TokenClassAccess,
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.GetAccessSigningKey()))
		require.NoError(t, err)

		_, err = service.Verify(signed, newsletter.TokenClassAccess)
		require.Error(t, err)
		assert.ErrorIs(t, err, newsletter.ErrTokenExpired)
		assert.True(t, newsletter.IsTokenExpiredError(err))
	})

	t.Run("token signed with wrong secret is malformed", func(t *testing.T) {
		claims := &newsletter.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.GetIssuer(),
				Subject:   "b4b5378c-6a41-4943-b3a1-f6f9dbb9f1a0",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Class: newsletter.TokenClassAccess,
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("some-other-secret"))
		require.NoError(t, err)

		_, err = service.Verify(signed, newsletter.TokenClassAccess)
		require.Error(t, err)
		assert.False(t, newsletter.IsTokenExpiredError(err))
	})
}

func TestTokenServiceDefaults(t *testing.T) {
	cfg := newTestConfig()
	cfg.accessTTL = 0
	cfg.refreshTTL = 0

	service := newsletter.NewTokenService(cfg, nil)

	assert.Equal(t, newsletter.DefaultAccessTokenExpiration, service.AccessTTL())
	assert.Equal(t, newsletter.DefaultRefreshTokenExpiration, service.RefreshTTL())
}
