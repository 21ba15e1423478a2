package newsletter

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-newsletter/middleware/apikeyware"
	"github.com/goliatone/go-newsletter/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// DefaultRefreshCookieName is used when the config does not set one
const DefaultRefreshCookieName = "refreshToken"

// HTTPAuthenticator is the route-facing surface of the auth stack
type HTTPAuthenticator interface {
	Login(ctx router.Context, identifier, password string) (Identity, *TokenPair, error)
	Refresh(ctx router.Context) (*TokenPair, error)
	Logout(ctx router.Context)
	SetRefreshCookie(ctx router.Context, token string)
	ClearRefreshCookie(ctx router.Context)
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
	TenantRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RouteAuthenticator adapts the Authenticator and the tenant resolver to
// HTTP routes: it owns the refresh cookie and builds the two route guards.
type RouteAuthenticator struct {
	auth       Authenticator
	cfg        Config
	tenants    NewsletterTypes
	cookieName string
	Logger     Logger
}

func NewHTTPAuthenticator(auther Authenticator, tenants NewsletterTypes, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, errors.New("authenticator is required", errors.CategoryBadInput)
	}

	cookieName := cfg.GetRefreshCookieName()
	if cookieName == "" {
		cookieName = DefaultRefreshCookieName
	}

	return &RouteAuthenticator{
		auth:       auther,
		cfg:        cfg,
		tenants:    tenants,
		cookieName: cookieName,
		Logger:     defLogger{},
	}, nil
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

// Login authenticates the credentials and installs the refresh cookie. The
// access token goes back to the caller in the JSON body; the refresh token
// only ever lives in the cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, identifier, password string) (Identity, *TokenPair, error) {
	identity, pair, err := a.auth.Login(ctx.Context(), identifier, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return nil, nil, err
	}

	a.SetRefreshCookie(ctx, pair.RefreshToken)
	return identity, pair, nil
}

// Refresh rotates the token pair from the cookie. Both tokens are replaced:
// the new refresh token overwrites the cookie, the new access token is
// returned for the response body.
func (a *RouteAuthenticator) Refresh(ctx router.Context) (*TokenPair, error) {
	// No cookie reads the same as an expired session to the client.
	raw := ctx.Cookies(a.cookieName)
	if raw == "" {
		return nil, ErrTokenExpired
	}

	pair, err := a.auth.Refresh(raw)
	if err != nil {
		a.ClearRefreshCookie(ctx)
		return nil, err
	}

	a.SetRefreshCookie(ctx, pair.RefreshToken)
	return pair, nil
}

// Logout drops the refresh cookie. The access token expires on its own.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.ClearRefreshCookie(ctx)
}

func (a *RouteAuthenticator) SetRefreshCookie(ctx router.Context, token string) {
	duration := a.cfg.GetRefreshTokenExpiration()
	if duration <= 0 {
		duration = DefaultRefreshTokenExpiration
	}

	ctx.Cookie(&router.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) ClearRefreshCookie(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

// ProtectedRoute guards a route with the bearer token check. The verified
// identity is attached to both router locals and the request context.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: accessTokenValidator{auth: a.auth},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			return WithIdentityContext(c, claims)
		},
	})
}

// TenantRoute guards a route with the API-key check. The resolved tenant is
// attached to the request context; no identity is involved.
func (a *RouteAuthenticator) TenantRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return apikeyware.New(apikeyware.Config{
		ErrorHandler: errorHandler,
		Resolver:     tenantResolver{tenants: a.tenants},
		ContextEnricher: func(c context.Context, tenant apikeyware.Tenant) context.Context {
			tc, ok := tenant.(tenantAdapter)
			if !ok {
				return c
			}
			return WithTenantContext(c, &TenantContext{
				TenantID:    tc.record.ID,
				OwnerUserID: tc.record.UserID,
			})
		},
	})
}

// accessTokenValidator bridges the Authenticator into the jwtware mirror
// interface. TokenClaims already satisfies AuthClaims through Identity.
type accessTokenValidator struct {
	auth Authenticator
}

func (v accessTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	identity, err := v.auth.IdentityFromToken(tokenString, TokenClassAccess)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

type tenantResolver struct {
	tenants NewsletterTypes
}

func (r tenantResolver) ResolveKey(ctx context.Context, key string) (apikeyware.Tenant, error) {
	record, err := r.tenants.ResolveAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return tenantAdapter{record: record}, nil
}

type tenantAdapter struct {
	record *NewsletterType
}

func (t tenantAdapter) TenantID() string {
	return t.record.ID.String()
}

func (t tenantAdapter) OwnerID() string {
	return t.record.UserID.String()
}
