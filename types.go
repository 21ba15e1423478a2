package newsletter

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity is the claim set embedded in tokens. It is derived once at
// login/registration and never carries the password hash.
type Identity interface {
	ID() string
	Email() string
	FirstName() string
	LastName() string
}

// TokenPair is the result of a login or a refresh rotation. The refresh token
// travels only inside the HttpOnly cookie, never in a JSON body.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (Identity, *TokenPair, error)
	Refresh(raw string) (*TokenPair, error)
	IdentityFromToken(raw string, class TokenClass) (Identity, error)
}

// Config holds auth options
type Config interface {
	GetAccessSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenExpiration() time.Duration
	GetRefreshTokenExpiration() time.Duration
	GetIssuer() string
	GetRefreshCookieName() string
	GetSecureCookies() bool
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer is the transport collaborator used when sending invitations. The
// platform records every attempt in the invitation_emails audit log whether
// the transport succeeds or not.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, to, subject, html string) error

func (f MailerFunc) Send(ctx context.Context, to, subject, html string) error {
	return f(ctx, to, subject, html)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] NEWSLETTER "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] NEWSLETTER "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] NEWSLETTER "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] NEWSLETTER "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
