package newsletter

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
)

// Auther implements Authenticator on top of an identity provider and the
// two-class token service.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: NewTokenService(opts, defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service, mostly for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

var _ Authenticator = (*Auther)(nil)

// Login verifies the credentials and mints a fresh token pair.
func (s *Auther) Login(ctx context.Context, identifier, password string) (Identity, *TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return nil, nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, nil, ErrIdentityNotFound
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, nil, err
	}

	return identity, pair, nil
}

// Refresh verifies a refresh-class token and rotates the pair. A missing,
// expired, or otherwise invalid refresh token keeps the distinct error so the
// handler can phrase the 401 precisely; an access token presented here fails
// as malformed because it was signed with the other secret.
func (s *Auther) Refresh(raw string) (*TokenPair, error) {
	claims, err := s.tokenService.Verify(raw, TokenClassRefresh)
	if err != nil {
		return nil, err
	}

	return s.issuePair(claims)
}

// IdentityFromToken verifies a token of the given class and returns the
// embedded identity without touching the database.
func (s *Auther) IdentityFromToken(raw string, class TokenClass) (Identity, error) {
	claims, err := s.tokenService.Verify(raw, class)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Auther) issuePair(identity Identity) (*TokenPair, error) {
	access, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		s.logger.Error("failed to issue access token: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokenService.IssueRefresh(identity)
	if err != nil {
		s.logger.Error("failed to issue refresh token: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	pair := &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}

	if parsed, err := s.tokenService.Verify(access, TokenClassAccess); err == nil {
		pair.ExpiresAt = parsed.Expires()
	}

	return pair, nil
}
