package newsletter

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	// DefaultAccessTokenExpiration bounds how long a bearer credential lives
	DefaultAccessTokenExpiration = 15 * time.Minute
	// DefaultRefreshTokenExpiration bounds the refresh cookie lifetime
	DefaultRefreshTokenExpiration = 7 * 24 * time.Hour
)

// TokenService signs and verifies the two token classes. Each class has its
// own secret so a leaked access secret cannot mint refresh tokens.
type TokenService interface {
	IssueAccess(identity Identity) (string, error)
	IssueRefresh(identity Identity) (string, error)
	Verify(tokenString string, class TokenClass) (*TokenClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}

	accessTTL := cfg.GetAccessTokenExpiration()
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenExpiration
	}

	refreshTTL := cfg.GetRefreshTokenExpiration()
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenExpiration
	}

	return &TokenServiceImpl{
		accessKey:  []byte(cfg.GetAccessSigningKey()),
		refreshKey: []byte(cfg.GetRefreshSigningKey()),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     cfg.GetIssuer(),
		logger:     logger,
	}
}

// IssueAccess signs a short lived bearer token carrying the identity claims
func (ts *TokenServiceImpl) IssueAccess(identity Identity) (string, error) {
	return ts.issue(identity, TokenClassAccess)
}

// IssueRefresh signs a long lived token for the refresh cookie
func (ts *TokenServiceImpl) IssueRefresh(identity Identity) (string, error) {
	return ts.issue(identity, TokenClassRefresh)
}

// AccessTTL reports the configured access token lifetime.
func (ts *TokenServiceImpl) AccessTTL() time.Duration {
	return ts.accessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (ts *TokenServiceImpl) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

func (ts *TokenServiceImpl) issue(identity Identity, class TokenClass) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryInternal)
	}

	key, ttl, err := ts.classParams(class)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:        identity.ID(),
		UserEmail:  identity.Email(),
		GivenName:  identity.FirstName(),
		FamilyName: identity.LastName(),
		Class:      class,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Verify parses and validates a token string of the given class. It reports
// three distinguishable failures: ErrTokenMissing when no token was supplied,
// ErrTokenExpired when the expiry passed, and a malformed-token error for
// everything else. Callers other than the refresh flow should collapse all
// three into a generic unauthorized response.
func (ts *TokenServiceImpl) Verify(tokenString string, class TokenClass) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	key, _, err := ts.classParams(class)
	if err != nil {
		return nil, err
	}

	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(ErrTokenMalformed.Code).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	// A token of the wrong class that somehow verifies against this class'
	// secret is still rejected.
	if claims.Class != "" && claims.Class != class {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) classParams(class TokenClass) ([]byte, time.Duration, error) {
	switch class {
	case TokenClassAccess:
		return ts.accessKey, ts.accessTTL, nil
	case TokenClassRefresh:
		return ts.refreshKey, ts.refreshTTL, nil
	default:
		return nil, 0, errors.New("unknown token class: "+string(class), errors.CategoryInternal)
	}
}
