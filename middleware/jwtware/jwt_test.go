package jwtware_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-newsletter/middleware/jwtware"
)

type stubClaims struct {
	id    string
	email string
}

func (s stubClaims) ID() string        { return s.id }
func (s stubClaims) Email() string     { return s.email }
func (s stubClaims) FirstName() string { return "Ada" }
func (s stubClaims) LastName() string  { return "Lovelace" }

// stubValidator accepts exactly one raw token value
type stubValidator struct {
	accept string
	claims stubClaims
	err    error
}

func (s stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if tokenString != s.accept {
		return nil, errors.New("token is malformed")
	}
	return s.claims, nil
}

func noopNext(router.Context) error { return nil }

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	validator := stubValidator{
		accept: "good-token",
		claims: stubClaims{id: "12345", email: "ada@example.com"},
	}

	cfg := jwtware.Config{
		TokenValidator: validator,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		// it will look for Authorization: Bearer <token>
	}

	middleware := jwtware.New(cfg)

	// valid token
	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer good-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer good-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := middleware(noopNext)(ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected NextCalled to be true, but got false")
	}

	// missing token
	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	err := middleware(noopNext)(ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !strings.Contains(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		t.Errorf("expected missing token error, got: %v", err)
	}

	// token the validator rejects
	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer wrong-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer wrong-token")
	err = middleware(noopNext)(ctx)
	if err == nil {
		t.Fatal("expected error for rejected token, got nil")
	}
	if !strings.Contains(err.Error(), "token is malformed") {
		t.Errorf("expected 'token is malformed' error, got: %v", err)
	}
}

func TestJWTWare_MissingSchemePrefix(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{accept: "good-token"},
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
	middleware := jwtware.New(cfg)

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("good-token")

	if err := middleware(noopNext)(ctx); err == nil {
		t.Fatal("expected error for token without Bearer scheme, got nil")
	}
}

func TestJWTWare_CookieLookup(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{
			accept: "cookie-token",
			claims: stubClaims{id: "12345"},
		},
		TokenLookup: "cookie:refreshToken",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
	middleware := jwtware.New(cfg)

	ctx := router.NewMockContext()
	ctx.CookiesM["refreshToken"] = "cookie-token"
	ctx.On("Cookies", "refreshToken").Return("cookie-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := middleware(noopNext)(ctx); err != nil {
		t.Fatalf("unexpected error for cookie token: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected NextCalled to be true, but got false")
	}
}

func TestJWTWare_Filter(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{accept: "never"},
		Filter: func(router.Context) bool {
			return true
		},
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
	middleware := jwtware.New(cfg)

	// no token anywhere, the filter should skip auth entirely
	ctx := router.NewMockContext()

	if err := middleware(noopNext)(ctx); err != nil {
		t.Fatalf("unexpected error when filtered: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected NextCalled to be true, but got false")
	}
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	validator := stubValidator{
		accept: "good-token",
		claims: stubClaims{id: "12345", email: "ada@example.com"},
	}

	var seen jwtware.AuthClaims
	cfg := jwtware.Config{
		TokenValidator: validator,
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		ValidationListeners: []jwtware.ValidationListener{
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				seen = claims
				return nil
			},
		},
	}
	middleware := jwtware.New(cfg)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer good-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer good-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := middleware(noopNext)(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.ID() != "12345" {
		t.Errorf("expected listener to receive validated claims, got: %v", seen)
	}

	// a failing listener blocks the request
	cfg.ValidationListeners = []jwtware.ValidationListener{
		func(ctx router.Context, claims jwtware.AuthClaims) error {
			return errors.New("listener rejected")
		},
	}
	middleware = jwtware.New(cfg)

	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer good-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer good-token")

	if err := middleware(noopNext)(ctx); err == nil {
		t.Fatal("expected listener error, got nil")
	}
}

func TestJWTWare_SigningKeyFallback(t *testing.T) {
	secret := []byte("fallback-verification-secret")

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   "user-42",
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	// no TokenValidator: verification runs against the signing key directly
	middleware := jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: "HS256", Key: secret},
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	})

	var claims jwtware.AuthClaims
	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + signed
	ctx.On("GetString", "Authorization", "").Return("Bearer " + signed)
	ctx.On("Locals", "user", mock.Anything).Run(func(args mock.Arguments) {
		claims = args.Get(1).(jwtware.AuthClaims)
	}).Return(nil)

	if err := middleware(noopNext)(ctx); err != nil {
		t.Fatalf("unexpected error for key-verified token: %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected NextCalled to be true, but got false")
	}
	if claims == nil || claims.ID() != "user-42" {
		t.Errorf("expected uid claim to resolve, got: %+v", claims)
	}

	// a token signed with a different key is rejected
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + forged
	ctx.On("GetString", "Authorization", "").Return("Bearer " + forged)

	if err := middleware(noopNext)(ctx); err == nil {
		t.Fatal("expected error for token signed with the wrong key, got nil")
	}
	if ctx.NextCalled {
		t.Error("expected NextCalled to be false for a rejected token")
	}
}
