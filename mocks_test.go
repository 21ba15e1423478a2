package newsletter_test

import (
	"context"
	"time"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/stretchr/testify/mock"
)

// TestIdentity is a plain value implementation of newsletter.Identity
type TestIdentity struct {
	id        string
	email     string
	firstName string
	lastName  string
}

func (t TestIdentity) ID() string        { return t.id }
func (t TestIdentity) Email() string     { return t.email }
func (t TestIdentity) FirstName() string { return t.firstName }
func (t TestIdentity) LastName() string  { return t.lastName }

// testConfig implements newsletter.Config with distinct class secrets
type testConfig struct {
	accessKey  string
	refreshKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	cookieName string
	secure     bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		accessKey:  "test-access-signing-key",
		refreshKey: "test-refresh-signing-key",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		issuer:     "newsletter-test",
		cookieName: "refreshToken",
	}
}

func (c *testConfig) GetAccessSigningKey() string              { return c.accessKey }
func (c *testConfig) GetRefreshSigningKey() string             { return c.refreshKey }
func (c *testConfig) GetAccessTokenExpiration() time.Duration  { return c.accessTTL }
func (c *testConfig) GetRefreshTokenExpiration() time.Duration { return c.refreshTTL }
func (c *testConfig) GetIssuer() string                        { return c.issuer }
func (c *testConfig) GetRefreshCookieName() string             { return c.cookieName }
func (c *testConfig) GetSecureCookies() bool                   { return c.secure }

// MockIdentityProvider implements newsletter.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (newsletter.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(newsletter.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (newsletter.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(newsletter.Identity), args.Error(1)
}

// MockUserTracker implements newsletter.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*newsletter.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*newsletter.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *newsletter.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *newsletter.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockMailer implements newsletter.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}
