package newsletter

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass selects the signing secret and lifetime used for a token.
type TokenClass string

const (
	// TokenClassAccess is the short-lived bearer credential class
	TokenClassAccess TokenClass = "access"
	// TokenClassRefresh is the long-lived cookie-delivered credential class
	TokenClassRefresh TokenClass = "refresh"
)

// TokenClaims is the concrete claim set carried by both token classes.
// It implements Identity so a verified token can stand in for the user
// without a database round trip.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID        string     `json:"uid,omitempty"`
	UserEmail  string     `json:"email,omitempty"`
	GivenName  string     `json:"first_name,omitempty"`
	FamilyName string     `json:"last_name,omitempty"`
	Class      TokenClass `json:"cls,omitempty"`
}

var _ Identity = (*TokenClaims)(nil)

// ID returns the user ID
func (c *TokenClaims) ID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Email returns the email claim
func (c *TokenClaims) Email() string {
	return c.UserEmail
}

// FirstName returns the first name claim
func (c *TokenClaims) FirstName() string {
	return c.GivenName
}

// LastName returns the last name claim
func (c *TokenClaims) LastName() string {
	return c.FamilyName
}

// UserUUID parses the user ID claim
func (c *TokenClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.ID())
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
