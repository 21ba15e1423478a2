package newsletter

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Wire-level error codes. This is a closed set: anything that is not one of
// these five is reported as ER500 with the detailed message suppressed.
const (
	TextCodeBadRequest   = "ER400"
	TextCodeUnauthorized = "ER401"
	TextCodeNotFound     = "ER404"
	TextCodeConflict     = "ER409"
	TextCodeInternal     = "ER500"
)

// ErrTokenMissing is returned when no token was supplied at all
var ErrTokenMissing = errors.New("Access token missing", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrTokenExpired is returned when a token verifies but its expiry has passed
var ErrTokenExpired = errors.New("Access token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrTokenMalformed covers every other verification failure: bad signature,
// wrong structure, wrong token class
var ErrTokenMalformed = errors.New("Invalid Access token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrMismatchedHashAndPassword is returned on a failed password comparison
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthorized)

// ErrNoEmptyString rejects empty password input before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeBadRequest)

// NewBadRequest builds a validation failure, optionally carrying per-field issues.
func NewBadRequest(message string, details map[string]any) *errors.Error {
	err := errors.New(message, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeBadRequest)
	if len(details) > 0 {
		err = err.WithMetadata(details)
	}
	return err
}

// NewUnauthorized builds an authentication failure.
func NewUnauthorized(message string) *errors.Error {
	return errors.New(message, errors.CategoryAuth).
		WithCode(errors.CodeUnauthorized).
		WithTextCode(TextCodeUnauthorized)
}

// NewNotFound builds a missing-resource failure.
func NewNotFound(message string) *errors.Error {
	return errors.New(message, errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithTextCode(TextCodeNotFound)
}

// NewConflict builds a duplicate-resource failure.
func NewConflict(message string) *errors.Error {
	return errors.New(message, errors.CategoryConflict).
		WithCode(errors.CodeConflict).
		WithTextCode(TextCodeConflict)
}

// NewInternal wraps an unexpected error. The wrapped message is only shown to
// clients in debug mode.
func NewInternal(err error, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, message).
		WithCode(errors.CodeInternal).
		WithTextCode(TextCodeInternal)
}

// AsRichError normalizes any error into the closed taxonomy. Unknown errors
// become ER500.
func AsRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Code == 0 || richErr.TextCode == "" {
			richErr = richErr.Clone()
			if richErr.Code == 0 {
				richErr.Code = codeForCategory(richErr.Category)
			}
			if richErr.TextCode == "" {
				richErr.TextCode = textCodeFor(richErr.Code)
			}
		}
		return richErr
	}
	return NewInternal(err, "An unexpected server error occurred")
}

func codeForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return errors.CodeBadRequest
	case errors.CategoryAuth:
		return errors.CodeUnauthorized
	case errors.CategoryNotFound:
		return errors.CodeNotFound
	case errors.CategoryConflict:
		return errors.CodeConflict
	default:
		return errors.CodeInternal
	}
}

func textCodeFor(code int) string {
	switch code {
	case errors.CodeBadRequest:
		return TextCodeBadRequest
	case errors.CodeUnauthorized:
		return TextCodeUnauthorized
	case errors.CodeNotFound:
		return TextCodeNotFound
	case errors.CodeConflict:
		return TextCodeConflict
	default:
		return TextCodeInternal
	}
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), ErrTokenExpired.Message)
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
