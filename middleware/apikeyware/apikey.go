package apikeyware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

// HeaderAPIKey is the header public widgets present their credential in.
const HeaderAPIKey = "x-api-key"

// ErrInvalidAPIKey is the single failure the guard reports. A missing key,
// an unknown key, and a revoked key are deliberately indistinguishable.
var ErrInvalidAPIKey = errors.New("invalid api key")

// Tenant is the resolved credential surface attached to the request.
// It mirrors the TenantContext shape from the root package.
type Tenant interface {
	TenantID() string
	OwnerID() string
}

// TenantResolver maps a presented key to its tenant without importing the
// root package. Implementations must only resolve active records.
type TenantResolver interface {
	ResolveKey(ctx context.Context, key string) (Tenant, error)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// Header overrides the header the key is read from.
	Header string

	// Resolver is required.
	Resolver TenantResolver

	// ContextKey is where the resolved tenant is stored in router locals.
	ContextKey string

	// ContextEnricher propagates the tenant to the standard Go context.
	ContextEnricher func(c context.Context, tenant Tenant) context.Context
}

// New builds the guard middleware. Every failure path goes through the
// error handler with ErrInvalidAPIKey so response bodies cannot leak
// whether a key exists.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			key := strings.TrimSpace(ctx.GetString(cfg.Header, ""))
			if key == "" {
				return cfg.ErrorHandler(ctx, ErrInvalidAPIKey)
			}

			tenant, err := cfg.Resolver.ResolveKey(ctx.Context(), key)
			if err != nil || tenant == nil {
				return cfg.ErrorHandler(ctx, ErrInvalidAPIKey)
			}

			ctx.Locals(cfg.ContextKey, tenant)

			if cfg.ContextEnricher != nil {
				stdCtx := cfg.ContextEnricher(ctx.Context(), tenant)
				ctx.SetContext(stdCtx)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusUnauthorized).SendString(ErrInvalidAPIKey.Error())
		}
	}

	if cfg.Resolver == nil {
		panic("NEWSLETTER: API key middleware configuration: Resolver is required.")
	}

	if cfg.Header == "" {
		cfg.Header = HeaderAPIKey
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "tenant"
	}

	return cfg
}
