package newsletter

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewsletterTypes manages the tenant boundary records. Every record is born
// with a freshly minted API key; revoking the record (soft delete) revokes
// the key with it.
type NewsletterTypes interface {
	repository.Repository[*NewsletterType]
	Scoped[*NewsletterType]

	Create(ctx context.Context, record *NewsletterType, criteria ...repository.InsertCriteria) (*NewsletterType, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *NewsletterType, criteria ...repository.InsertCriteria) (*NewsletterType, error)

	ResolveAPIKey(ctx context.Context, key string) (*NewsletterType, error)
	RegenerateKey(ctx context.Context, id uuid.UUID) (*NewsletterType, error)
}

type newsletterTypes struct {
	*ScopedRepository[*NewsletterType]
}

var (
	_ NewsletterTypes                        = (*newsletterTypes)(nil)
	_ repository.Repository[*NewsletterType] = (*newsletterTypes)(nil)
)

func NewNewsletterTypesRepository(db *bun.DB) NewsletterTypes {
	handlers := repository.ModelHandlers[*NewsletterType]{
		NewRecord: func() *NewsletterType { return &NewsletterType{} },
		GetID: func(n *NewsletterType) uuid.UUID {
			if n == nil {
				return uuid.Nil
			}
			return n.ID
		},
		SetID: func(n *NewsletterType, id uuid.UUID) {
			if n != nil {
				n.ID = id
			}
		},
		GetIdentifier: func() string {
			return "api_key"
		},
	}

	repo := repository.NewRepository[*NewsletterType](db, handlers)

	return &newsletterTypes{
		ScopedRepository: NewScopedRepository(db, repo, ScopedHandlers[*NewsletterType]{
			NewRecord: handlers.NewRecord,
			GetID:     handlers.GetID,
			SetID:     handlers.SetID,
		}),
	}
}

func (r *newsletterTypes) Create(ctx context.Context, record *NewsletterType, criteria ...repository.InsertCriteria) (*NewsletterType, error) {
	return r.CreateTx(ctx, r.DB(), record, criteria...)
}

func (r *newsletterTypes) CreateTx(ctx context.Context, tx bun.IDB, record *NewsletterType, criteria ...repository.InsertCriteria) (*NewsletterType, error) {
	prepareNewsletterTypeDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ResolveAPIKey maps a presented key to its tenant. Only active records
// qualify: an unknown key and a revoked key are indistinguishable to the
// caller, which keeps the guard's failure mode uniform.
func (r *newsletterTypes) ResolveAPIKey(ctx context.Context, key string) (*NewsletterType, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("api key required", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(TextCodeUnauthorized)
	}

	record := &NewsletterType{}
	err := r.DB().NewSelect().
		Model(record).
		Where("?TableAlias.api_key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errors.New("invalid api key", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodeUnauthorized)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve api key")
	}

	return record, nil
}

// RegenerateKey replaces the tenant credential in place. The old key stops
// resolving the moment the update commits.
func (r *newsletterTypes) RegenerateKey(ctx context.Context, id uuid.UUID) (*NewsletterType, error) {
	record := &NewsletterType{}
	record.ID = id
	record.APIKey = NewAPIKey()

	updated, err := r.Repository.Update(ctx, record,
		repository.UpdateByID(id.String()),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewNotFound("newsletter type not found")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to regenerate api key")
	}

	return updated, nil
}

func prepareNewsletterTypeDefaults(record *NewsletterType) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.APIKey == "" {
		record.APIKey = NewAPIKey()
	}

	if record.Status == "" {
		record.Status = NewsletterTypeActive
	}
}
