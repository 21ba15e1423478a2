package newsletter

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscribers manages the member rows of a newsletter type. Uniqueness of
// email is enforced per tenant and only among active rows, so a subscriber
// can be removed and re-imported later.
type Subscribers interface {
	repository.Repository[*Subscriber]
	Scoped[*Subscriber]

	Create(ctx context.Context, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error)

	Import(ctx context.Context, newsletterTypeID uuid.UUID, records []*Subscriber) ([]*Subscriber, int, error)
}

type subscribers struct {
	*ScopedRepository[*Subscriber]
}

var (
	_ Subscribers                        = (*subscribers)(nil)
	_ repository.Repository[*Subscriber] = (*subscribers)(nil)
)

func NewSubscribersRepository(db *bun.DB) Subscribers {
	handlers := repository.ModelHandlers[*Subscriber]{
		NewRecord: func() *Subscriber { return &Subscriber{} },
		GetID: func(s *Subscriber) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Subscriber, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	}

	repo := repository.NewRepository[*Subscriber](db, handlers)

	return &subscribers{
		ScopedRepository: NewScopedRepository(db, repo, ScopedHandlers[*Subscriber]{
			NewRecord:    handlers.NewRecord,
			GetID:        handlers.GetID,
			SetID:        handlers.SetID,
			DedupeColumn: "email",
			GetDedupeValue: func(s *Subscriber) string {
				if s == nil {
					return ""
				}
				return strings.ToLower(strings.TrimSpace(s.Email))
			},
		}),
	}
}

func (r *subscribers) Create(ctx context.Context, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error) {
	return r.CreateTx(ctx, r.DB(), record, criteria...)
}

func (r *subscribers) CreateTx(ctx context.Context, tx bun.IDB, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error) {
	prepareSubscriberDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Import bulk-inserts records into one newsletter type, skipping emails
// already subscribed there. The duplicate check is scoped to the tenant so
// the same address may exist on any number of other newsletter types.
func (r *subscribers) Import(ctx context.Context, newsletterTypeID uuid.UUID, records []*Subscriber) ([]*Subscriber, int, error) {
	for _, record := range records {
		if record == nil {
			continue
		}
		record.NewsletterTypeID = newsletterTypeID
		prepareSubscriberDefaults(record)
	}

	return r.ImportMany(ctx, records, SubscriberByNewsletterType(newsletterTypeID))
}

// SubscriberByNewsletterType scopes a query to one tenant's subscribers.
func SubscriberByNewsletterType(newsletterTypeID uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.newsletter_type_id = ?", newsletterTypeID)
	}
}

// SubscriberByEmail filters subscribers by normalized email.
func SubscriberByEmail(email string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email = ?", strings.ToLower(strings.TrimSpace(email)))
	}
}

// SubscriberByStatus filters subscribers by subscription state.
func SubscriberByStatus(status SubscriberStatus) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.status = ?", status)
	}
}

func prepareSubscriberDefaults(record *Subscriber) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	if record.Status == "" {
		record.Status = SubscriberActive
	}
}
