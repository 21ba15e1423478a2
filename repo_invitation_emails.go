package newsletter

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InvitationEmails is the append-only audit log of mail attempts. The
// surface exposes create and read paths only; rows are never updated or
// removed once written.
type InvitationEmails interface {
	Record(ctx context.Context, record *InvitationEmail) (*InvitationEmail, error)
	RecordTx(ctx context.Context, tx bun.IDB, record *InvitationEmail) (*InvitationEmail, error)
	FindPage(ctx context.Context, pageNo, pageSize int, orderBy string, criteria ...repository.SelectCriteria) (*Page[*InvitationEmail], error)
	FindActive(ctx context.Context, criteria ...repository.SelectCriteria) ([]*InvitationEmail, error)
}

type invitationEmails struct {
	*ScopedRepository[*InvitationEmail]
	repo repository.Repository[*InvitationEmail]
}

var _ InvitationEmails = (*invitationEmails)(nil)

func NewInvitationEmailsRepository(db *bun.DB) InvitationEmails {
	handlers := repository.ModelHandlers[*InvitationEmail]{
		NewRecord: func() *InvitationEmail { return &InvitationEmail{} },
		GetID: func(i *InvitationEmail) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *InvitationEmail, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
		GetIdentifier: func() string {
			return "subscriber_email"
		},
	}

	repo := repository.NewRepository[*InvitationEmail](db, handlers)

	return &invitationEmails{
		ScopedRepository: NewScopedRepository(db, repo, ScopedHandlers[*InvitationEmail]{
			NewRecord: handlers.NewRecord,
			GetID:     handlers.GetID,
			SetID:     handlers.SetID,
		}),
		repo: repo,
	}
}

func (r *invitationEmails) Record(ctx context.Context, record *InvitationEmail) (*InvitationEmail, error) {
	return r.RecordTx(ctx, r.DB(), record)
}

func (r *invitationEmails) RecordTx(ctx context.Context, tx bun.IDB, record *InvitationEmail) (*InvitationEmail, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.repo.CreateTx(ctx, tx, record)
}

// InvitationByUser scopes the audit log to one account's attempts.
func InvitationByUser(userID uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID)
	}
}
