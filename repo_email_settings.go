package newsletter

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EmailSettings manages per-user SMTP relay configuration.
type EmailSettings interface {
	repository.Repository[*EmailSetting]
	Scoped[*EmailSetting]

	GetByUser(ctx context.Context, userID uuid.UUID) (*EmailSetting, error)
	Save(ctx context.Context, record *EmailSetting) (*EmailSetting, error)
}

type emailSettings struct {
	*ScopedRepository[*EmailSetting]
}

var (
	_ EmailSettings                        = (*emailSettings)(nil)
	_ repository.Repository[*EmailSetting] = (*emailSettings)(nil)
)

func NewEmailSettingsRepository(db *bun.DB) EmailSettings {
	handlers := repository.ModelHandlers[*EmailSetting]{
		NewRecord: func() *EmailSetting { return &EmailSetting{} },
		GetID: func(e *EmailSetting) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *EmailSetting, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	}

	repo := repository.NewRepository[*EmailSetting](db, handlers)

	return &emailSettings{
		ScopedRepository: NewScopedRepository(db, repo, ScopedHandlers[*EmailSetting]{
			NewRecord: handlers.NewRecord,
			GetID:     handlers.GetID,
			SetID:     handlers.SetID,
		}),
	}
}

func (r *emailSettings) GetByUser(ctx context.Context, userID uuid.UUID) (*EmailSetting, error) {
	record := &EmailSetting{}
	err := r.DB().NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Save keeps a single active settings row per user: an existing row is
// updated in place, otherwise a new one is created.
func (r *emailSettings) Save(ctx context.Context, record *EmailSetting) (*EmailSetting, error) {
	existing, err := r.GetByUser(ctx, record.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			if record.ID == uuid.Nil {
				record.ID = uuid.New()
			}
			return r.Repository.Create(ctx, record)
		}
		return nil, err
	}

	record.ID = existing.ID
	return r.Repository.Update(ctx, record,
		repository.UpdateByID(existing.ID.String()),
	)
}
