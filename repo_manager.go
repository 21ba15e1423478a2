package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager bundles every entity repository behind one handle so
// controllers and commands take a single dependency.
type RepositoryManager interface {
	Users() Users
	NewsletterTypes() NewsletterTypes
	Subscribers() Subscribers
	EmailSettings() EmailSettings
	InvitationEmails() InvitationEmails
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

type mngr struct {
	db               *bun.DB
	users            Users
	newsletterTypes  NewsletterTypes
	subscribers      Subscribers
	emailSettings    EmailSettings
	invitationEmails InvitationEmails
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:               db,
		users:            NewUsersRepository(db),
		newsletterTypes:  NewNewsletterTypesRepository(db),
		subscribers:      NewSubscribersRepository(db),
		emailSettings:    NewEmailSettingsRepository(db),
		invitationEmails: NewInvitationEmailsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database handle")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.newsletterTypes == nil {
		return errors.New("repository newsletterTypes should be initialized")
	}

	if m.subscribers == nil {
		return errors.New("repository subscribers should be initialized")
	}

	if m.emailSettings == nil {
		return errors.New("repository emailSettings should be initialized")
	}

	if m.invitationEmails == nil {
		return errors.New("repository invitationEmails should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) NewsletterTypes() NewsletterTypes {
	return m.newsletterTypes
}

func (m mngr) Subscribers() Subscribers {
	return m.subscribers
}

func (m mngr) EmailSettings() EmailSettings {
	return m.emailSettings
}

func (m mngr) InvitationEmails() InvitationEmails {
	return m.invitationEmails
}
