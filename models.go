package newsletter

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewsletterTypeStatus is the lifecycle status of a newsletter type
type NewsletterTypeStatus = string

const (
	// NewsletterTypeActive accepts subscriptions and sends
	NewsletterTypeActive NewsletterTypeStatus = "ACTIVE"
	// NewsletterTypePaused keeps subscribers but stops accepting widget signups
	NewsletterTypePaused NewsletterTypeStatus = "PAUSED"
)

// SubscriberStatus is the subscription state of a subscriber
type SubscriberStatus = string

const (
	// SubscriberActive receives newsletters
	SubscriberActive SubscriberStatus = "ACTIVE"
	// SubscriberUnsubscribed opted out but is kept for audit
	SubscriberUnsubscribed SubscriberStatus = "UNSUBSCRIBED"
)

// InvitationStatus records the outcome of a mail attempt
type InvitationStatus = string

const (
	// InvitationSent means the transport accepted the message
	InvitationSent InvitationStatus = "SENT"
	// InvitationFailed means the transport errored; the error is stored
	InvitationFailed InvitationStatus = "FAILED"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName      string         `bun:"first_name" json:"first_name,omitempty"`
	LastName       string         `bun:"last_name" json:"last_name,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// NewsletterType is a tenant boundary: every subscriber belongs to one, and
// its API key is the credential public widgets present. The key is minted
// with the record and revoked by soft-deleting it.
type NewsletterType struct {
	bun.BaseModel `bun:"table:newsletter_types,alias:nlt"`
	ID            uuid.UUID            `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID            `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User                `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Name          string               `bun:"name,notnull" json:"name,omitempty"`
	Description   string               `bun:"description" json:"description,omitempty"`
	APIKey        string               `bun:"api_key,notnull,unique" json:"api_key,omitempty"`
	Status        NewsletterTypeStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time           `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Subscriber is a member of one newsletter type. (newsletter_type_id, email)
// is the natural key among active rows; soft-deleted duplicates may exist.
type Subscriber struct {
	bun.BaseModel    `bun:"table:subscribers,alias:sub"`
	ID               uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	NewsletterTypeID uuid.UUID        `bun:"newsletter_type_id,notnull,type:uuid" json:"newsletter_type_id,omitempty"`
	NewsletterType   *NewsletterType  `bun:"rel:belongs-to,join:newsletter_type_id=id" json:"newsletter_type,omitempty"`
	UserID           uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Email            string           `bun:"email,notnull" json:"email,omitempty"`
	Name             string           `bun:"name" json:"name,omitempty"`
	Phone            string           `bun:"phone" json:"phone,omitempty"`
	Status           SubscriberStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt        *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt        *time.Time       `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EmailSetting holds a tenant's SMTP relay configuration
type EmailSetting struct {
	bun.BaseModel `bun:"table:email_settings,alias:eml"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	SMTPHost      string     `bun:"smtp_host,notnull" json:"smtp_host,omitempty"`
	SMTPPort      int        `bun:"smtp_port,notnull" json:"smtp_port,omitempty"`
	SMTPUser      string     `bun:"smtp_user" json:"smtp_user,omitempty"`
	SMTPPassword  string     `bun:"smtp_password" json:"-"`
	FromAddress   string     `bun:"from_address,notnull" json:"from_address,omitempty"`
	FromName      string     `bun:"from_name" json:"from_name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// InvitationEmail is an append-only audit record of mail attempts. Rows are
// created once and never updated or deleted by handlers.
type InvitationEmail struct {
	bun.BaseModel   `bun:"table:invitation_emails,alias:inv"`
	ID              uuid.UUID        `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID          uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	SubscriberEmail string           `bun:"subscriber_email,notnull" json:"subscriber_email,omitempty"`
	Subject         string           `bun:"subject" json:"subject,omitempty"`
	Status          InvitationStatus `bun:"status,notnull" json:"status,omitempty"`
	Error           string           `bun:"error" json:"error,omitempty"`
	CreatedAt       *time.Time       `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time       `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NewAPIKey mints the opaque tenant credential stored on a newsletter type.
// Keys carry no structure beyond the prefix; validity is purely "an active
// record holds this value".
func NewAPIKey() string {
	return "nlt_" + strings.ReplaceAll(uuid.NewString(), "-", "") +
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
