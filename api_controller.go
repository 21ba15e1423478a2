package newsletter

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// APIController serves the owner-facing resource endpoints. Every route sits
// behind the bearer guard, and every query is filtered by the authenticated
// user's id so one account can never read another account's rows.
type APIController struct {
	Logger    Logger
	Repo      RepositoryManager
	Mailer    Mailer
	Parser    ImportParser
	Responder *Responder
}

type APIControllerOption func(*APIController) *APIController

func WithAPIRepo(repo RepositoryManager) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Repo = repo
		return c
	}
}

func WithAPIMailer(mailer Mailer) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Mailer = mailer
		return c
	}
}

func WithAPIResponder(responder *Responder) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Responder = responder
		return c
	}
}

func WithAPILogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Logger = logger
		return c
	}
}

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
		Parser: &CSVImportParser{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Responder == nil {
		c.Responder = NewResponder()
	}

	return c
}

// RegisterAPIRoutes mounts the resource endpoints. The caller supplies the
// bearer guard so the controller stays transport-auth agnostic.
func RegisterAPIRoutes[T any](app router.Router[T], guard router.MiddlewareFunc, opts ...APIControllerOption) *APIController {
	controller := NewAPIController(opts...)

	group := app.Group("/api/v1")
	group.Use(guard)

	group.Get("/newsletter-types", controller.ListNewsletterTypes).SetName("types.list")
	group.Post("/newsletter-types", controller.CreateNewsletterType).SetName("types.create")
	group.Get("/newsletter-types/:id", controller.GetNewsletterType).SetName("types.get")
	group.Put("/newsletter-types/:id", controller.UpdateNewsletterType).SetName("types.update")
	group.Delete("/newsletter-types/:id", controller.DeleteNewsletterType).SetName("types.delete")
	group.Post("/newsletter-types/:id/regenerate-key", controller.RegenerateNewsletterTypeKey).SetName("types.regenerate")

	group.Get("/newsletter-types/:id/subscribers", controller.ListSubscribers).SetName("subscribers.list")
	group.Post("/newsletter-types/:id/subscribers", controller.CreateSubscriber).SetName("subscribers.create")
	group.Post("/newsletter-types/:id/subscribers/import", controller.ImportSubscribers).SetName("subscribers.import")
	group.Delete("/subscribers/:id", controller.DeleteSubscriber).SetName("subscribers.delete")

	group.Get("/email-settings", controller.GetEmailSettings).SetName("settings.get")
	group.Put("/email-settings", controller.UpsertEmailSettings).SetName("settings.upsert")

	group.Post("/invitations", controller.SendInvitations).SetName("invitations.send")
	group.Get("/invitations", controller.ListInvitations).SetName("invitations.list")

	return controller
}

func (a *APIController) identity(ctx router.Context) (uuid.UUID, error) {
	userID, ok := IdentityUUID(ctx.Context())
	if !ok {
		return uuid.Nil, ErrTokenMissing
	}
	return userID, nil
}

func (a *APIController) pagination(ctx router.Context) (int, int, string) {
	pageNo, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", strconv.Itoa(DefaultPageSize)))
	orderBy := ctx.Query("order_by", "")
	return pageNo, pageSize, orderBy
}

func (a *APIController) param(ctx router.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, NewBadRequest("invalid identifier", map[string]any{
			name: "must be a valid uuid",
		})
	}
	return id, nil
}

// ownedType loads a newsletter type and verifies it belongs to the caller.
// A record owned by someone else reads as not found, never as forbidden.
func (a *APIController) ownedType(ctx router.Context, userID uuid.UUID) (*NewsletterType, error) {
	id, err := a.param(ctx, "id")
	if err != nil {
		return nil, err
	}

	records, err := a.Repo.NewsletterTypes().FindActive(ctx.Context(), ByOwner(userID), ByID(id))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, NewNotFound("newsletter type not found")
	}

	return records[0], nil
}

// NewsletterTypePayload is the create/update body
type NewsletterTypePayload struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	Status      string `form:"status" json:"status"`
}

// Validate will validate the payload
func (r NewsletterTypePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.Status, validation.In(NewsletterTypeActive, NewsletterTypePaused)),
	)
}

func (a *APIController) ListNewsletterTypes(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	pageNo, pageSize, orderBy := a.pagination(ctx)

	page, err := a.Repo.NewsletterTypes().FindPage(ctx.Context(), pageNo, pageSize, orderBy, ByOwner(userID))
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return OKPage(a.Responder, ctx, "newsletter types", page)
}

func (a *APIController) CreateNewsletterType(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(NewsletterTypePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid newsletter type payload", toDetails(FormatValidationErrorToMap(err))))
	}

	record := &NewsletterType{
		UserID:      userID,
		Name:        payload.Name,
		Description: payload.Description,
		Status:      payload.Status,
	}

	created, err := a.Repo.NewsletterTypes().Create(ctx.Context(), record)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.Created(ctx, "newsletter type created", created)
}

func (a *APIController) GetNewsletterType(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	record, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "newsletter type", record)
}

func (a *APIController) UpdateNewsletterType(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	record, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(NewsletterTypePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid newsletter type payload", toDetails(FormatValidationErrorToMap(err))))
	}

	record.Name = payload.Name
	record.Description = payload.Description
	if payload.Status != "" {
		record.Status = payload.Status
	}

	updated, err := a.Repo.NewsletterTypes().Update(ctx.Context(), record)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "newsletter type updated", updated)
}

func (a *APIController) DeleteNewsletterType(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	record, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	if err := a.Repo.NewsletterTypes().SoftDelete(ctx.Context(), record.ID); err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "newsletter type deleted", nil)
}

func (a *APIController) RegenerateNewsletterTypeKey(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	record, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	updated, err := a.Repo.NewsletterTypes().RegenerateKey(ctx.Context(), record.ID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "api key regenerated", map[string]any{
		"id":      updated.ID,
		"api_key": updated.APIKey,
	})
}

// SubscriberPayload is the create body
type SubscriberPayload struct {
	Email string `form:"email" json:"email"`
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone" json:"phone"`
}

// Validate will validate the payload
func (r SubscriberPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(0, 20)),
	)
}

func (a *APIController) ListSubscribers(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	nlt, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	pageNo, pageSize, orderBy := a.pagination(ctx)

	page, err := a.Repo.Subscribers().FindPage(ctx.Context(), pageNo, pageSize, orderBy,
		SubscriberByNewsletterType(nlt.ID),
	)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return OKPage(a.Responder, ctx, "subscribers", page)
}

func (a *APIController) CreateSubscriber(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	nlt, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(SubscriberPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid subscriber payload", toDetails(FormatValidationErrorToMap(err))))
	}

	record := &Subscriber{
		NewsletterTypeID: nlt.ID,
		UserID:           userID,
		Email:            payload.Email,
		Name:             payload.Name,
		Phone:            payload.Phone,
	}

	inserted, skipped, err := a.Repo.Subscribers().Import(ctx.Context(), nlt.ID, []*Subscriber{record})
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	if skipped > 0 || len(inserted) == 0 {
		return a.Responder.Error(ctx, NewConflict("subscriber already exists"))
	}

	return a.Responder.Created(ctx, "subscriber created", inserted[0])
}

// ImportSubscribersPayload carries rows either parsed client side or as a
// raw CSV document.
type ImportSubscribersPayload struct {
	Rows []SubscriberPayload `json:"rows"`
	CSV  string              `json:"csv"`
}

// Validate will validate the payload
func (r ImportSubscribersPayload) Validate() error {
	if len(r.Rows) == 0 && strings.TrimSpace(r.CSV) == "" {
		return validation.Errors{
			"rows": fmt.Errorf("either rows or csv must be provided"),
		}
	}
	return nil
}

func (a *APIController) ImportSubscribers(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	nlt, err := a.ownedType(ctx, userID)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(ImportSubscribersPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid import payload", toDetails(FormatValidationErrorToMap(err))))
	}

	records := make([]*Subscriber, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		records = append(records, &Subscriber{
			Email: row.Email,
			Name:  row.Name,
			Phone: row.Phone,
		})
	}

	if payload.CSV != "" {
		parsed, err := a.Parser.Parse(strings.NewReader(payload.CSV))
		if err != nil {
			return a.Responder.Error(ctx, err)
		}
		records = append(records, parsed...)
	}

	for _, record := range records {
		record.UserID = userID
	}

	inserted, skipped, err := a.Repo.Subscribers().Import(ctx.Context(), nlt.ID, records)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "import complete", map[string]any{
		"imported": len(inserted),
		"skipped":  skipped,
	})
}

func (a *APIController) DeleteSubscriber(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	id, err := a.param(ctx, "id")
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	records, err := a.Repo.Subscribers().FindActive(ctx.Context(), ByOwner(userID), ByID(id))
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	if len(records) == 0 {
		return a.Responder.Error(ctx, NewNotFound("subscriber not found"))
	}

	if err := a.Repo.Subscribers().SoftDelete(ctx.Context(), id); err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "subscriber deleted", nil)
}

// EmailSettingsPayload is the upsert body
type EmailSettingsPayload struct {
	SMTPHost     string `form:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `form:"smtp_port" json:"smtp_port"`
	SMTPUser     string `form:"smtp_user" json:"smtp_user"`
	SMTPPassword string `form:"smtp_password" json:"smtp_password"`
	FromAddress  string `form:"from_address" json:"from_address"`
	FromName     string `form:"from_name" json:"from_name"`
}

// Validate will validate the payload
func (r EmailSettingsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SMTPHost, validation.Required, is.Host),
		validation.Field(&r.SMTPPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&r.FromAddress, validation.Required, is.Email),
		validation.Field(&r.FromName, validation.Length(0, 200)),
	)
}

func (a *APIController) GetEmailSettings(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	record, err := a.Repo.EmailSettings().GetByUser(ctx.Context(), userID)
	if err != nil {
		return a.Responder.Error(ctx, NewNotFound("email settings not configured"))
	}

	return a.Responder.OK(ctx, "email settings", record)
}

func (a *APIController) UpsertEmailSettings(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(EmailSettingsPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid email settings payload", toDetails(FormatValidationErrorToMap(err))))
	}

	record := &EmailSetting{
		UserID:       userID,
		SMTPHost:     payload.SMTPHost,
		SMTPPort:     payload.SMTPPort,
		SMTPUser:     payload.SMTPUser,
		SMTPPassword: payload.SMTPPassword,
		FromAddress:  payload.FromAddress,
		FromName:     payload.FromName,
	}

	saved, err := a.Repo.EmailSettings().Save(ctx.Context(), record)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "email settings saved", saved)
}

// SendInvitationsPayload selects the audience for an invitation batch
type SendInvitationsPayload struct {
	NewsletterTypeID string   `json:"newsletter_type_id"`
	Emails           []string `json:"emails"`
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
}

// Validate will validate the payload
func (r SendInvitationsPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewsletterTypeID, validation.Required, is.UUID),
		validation.Field(&r.Body, validation.Required),
	)
}

func (a *APIController) SendInvitations(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	payload := new(SendInvitationsPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid invitation payload", toDetails(FormatValidationErrorToMap(err))))
	}

	typeID, err := uuid.Parse(payload.NewsletterTypeID)
	if err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid newsletter type id", nil))
	}

	types, err := a.Repo.NewsletterTypes().FindActive(ctx.Context(), ByOwner(userID), ByID(typeID))
	if err != nil {
		return a.Responder.Error(ctx, err)
	}
	if len(types) == 0 {
		return a.Responder.Error(ctx, NewNotFound("newsletter type not found"))
	}
	nlt := types[0]

	recipients := payload.Emails
	if len(recipients) == 0 {
		// Default to every active subscriber of the newsletter
		subs, err := a.Repo.Subscribers().FindActive(ctx.Context(),
			SubscriberByNewsletterType(nlt.ID),
			SubscriberByStatus(SubscriberActive),
		)
		if err != nil {
			return a.Responder.Error(ctx, err)
		}
		for _, sub := range subs {
			recipients = append(recipients, sub.Email)
		}
	}

	mailer := a.Mailer
	if mailer == nil {
		settings, err := a.Repo.EmailSettings().GetByUser(ctx.Context(), userID)
		if err != nil {
			return a.Responder.Error(ctx, NewBadRequest("email settings not configured", nil))
		}
		mailer = NewSMTPMailer(settings)
	}

	handler := NewSendInvitationHandler(a.Repo, mailer).WithLogger(a.Logger)
	result, err := handler.Execute(ctx.Context(), SendInvitationMessage{
		UserID:      userID,
		Subscribers: recipients,
		Subject:     RenderInvitationSubject(payload.Subject, nlt.Name),
		Body:        payload.Body,
	})
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "invitations processed", result)
}

func (a *APIController) ListInvitations(ctx router.Context) error {
	userID, err := a.identity(ctx)
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	pageNo, pageSize, orderBy := a.pagination(ctx)

	page, err := a.Repo.InvitationEmails().FindPage(ctx.Context(), pageNo, pageSize, orderBy, InvitationByUser(userID))
	if err != nil {
		return a.Responder.Error(ctx, err)
	}

	return OKPage(a.Responder, ctx, "invitation audit", page)
}
