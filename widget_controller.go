package newsletter

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
)

// WidgetController serves the public embed endpoints. These routes sit
// behind the API-key guard: the key alone names the tenant, no user session
// is involved, and responses never expose other subscribers.
type WidgetController struct {
	Logger    Logger
	Repo      RepositoryManager
	Responder *Responder
}

type WidgetControllerOption func(*WidgetController) *WidgetController

func WithWidgetRepo(repo RepositoryManager) WidgetControllerOption {
	return func(c *WidgetController) *WidgetController {
		c.Repo = repo
		return c
	}
}

func WithWidgetResponder(responder *Responder) WidgetControllerOption {
	return func(c *WidgetController) *WidgetController {
		c.Responder = responder
		return c
	}
}

func WithWidgetLogger(logger Logger) WidgetControllerOption {
	return func(c *WidgetController) *WidgetController {
		c.Logger = logger
		return c
	}
}

func NewWidgetController(opts ...WidgetControllerOption) *WidgetController {
	c := &WidgetController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in widget controller...")
	}

	if c.Responder == nil {
		c.Responder = NewResponder()
	}

	return c
}

// RegisterWidgetRoutes mounts the public endpoints behind the supplied
// API-key guard.
func RegisterWidgetRoutes[T any](app router.Router[T], guard router.MiddlewareFunc, opts ...WidgetControllerOption) *WidgetController {
	controller := NewWidgetController(opts...)

	group := app.Group("/widget")
	group.Use(guard)

	group.Get("/newsletter", controller.ShowNewsletter).SetName("widget.show")
	group.Post("/subscribe", controller.Subscribe).SetName("widget.subscribe")
	group.Post("/unsubscribe", controller.Unsubscribe).SetName("widget.unsubscribe")

	return controller
}

func (w *WidgetController) tenant(ctx router.Context) (*TenantContext, error) {
	tenant, ok := TenantFromContext(ctx.Context())
	if !ok {
		return nil, NewUnauthorized("invalid api key")
	}
	return tenant, nil
}

// ShowNewsletter returns the embeddable metadata for the key's newsletter.
// The API key itself is not echoed back.
func (w *WidgetController) ShowNewsletter(ctx router.Context) error {
	tenant, err := w.tenant(ctx)
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	records, err := w.Repo.NewsletterTypes().FindActive(ctx.Context(), ByID(tenant.TenantID))
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	if len(records) == 0 {
		return w.Responder.Error(ctx, NewUnauthorized("invalid api key"))
	}

	nlt := records[0]

	return w.Responder.OK(ctx, "newsletter", map[string]any{
		"name":        nlt.Name,
		"description": nlt.Description,
		"status":      nlt.Status,
	})
}

// WidgetSubscribePayload is the public signup body
type WidgetSubscribePayload struct {
	Email string `form:"email" json:"email"`
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone" json:"phone"`
}

// Validate will validate the payload
func (r WidgetSubscribePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(0, 20)),
	)
}

func (w *WidgetController) Subscribe(ctx router.Context) error {
	tenant, err := w.tenant(ctx)
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	payload := new(WidgetSubscribePayload)
	if err := ctx.Bind(payload); err != nil {
		return w.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return w.Responder.Error(ctx, NewBadRequest("invalid subscription payload", toDetails(FormatValidationErrorToMap(err))))
	}

	types, err := w.Repo.NewsletterTypes().FindActive(ctx.Context(), ByID(tenant.TenantID))
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	if len(types) == 0 {
		return w.Responder.Error(ctx, NewUnauthorized("invalid api key"))
	}

	if types[0].Status != NewsletterTypeActive {
		return w.Responder.Error(ctx, NewConflict("newsletter is not accepting subscriptions"))
	}

	record := &Subscriber{
		UserID: tenant.OwnerUserID,
		Email:  payload.Email,
		Name:   payload.Name,
		Phone:  payload.Phone,
	}

	inserted, skipped, err := w.Repo.Subscribers().Import(ctx.Context(), tenant.TenantID, []*Subscriber{record})
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	// A repeat signup is reported as success so the widget cannot be used
	// to probe the subscriber list.
	if skipped > 0 || len(inserted) == 0 {
		return w.Responder.OK(ctx, "subscription confirmed", nil)
	}

	return w.Responder.Created(ctx, "subscription confirmed", map[string]any{
		"email": inserted[0].Email,
	})
}

func (w *WidgetController) Unsubscribe(ctx router.Context) error {
	tenant, err := w.tenant(ctx)
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	payload := new(WidgetSubscribePayload)
	if err := ctx.Bind(payload); err != nil {
		return w.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return w.Responder.Error(ctx, NewBadRequest("invalid unsubscribe payload", toDetails(FormatValidationErrorToMap(err))))
	}

	records, err := w.Repo.Subscribers().FindActive(ctx.Context(),
		SubscriberByNewsletterType(tenant.TenantID),
		SubscriberByEmail(payload.Email),
	)
	if err != nil {
		return w.Responder.Error(ctx, err)
	}

	// Unknown addresses get the same answer as known ones.
	if len(records) == 0 {
		return w.Responder.OK(ctx, "unsubscribed", nil)
	}

	record := records[0]
	record.Status = SubscriberUnsubscribed

	if _, err := w.Repo.Subscribers().Update(ctx.Context(), record); err != nil {
		return w.Responder.Error(ctx, err)
	}

	return w.Responder.OK(ctx, "unsubscribed", nil)
}
