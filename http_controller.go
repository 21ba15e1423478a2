package newsletter

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the mount points for the session endpoints
type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Refresh  string
	Register string
}

// AuthController serves the JSON session endpoints: register, login,
// refresh, logout. Responses always use the envelope.
type AuthController struct {
	Debug     bool
	Logger    Logger
	Repo      RepositoryManager
	Routes    *AuthControllerRoutes
	Auther    HTTPAuthenticator
	Responder *Responder
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthHTTP(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthResponder(responder *Responder) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Responder = responder
		return c
	}
}

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuthDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Logout:   "/auth/logout",
			Refresh:  "/auth/refresh",
			Register: "/auth/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Responder == nil {
		c.Responder = NewResponder(WithCookieManager(c.Auther))
	}

	return c
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.Login).
		SetName("auth.login")

	app.Post(controller.Routes.Refresh, controller.RefreshToken).
		SetName("auth.refresh")

	app.Post(controller.Routes.Logout, controller.Logout).
		SetName("auth.logout")

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		return a.Responder.Error(ctx, NewBadRequest("invalid login payload", toDetails(FormatValidationErrorToMap(err))))
	}

	if a.Debug {
		a.Logger.Debug("auth login %s", print.MaybePrettyJSON(payload))
	}

	identity, pair, err := a.Auther.Login(ctx, payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		// Every credential failure looks the same to the caller
		return a.Responder.Error(ctx, NewUnauthorized("invalid credentials"))
	}

	return a.Responder.OK(ctx, "login successful", map[string]any{
		"access_token": pair.AccessToken,
		"expires_at":   pair.ExpiresAt,
		"user": map[string]any{
			"id":         identity.ID(),
			"email":      identity.Email(),
			"first_name": identity.FirstName(),
			"last_name":  identity.LastName(),
		},
	})
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return a.Responder.Error(ctx, NewBadRequest("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %v", err)
		return a.Responder.Error(ctx, NewBadRequest("invalid registration payload", toDetails(FormatValidationErrorToMap(err))))
	}

	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	user, err := registerUser.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("register user error: %v", err)
		return a.Responder.Error(ctx, err)
	}

	// Log the fresh account straight in
	identity, pair, err := a.Auther.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		// Registration stands even if auto login fails
		return a.Responder.Created(ctx, "registration successful", map[string]any{
			"user": user,
		})
	}

	return a.Responder.Created(ctx, "registration successful", map[string]any{
		"access_token": pair.AccessToken,
		"expires_at":   pair.ExpiresAt,
		"user": map[string]any{
			"id":         identity.ID(),
			"email":      identity.Email(),
			"first_name": identity.FirstName(),
			"last_name":  identity.LastName(),
		},
	})
}

// RefreshToken rotates the token pair from the refresh cookie. There is no
// request body: the cookie is the whole credential.
func (a *AuthController) RefreshToken(ctx router.Context) error {
	pair, err := a.Auther.Refresh(ctx)
	if err != nil {
		// The auth surface already cleared the cookie; phrase the 401
		// with the precise token failure.
		return a.Responder.Error(ctx, err)
	}

	return a.Responder.OK(ctx, "token refreshed", map[string]any{
		"access_token": pair.AccessToken,
		"expires_at":   pair.ExpiresAt,
	})
}

func (a *AuthController) Logout(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return a.Responder.OK(ctx, "logged out", nil)
}

// ValidateStringEquals builds an ozzo rule asserting equality with other.
func ValidateStringEquals(other string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != other {
			return errFieldMismatch
		}
		return nil
	}
}

var errFieldMismatch = fmt.Errorf("values do not match")

func toDetails(fields map[string]string) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
