package newsletter

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Envelope is the uniform JSON body every API route returns, success or
// failure. Clients always find the outcome in message and statusCode; data,
// error, and paginate appear only when they apply.
type Envelope struct {
	Info       string         `json:"info"`
	Links      map[string]any `json:"links"`
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Data       any            `json:"data,omitempty"`
	Error      any            `json:"error,omitempty"`
	Paginate   *Paginate      `json:"paginate,omitempty"`
}

// Paginate mirrors the fields of a Page for the wire
type Paginate struct {
	TotalData int  `json:"total_data"`
	TotalPage int  `json:"total_page"`
	PageNo    int  `json:"page_no"`
	PageSize  int  `json:"page_size"`
	Next      bool `json:"next"`
	Previous  bool `json:"previous"`
}

// ResponderOption configures a Responder
type ResponderOption func(*Responder) *Responder

// WithServiceInfo sets the info and links advertised in every envelope.
func WithServiceInfo(info string, links map[string]any) ResponderOption {
	return func(r *Responder) *Responder {
		r.info = info
		r.links = links
		return r
	}
}

// WithDebug controls whether internal error messages reach clients.
func WithDebug(debug bool) ResponderOption {
	return func(r *Responder) *Responder {
		r.debug = debug
		return r
	}
}

// WithCookieManager wires the handler that clears the refresh cookie on
// authentication failures.
func WithCookieManager(cookies RefreshCookieManager) ResponderOption {
	return func(r *Responder) *Responder {
		r.cookies = cookies
		return r
	}
}

// RefreshCookieManager is the slice of the HTTP auth surface the responder
// needs: expiring the refresh cookie whenever a 401 goes out.
type RefreshCookieManager interface {
	ClearRefreshCookie(ctx router.Context)
}

// Responder renders the envelope. One instance serves every controller so
// the info/links block and the debug switch stay consistent.
type Responder struct {
	info    string
	links   map[string]any
	debug   bool
	cookies RefreshCookieManager
	logger  Logger
}

func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{
		info:   "newsletter platform API",
		links:  map[string]any{},
		logger: defLogger{},
	}

	for _, opt := range opts {
		r = opt(r)
	}

	return r
}

func (r *Responder) WithLogger(logger Logger) *Responder {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// OK renders a success envelope with the given payload.
func (r *Responder) OK(ctx router.Context, message string, data any) error {
	return r.send(ctx, http.StatusOK, message, data, nil)
}

// Created renders a 201 envelope with the given payload.
func (r *Responder) Created(ctx router.Context, message string, data any) error {
	return r.send(ctx, http.StatusCreated, message, data, nil)
}

// OKPage renders a success envelope with page data and pagination metadata.
func OKPage[T any](r *Responder, ctx router.Context, message string, page *Page[T]) error {
	return r.send(ctx, http.StatusOK, message, page.Data, &Paginate{
		TotalData: page.Total,
		TotalPage: page.TotalPages,
		PageNo:    page.PageNo,
		PageSize:  page.PageSize,
		Next:      page.HasNext(),
		Previous:  page.HasPrevious(),
	})
}

// Error normalizes err into the closed taxonomy and renders the failure
// envelope. An unauthorized response also expires the refresh cookie so a
// browser client cannot keep replaying a rejected credential.
func (r *Responder) Error(ctx router.Context, err error) error {
	richErr := AsRichError(err)

	message := richErr.Message
	var details any

	switch richErr.TextCode {
	case TextCodeBadRequest, TextCodeUnauthorized, TextCodeNotFound, TextCodeConflict:
		if len(richErr.Metadata) > 0 {
			details = richErr.Metadata
		}
	default:
		// Internal failures keep the diagnosis server side unless we
		// are in debug mode.
		r.logger.Error("request failed: %s", print.MaybePrettyJSON(richErr))
		if !r.debug {
			message = "An unexpected server error occurred"
		}
	}

	if richErr.TextCode == TextCodeUnauthorized && r.cookies != nil {
		r.cookies.ClearRefreshCookie(ctx)
	}

	status := statusForTextCode(richErr.TextCode)

	return ctx.JSON(status, &Envelope{
		Info:       r.info,
		Links:      r.links,
		Message:    message,
		StatusCode: status,
		Error:      errorBody(richErr.TextCode, details),
	})
}

func (r *Responder) send(ctx router.Context, status int, message string, data any, paginate *Paginate) error {
	return ctx.JSON(status, &Envelope{
		Info:       r.info,
		Links:      r.links,
		Message:    message,
		StatusCode: status,
		Data:       data,
		Paginate:   paginate,
	})
}

func errorBody(textCode string, details any) any {
	body := map[string]any{
		"code": textCode,
	}
	if details != nil {
		body["details"] = details
	}
	return body
}

func statusForTextCode(textCode string) int {
	switch textCode {
	case TextCodeBadRequest:
		return http.StatusBadRequest
	case TextCodeUnauthorized:
		return http.StatusUnauthorized
	case TextCodeNotFound:
		return http.StatusNotFound
	case TextCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map suitable for the envelope's error details.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		for field, ferr := range fields {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["_"] = err.Error()
	return out
}
