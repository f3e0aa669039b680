package errx

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
)

// Type clasifica el error para el mapeo a HTTP y para el manejo en capas superiores
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeBusiness      Type = "BUSINESS"
	TypeExternal      Type = "EXTERNAL"
	TypeUnavailable   Type = "UNAVAILABLE"
	TypeTimeout       Type = "TIMEOUT"
	TypeInternal      Type = "INTERNAL"
)

// DefaultStatus returns the HTTP status used when an error of this type
// carries no explicit status.
func (t Type) DefaultStatus() int {
	switch t {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	case TypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error es el error estructurado que viaja entre capas
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errx errors by code so errors.Is works against the
// constructors of a registry.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithDetail agrega un detalle al error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithMessage overrides the registered message
func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

// Wrap envuelve un error existente. If err is already an *Error its code and
// status are kept and the message is prefixed.
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		wrapped := &Error{
			Code:       existing.Code,
			Type:       existing.Type,
			Message:    message + ": " + existing.Message,
			HTTPStatus: existing.HTTPStatus,
			Err:        existing,
		}
		if len(existing.Details) > 0 {
			wrapped.Details = maps.Clone(existing.Details)
		}
		return wrapped
	}

	return &Error{
		Code:       string(errType),
		Type:       errType,
		Message:    message,
		HTTPStatus: errType.DefaultStatus(),
		Err:        err,
	}
}

// As extrae un *Error de la cadena
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether any *Error in the chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsType reports whether the outermost *Error in the chain is of type t.
func IsType(err error, t Type) bool {
	e, ok := As(err)
	return ok && e.Type == t
}

// HTTPStatus returns the status to send for err, 500 for plain errors.
func HTTPStatus(err error) int {
	if e, ok := As(err); ok && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}
