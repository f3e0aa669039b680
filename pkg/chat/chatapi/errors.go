package chatapi

import (
	"errors"
	"fmt"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/gofiber/fiber/v2"
)

// Error kinds returned in the "kind" field
const (
	KindValidation      = "ValidationError"
	KindAgentInvocation = "AgentInvocationError"
	KindMemoryLookup    = "MemoryLookupError"
	KindAuthorization   = "AuthorizationError"
	KindNotFound        = "NotFound"
	KindInternal        = "InternalError"
)

const internalCode = "INTERNAL_ERROR"

// KindOf clasifica un error para el cliente
func KindOf(err error) string {
	switch {
	case chat.IsAgentError(err), errx.IsCode(err, agent.CodeModelFailed), errx.IsCode(err, agent.CodeEmptyReply):
		return KindAgentInvocation
	case memory.IsLookupError(err), errx.IsCode(err, memory.CodeSaveFailed):
		return KindMemoryLookup
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return kindForStatus(fe.Code)
	}

	switch {
	case errx.IsType(err, errx.TypeValidation):
		return KindValidation
	case errx.IsType(err, errx.TypeAuthorization):
		return KindAuthorization
	case errx.IsType(err, errx.TypeNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

func kindForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return KindNotFound
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		return KindAuthorization
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge,
		fiber.StatusUnsupportedMediaType, fiber.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindInternal
	}
}

// ErrorHandler convierte cualquier error en {detail, kind, code, request_id}.
// dev adds the underlying cause.
func ErrorHandler(dev bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var status int
		var detail, code string
		var details map[string]any
		var cause error

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			detail = fe.Message
			code = fmt.Sprintf("HTTP_%d", fe.Code)
		} else {
			e, ok := errx.As(err)
			if !ok {
				// panics recuperados y errores sin registrar
				e = errx.Wrap(err, "An unexpected error occurred.", errx.TypeInternal)
				e.Code = internalCode
			}
			status = errx.HTTPStatus(e)
			detail = e.Message
			code = e.Code
			details = e.Details
			cause = e.Err
		}
		if status < 400 {
			status = fiber.StatusInternalServerError
		}

		kind := KindOf(err)
		fields := logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     status,
			"code":       code,
			"kind":       kind,
			"request_id": requestID(c),
		}
		if status >= 500 {
			logx.WithFields(fields).WithError(err).Error("Request error")
		} else {
			logx.WithFields(fields).WithError(err).Warn("Request rejected")
		}

		body := fiber.Map{
			"detail":     detail,
			"kind":       kind,
			"code":       code,
			"request_id": requestID(c),
		}
		if len(details) > 0 {
			body["details"] = details
		}
		if dev && cause != nil {
			body["underlying_error"] = cause.Error()
		}
		return c.Status(status).JSON(body)
	}
}

// NotFoundHandler responde a rutas desconocidas
func NotFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"detail":     "Route not found: " + c.Method() + " " + c.Path(),
		"kind":       KindNotFound,
		"code":       "NOT_FOUND",
		"request_id": requestID(c),
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
