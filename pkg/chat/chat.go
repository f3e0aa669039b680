package chat

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

// ============================================================================
// Request / Response
// ============================================================================

// ChatRequest es el cuerpo de POST /chat
type ChatRequest struct {
	Query    string          `json:"query"`
	UserID   kernel.UserID   `json:"user_id"`
	ThreadID kernel.ThreadID `json:"thread_id"`
}

// ChatResponse es la respuesta del agente para un turno
type ChatResponse struct {
	Response string `json:"response"`
}

// Validate rechaza consultas vacías y turnos sin identidad
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrValidation().WithMessage("query must not be empty").WithDetail("field", "query")
	}
	if strings.TrimSpace(r.UserID.String()) == "" {
		return ErrValidation().WithMessage("user_id is required").WithDetail("field", "user_id")
	}
	if strings.TrimSpace(r.ThreadID.String()) == "" {
		return ErrValidation().WithMessage("thread_id is required").WithDetail("field", "thread_id")
	}
	return nil
}

// ============================================================================
// Errors
// ============================================================================

var ErrRegistry = errx.NewRegistry("CHAT")

var (
	CodeValidationFailed      = ErrRegistry.Register("VALIDATION_FAILED", errx.TypeValidation, http.StatusBadRequest, "Solicitud de chat inválida")
	CodeAgentInvocationFailed = ErrRegistry.Register("AGENT_INVOCATION_FAILED", errx.TypeExternal, http.StatusBadGateway, "El agente no pudo responder")
	CodeAgentTimeout          = ErrRegistry.Register("AGENT_TIMEOUT", errx.TypeTimeout, http.StatusGatewayTimeout, "El agente no respondió a tiempo")
)

func ErrValidation() *errx.Error {
	return ErrRegistry.New(CodeValidationFailed)
}

func ErrAgentInvocation() *errx.Error {
	return ErrRegistry.New(CodeAgentInvocationFailed)
}

func ErrAgentTimeout() *errx.Error {
	return ErrRegistry.New(CodeAgentTimeout)
}

// IsAgentError reports whether err came from invoking the agent
func IsAgentError(err error) bool {
	return errx.IsCode(err, CodeAgentInvocationFailed) || errx.IsCode(err, CodeAgentTimeout)
}
