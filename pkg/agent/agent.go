package agent

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

// ============================================================================
// Graph Contract
// ============================================================================

// Graph es el agente conversacional. Invoke runs one turn for the thread in
// cfg and returns the thread's messages, the reply last. Implementations may
// write the user's long-term memory before returning.
type Graph interface {
	Invoke(ctx context.Context, in Input, cfg RunConfig) (*Output, error)
}

// Input son los mensajes nuevos de este turno
type Input struct {
	Messages []llm.Message
}

// RunConfig identifica al usuario y al hilo de la invocación
type RunConfig struct {
	UserID   kernel.UserID
	ThreadID kernel.ThreadID
}

// Output es el estado del hilo después del turno
type Output struct {
	Messages []llm.Message
}

// Last returns the final message of the output
func (o *Output) Last() (llm.Message, bool) {
	if o == nil || len(o.Messages) == 0 {
		return llm.Message{}, false
	}
	return o.Messages[len(o.Messages)-1], true
}

// ============================================================================
// Errors
// ============================================================================

var ErrRegistry = errx.NewRegistry("AGENT")

var (
	CodeEmptyInput       = ErrRegistry.Register("EMPTY_INPUT", errx.TypeValidation, http.StatusBadRequest, "El turno no tiene mensajes")
	CodeModelFailed      = ErrRegistry.Register("MODEL_FAILED", errx.TypeExternal, http.StatusBadGateway, "El modelo de lenguaje falló")
	CodeCheckpointFailed = ErrRegistry.Register("CHECKPOINT_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "No se pudo acceder al historial del hilo")
	CodeEmptyReply       = ErrRegistry.Register("EMPTY_REPLY", errx.TypeExternal, http.StatusBadGateway, "El modelo devolvió una respuesta vacía")
)

func ErrEmptyInput() *errx.Error {
	return ErrRegistry.New(CodeEmptyInput)
}

func ErrModelFailed() *errx.Error {
	return ErrRegistry.New(CodeModelFailed)
}

func ErrCheckpointFailed() *errx.Error {
	return ErrRegistry.New(CodeCheckpointFailed)
}

func ErrEmptyReply() *errx.Error {
	return ErrRegistry.New(CodeEmptyReply)
}
