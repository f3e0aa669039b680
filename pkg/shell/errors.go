package shell

import (
	"net/http"

	"github.com/Abraxas-365/shohayok/pkg/errx"
)

// FallbackReply se muestra cuando el gateway responde sin "response"
const FallbackReply = "দুঃখিত, একটি সমস্যা হয়েছে।"

const connectionErrorText = "API এর সাথে সংযোগ করতে ব্যর্থ। অনুগ্রহ করে নিশ্চিত করুন যে API সার্ভারটি চলছে।"

var ErrRegistry = errx.NewRegistry("SHELL")

var (
	CodeConnectionFailed = ErrRegistry.Register("CONNECTION_FAILED", errx.TypeUnavailable, http.StatusServiceUnavailable, "No se pudo conectar con el gateway")
	CodeGatewayError     = ErrRegistry.Register("GATEWAY_ERROR", errx.TypeExternal, http.StatusBadGateway, "El gateway devolvió un error")
	CodeTurnInFlight     = ErrRegistry.Register("TURN_IN_FLIGHT", errx.TypeConflict, http.StatusConflict, "Ya hay un turno en curso")
	CodeBadResponse      = ErrRegistry.Register("BAD_RESPONSE", errx.TypeExternal, http.StatusBadGateway, "Respuesta del gateway ilegible")
)

func ErrConnectionFailed() *errx.Error {
	return ErrRegistry.New(CodeConnectionFailed)
}

func ErrGateway() *errx.Error {
	return ErrRegistry.New(CodeGatewayError)
}

func ErrTurnInFlight() *errx.Error {
	return ErrRegistry.New(CodeTurnInFlight)
}

func ErrBadResponse() *errx.Error {
	return ErrRegistry.New(CodeBadResponse)
}

// ErrorText es el texto que ve el usuario para err
func ErrorText(err error) string {
	e, ok := errx.As(err)
	if !ok {
		return FallbackReply + "\n\nError: " + err.Error()
	}
	switch e.Code {
	case CodeConnectionFailed:
		cause := e.Message
		if e.Err != nil {
			cause = e.Err.Error()
		}
		return connectionErrorText + "\n\nError: " + cause
	case CodeGatewayError:
		return FallbackReply + "\n\nError: " + e.Message
	default:
		return FallbackReply + "\n\nError: " + e.Error()
	}
}
