package identity

import (
	"net/http"

	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/google/uuid"
)

const (
	UserIDPrefix   = "student_"
	ThreadIDPrefix = "chat_session_"
)

// NewUserID genera el identificador estable de un estudiante (UUIDv4, 128 bits)
func NewUserID() kernel.UserID {
	return kernel.UserID(UserIDPrefix + uuid.NewString())
}

// NewThreadID genera un identificador de hilo nuevo
func NewThreadID() kernel.ThreadID {
	return kernel.ThreadID(ThreadIDPrefix + uuid.NewString())
}

// ThreadPolicy decides whether consecutive turns share agent state
type ThreadPolicy string

const (
	// PerTurn gives every chat call its own thread.
	PerTurn ThreadPolicy = "per_turn"
	// PerSession reuses one thread for the whole client session.
	PerSession ThreadPolicy = "per_session"
)

// ParseThreadPolicy falls back to PerTurn for unknown values.
func ParseThreadPolicy(s string) ThreadPolicy {
	if ThreadPolicy(s) == PerSession {
		return PerSession
	}
	return PerTurn
}

// ThreadSequence hands out thread ids according to a policy. It is not safe
// for concurrent use; it belongs to a single client session.
type ThreadSequence struct {
	policy  ThreadPolicy
	current kernel.ThreadID
}

func NewThreadSequence(policy ThreadPolicy) *ThreadSequence {
	return &ThreadSequence{policy: policy}
}

// Next returns the thread id for the next chat call
func (s *ThreadSequence) Next() kernel.ThreadID {
	if s.policy == PerSession {
		if s.current.IsEmpty() {
			s.current = NewThreadID()
		}
		return s.current
	}
	s.current = NewThreadID()
	return s.current
}

func (s *ThreadSequence) Policy() ThreadPolicy {
	return s.policy
}

// ============================================================================
// Errors
// ============================================================================

var ErrRegistry = errx.NewRegistry("IDENTITY")

var (
	CodeTokenRequired   = ErrRegistry.Register("TOKEN_REQUIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Se requiere un token de sesión")
	CodeTokenInvalid    = ErrRegistry.Register("TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Token de sesión inválido")
	CodeSubjectMismatch = ErrRegistry.Register("SUBJECT_MISMATCH", errx.TypeAuthorization, http.StatusForbidden, "El token no pertenece a este usuario")
	CodeTokenIssue      = ErrRegistry.Register("TOKEN_ISSUE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "No se pudo emitir el token de sesión")
)

func ErrTokenRequired() *errx.Error {
	return ErrRegistry.New(CodeTokenRequired)
}

func ErrTokenInvalid() *errx.Error {
	return ErrRegistry.New(CodeTokenInvalid)
}

func ErrSubjectMismatch() *errx.Error {
	return ErrRegistry.New(CodeSubjectMismatch)
}

func ErrTokenIssue() *errx.Error {
	return ErrRegistry.New(CodeTokenIssue)
}
