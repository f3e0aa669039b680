package shell

import (
	"sync"

	"github.com/Abraxas-365/shohayok/pkg/identity"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage es una entrada del historial visible
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session es el estado de una sesión de cliente. UserID never changes after
// construction and the transcript only grows.
type Session struct {
	UserID kernel.UserID
	Token  string

	mu       sync.Mutex
	threads  *identity.ThreadSequence
	messages []ChatMessage
	inFlight bool
}

// NewSession crea una sesión para userID. An empty userID gets a fresh one.
func NewSession(userID kernel.UserID, policy identity.ThreadPolicy) *Session {
	if userID.IsEmpty() {
		userID = identity.NewUserID()
	}
	return &Session{
		UserID:  userID,
		threads: identity.NewThreadSequence(policy),
	}
}

// Messages returns a copy of the transcript
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// NextThreadID devuelve el hilo para la próxima llamada a /chat
func (s *Session) NextThreadID() kernel.ThreadID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads.Next()
}

func (s *Session) ThreadPolicy() identity.ThreadPolicy {
	return s.threads.Policy()
}

func (s *Session) append(msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// begin marks a turn in flight; false if one already is
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}
