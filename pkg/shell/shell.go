package shell

import (
	"context"
	"strings"
	"sync"

	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/logx"
)

// Renderer muestra la conversación al usuario
type Renderer interface {
	Message(msg ChatMessage)
	Thinking()
	Error(text string)
	Memory(view MemoryView)
}

// Shell conduce una sesión de chat contra el gateway
type Shell struct {
	client        *Client
	session       *Session
	renderer      Renderer
	pollAfterTurn bool

	mu        sync.Mutex
	observers map[int]func(MemoryView)
	nextID    int
}

// Option configures a Shell
type Option func(*Shell)

// WithPollAfterTurn controls the memory fetch after each successful turn.
// Turn it off when the panel is fed by Watch.
func WithPollAfterTurn(enabled bool) Option {
	return func(s *Shell) {
		s.pollAfterTurn = enabled
	}
}

func New(client *Client, session *Session, renderer Renderer, opts ...Option) *Shell {
	s := &Shell{
		client:        client,
		session:       session,
		renderer:      renderer,
		pollAfterTurn: true,
		observers:     make(map[int]func(MemoryView)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if renderer != nil {
		s.OnMemory(renderer.Memory)
	}
	return s
}

func (s *Shell) Session() *Session {
	return s.session
}

// Submit envía text como un turno. Blank input is ignored. The user message
// is shown before the call; the reply is added only if the call succeeds.
func (s *Shell) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.session.begin() {
		return ErrTurnInFlight()
	}
	defer s.session.end()

	userMsg := ChatMessage{Role: RoleUser, Content: text}
	s.session.append(userMsg)
	s.render(func(r Renderer) {
		r.Message(userMsg)
		r.Thinking()
	})

	threadID := s.session.NextThreadID()
	reply, err := s.client.Chat(ctx, s.session.Token, chat.ChatRequest{
		Query:    text,
		UserID:   s.session.UserID,
		ThreadID: threadID,
	})
	if err != nil {
		logx.WithError(err).WithField("thread_id", threadID.String()).Debug("chat turn failed")
		s.render(func(r Renderer) { r.Error(ErrorText(err)) })
		return err
	}

	assistantMsg := ChatMessage{Role: RoleAssistant, Content: reply}
	s.session.append(assistantMsg)
	s.render(func(r Renderer) { r.Message(assistantMsg) })

	if s.pollAfterTurn {
		s.RefreshMemory(ctx)
	}
	return nil
}

// RefreshMemory consulta la memoria y notifica a los observadores
func (s *Shell) RefreshMemory(ctx context.Context) MemoryView {
	view := s.client.Memory(ctx, s.session.Token, s.session.UserID)
	s.notify(view)
	return view
}

// Watch alimenta a los observadores desde el stream SSE hasta que ctx termine
func (s *Shell) Watch(ctx context.Context) error {
	return s.client.WatchMemory(ctx, s.session.Token, s.session.UserID, s.notify)
}

// OnMemory registra un observador del panel de memoria y devuelve la función
// para quitarlo
func (s *Shell) OnMemory(fn func(MemoryView)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Shell) notify(view MemoryView) {
	s.mu.Lock()
	observers := make([]func(MemoryView), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(view)
	}
}

func (s *Shell) render(fn func(Renderer)) {
	if s.renderer != nil {
		fn(s.renderer)
	}
}
