// pkg/chat/chatsrv/service.go
package chatsrv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/logx"
)

// ChatService adapta una consulta de chat a una invocación del agente
type ChatService struct {
	graph   agent.Graph
	timeout time.Duration
}

// NewChatService crea el servicio. timeout <= 0 means no deadline beyond the
// caller's context.
func NewChatService(graph agent.Graph, timeout time.Duration) *ChatService {
	return &ChatService{
		graph:   graph,
		timeout: timeout,
	}
}

// Chat valida la solicitud y corre un turno del agente
func (s *ChatService) Chat(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	response, err := s.Invoke(ctx, req.Query, req.UserID, req.ThreadID)
	if err != nil {
		return nil, err
	}
	return &chat.ChatResponse{Response: response}, nil
}

// Invoke envía query como un único mensaje de usuario al hilo threadID y
// devuelve el contenido del último mensaje producido
func (s *ChatService) Invoke(ctx context.Context, query string, userID kernel.UserID, threadID kernel.ThreadID) (string, error) {
	req := chat.ChatRequest{Query: query, UserID: userID, ThreadID: threadID}
	if err := req.Validate(); err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fields := logx.Fields{
		"user_id":   userID.String(),
		"thread_id": threadID.String(),
	}
	start := time.Now()

	out, err := s.graph.Invoke(ctx,
		agent.Input{Messages: []llm.Message{llm.NewUserMessage(query)}},
		agent.RunConfig{UserID: userID, ThreadID: threadID},
	)
	fields["latency_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		wrapped := s.wrap(ctx, err)
		logx.WithFields(fields).WithError(err).Warn("agent invocation failed")
		return "", wrapped
	}

	last, ok := out.Last()
	if !ok || strings.TrimSpace(last.Content) == "" {
		logx.WithFields(fields).Warn("agent returned no reply")
		return "", chat.ErrAgentInvocation().WithMessage("agent returned an empty reply")
	}

	logx.WithFields(fields).Info("chat turn completed")
	return last.Content, nil
}

func (s *ChatService) wrap(ctx context.Context, err error) *errx.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return chat.ErrAgentTimeout().WithCause(err).WithDetail("timeout", s.timeout.String())
	}
	return chat.ErrAgentInvocation().WithCause(err)
}
