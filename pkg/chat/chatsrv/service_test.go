package chatsrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/agent/agenttest"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/chat"
	"github.com/Abraxas-365/shohayok/pkg/chat/chatsrv"
	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingGraph captures the single invocation it receives
type recordingGraph struct {
	input agent.Input
	cfg   agent.RunConfig
	out   *agent.Output
}

func (g *recordingGraph) Invoke(ctx context.Context, in agent.Input, cfg agent.RunConfig) (*agent.Output, error) {
	g.input = in
	g.cfg = cfg
	return g.out, nil
}

func TestInvokeBuildsSingleUserMessage(t *testing.T) {
	g := &recordingGraph{out: &agent.Output{Messages: []llm.Message{
		llm.NewUserMessage("earlier"),
		llm.NewAssistantMessage("older reply"),
		llm.NewUserMessage("আমার নাম রবিন"),
		llm.NewAssistantMessage("নমস্কার রবিন"),
	}}}
	svc := chatsrv.NewChatService(g, time.Second)

	reply, err := svc.Invoke(context.Background(), "আমার নাম রবিন", "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "নমস্কার রবিন", reply)

	require.Len(t, g.input.Messages, 1)
	assert.Equal(t, llm.RoleUser, g.input.Messages[0].Role)
	assert.Equal(t, "আমার নাম রবিন", g.input.Messages[0].Content)
	assert.Equal(t, agent.RunConfig{UserID: "u1", ThreadID: "t1"}, g.cfg)
}

func TestInvokeValidationMakesNoCall(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		user   string
		thread string
		field  string
	}{
		{"empty query", "", "u1", "t1", "query"},
		{"blank query", "  \n\t", "u1", "t1", "query"},
		{"missing user", "hi", "", "t1", "user_id"},
		{"missing thread", "hi", "u1", "", "thread_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := agenttest.NewGraph(nil, nil)
			svc := chatsrv.NewChatService(g, time.Second)

			_, err := svc.Chat(context.Background(), chat.ChatRequest{Query: tt.query, UserID: kernel.UserID(tt.user), ThreadID: kernel.ThreadID(tt.thread)})

			require.Error(t, err)
			assert.True(t, errx.IsCode(err, chat.CodeValidationFailed))
			e, ok := errx.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, e.Details["field"])
			assert.Equal(t, 0, g.Calls())
		})
	}
}

func TestInvokeTimeout(t *testing.T) {
	g := agenttest.NewGraph(nil, nil)
	g.Delay = time.Second
	svc := chatsrv.NewChatService(g, 20*time.Millisecond)

	start := time.Now()
	_, err := svc.Invoke(context.Background(), "hi", "u1", "t1")
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Error(t, err)
	assert.True(t, errx.IsCode(err, chat.CodeAgentTimeout))
	assert.True(t, chat.IsAgentError(err))
	assert.Equal(t, 504, errx.HTTPStatus(err))
}

func TestInvokeGraphFailureIsWrapped(t *testing.T) {
	cause := errors.New("checkpoint store down")
	g := agenttest.NewGraph(nil, nil)
	g.Err = cause
	svc := chatsrv.NewChatService(g, time.Second)

	_, err := svc.Invoke(context.Background(), "hi", "u1", "t1")
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, chat.CodeAgentInvocationFailed))
	assert.ErrorIs(t, err, cause)
}

func TestInvokeEmptyOutput(t *testing.T) {
	for name, out := range map[string]*agent.Output{
		"no messages":   {},
		"blank content": {Messages: []llm.Message{llm.NewAssistantMessage(" ")}},
	} {
		t.Run(name, func(t *testing.T) {
			svc := chatsrv.NewChatService(&recordingGraph{out: out}, time.Second)
			_, err := svc.Invoke(context.Background(), "hi", "u1", "t1")
			assert.True(t, errx.IsCode(err, chat.CodeAgentInvocationFailed))
		})
	}
}

func TestChatReturnsResponse(t *testing.T) {
	svc := chatsrv.NewChatService(agenttest.NewGraph(nil, nil), time.Second)

	resp, err := svc.Chat(context.Background(), chat.ChatRequest{Query: "হ্যালো", UserID: "u1", ThreadID: "t1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
}
