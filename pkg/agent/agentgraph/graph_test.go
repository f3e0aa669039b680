package agentgraph_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/agent/agentgraph"
	"github.com/Abraxas-365/shohayok/pkg/agent/checkpoint"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/errx"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/Abraxas-365/shohayok/pkg/memory/memoryinfra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM answers reply calls with reply and JSON-mode calls with profile
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	profile  string
	replyErr error
	prompts  [][]llm.Message
	users    []string
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := llm.ApplyOptions(llm.DefaultOptions(), opts...)

	f.mu.Lock()
	defer f.mu.Unlock()

	if options.JSONMode {
		return llm.Response{Message: llm.NewAssistantMessage(f.profile)}, nil
	}
	f.prompts = append(f.prompts, messages)
	f.users = append(f.users, options.User)
	if f.replyErr != nil {
		return llm.Response{}, f.replyErr
	}
	return llm.Response{Message: llm.Message{Content: f.reply}}, nil
}

func (f *fakeLLM) lastPrompt() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

type fixture struct {
	llm         *fakeLLM
	checkpoints *checkpoint.InMemoryCheckpointer
	memories    *memoryinfra.InMemoryRepository
	graph       *agentgraph.Graph
}

func newFixture(opts ...agentgraph.GraphOption) *fixture {
	f := &fixture{
		llm:         &fakeLLM{reply: "নমস্কার!", profile: "{}"},
		checkpoints: checkpoint.NewInMemoryCheckpointer(time.Hour),
		memories:    memoryinfra.NewInMemoryRepository(),
	}
	all := append([]agentgraph.GraphOption{agentgraph.WithSystemPrompt("tutor")}, opts...)
	f.graph = agentgraph.New(llm.NewClient(f.llm), f.checkpoints, f.memories, all...)
	return f
}

func run(t *testing.T, g agent.Graph, query, user, thread string) *agent.Output {
	t.Helper()
	out, err := g.Invoke(context.Background(),
		agent.Input{Messages: []llm.Message{llm.NewUserMessage(query)}},
		agent.RunConfig{UserID: kernel.UserID(user), ThreadID: kernel.ThreadID(thread)},
	)
	require.NoError(t, err)
	return out
}

func TestInvokeReturnsReplyLast(t *testing.T) {
	f := newFixture()

	out := run(t, f.graph, "হ্যালো", "u1", "t1")

	last, ok := out.Last()
	require.True(t, ok)
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Equal(t, "নমস্কার!", last.Content)
	assert.Equal(t, []string{"u1"}, f.llm.users)
}

func TestInvokeKeepsThreadHistory(t *testing.T) {
	f := newFixture()

	run(t, f.graph, "first", "u1", "t1")
	out := run(t, f.graph, "second", "u1", "t1")
	assert.Len(t, out.Messages, 4)

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 4)
	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Equal(t, "first", prompt[1].Content)
	assert.Equal(t, "second", prompt[3].Content)

	// a new thread starts empty
	out = run(t, f.graph, "third", "u1", "t2")
	assert.Len(t, out.Messages, 2)
}

func TestInvokeTrimsHistory(t *testing.T) {
	f := newFixture(agentgraph.WithHistoryLimit(2))

	for _, q := range []string{"a", "b", "c"} {
		run(t, f.graph, q, "u1", "t1")
	}

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 4)
	assert.Equal(t, "b", prompt[1].Content)
	assert.Equal(t, "c", prompt[3].Content)
}

func TestInvokeWritesProfileBeforeReturning(t *testing.T) {
	f := newFixture()
	f.llm.profile = `{"name": "রবিন"}`

	run(t, f.graph, "আমার নাম রবিন", "u1", "t1")

	rec, err := f.memories.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", rec.Data["name"])

	// the next turn sees the profile in its system prompt
	f.llm.profile = "{}"
	run(t, f.graph, "আমি কে?", "u1", "t2")
	assert.Contains(t, f.llm.lastPrompt()[0].Content, "রবিন")
}

func TestInvokeProfileUpdatesMergeAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.memories.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রবিন", "grade": "5"})))

	f.llm.profile = "```json\n{\"grade\": null, \"school\": \"ঢাকা\"}\n```"
	run(t, f.graph, "আমি এখন ঢাকায় পড়ি", "u1", "t1")

	rec, err := f.memories.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, memory.Snapshot{"name": "রবিন", "school": "ঢাকা"}, rec.Data)
}

func TestInvokeWithoutFactsLeavesNoMemory(t *testing.T) {
	f := newFixture()

	run(t, f.graph, "২+২ কত?", "u1", "t1")

	_, err := f.memories.Get(context.Background(), "u1")
	assert.True(t, memory.IsNotFound(err))
}

func TestInvokeIgnoresBadProfileJSON(t *testing.T) {
	f := newFixture()
	f.llm.profile = "not json"

	out := run(t, f.graph, "hello", "u1", "t1")
	last, _ := out.Last()
	assert.Equal(t, "নমস্কার!", last.Content)
}

func TestInvokeProfileExtractionDisabled(t *testing.T) {
	f := newFixture(agentgraph.WithProfileExtraction(false))
	f.llm.profile = `{"name": "রবিন"}`

	run(t, f.graph, "আমার নাম রবিন", "u1", "t1")
	assert.Equal(t, 0, f.memories.Len())
}

func TestInvokeEmptyInput(t *testing.T) {
	f := newFixture()
	_, err := f.graph.Invoke(context.Background(), agent.Input{}, agent.RunConfig{UserID: "u1", ThreadID: "t1"})
	assert.True(t, errx.IsCode(err, agent.CodeEmptyInput))
}

func TestInvokeModelFailure(t *testing.T) {
	f := newFixture()
	f.llm.replyErr = errors.New("upstream 500")

	_, err := f.graph.Invoke(context.Background(),
		agent.Input{Messages: []llm.Message{llm.NewUserMessage("hi")}},
		agent.RunConfig{UserID: "u1", ThreadID: "t1"},
	)
	assert.True(t, errx.IsCode(err, agent.CodeModelFailed))

	// nothing is checkpointed for a failed turn
	msgs, _ := f.checkpoints.Load(context.Background(), "t1")
	assert.Empty(t, msgs)
}

func TestInvokeEmptyReply(t *testing.T) {
	f := newFixture()
	f.llm.reply = "   "

	_, err := f.graph.Invoke(context.Background(),
		agent.Input{Messages: []llm.Message{llm.NewUserMessage("hi")}},
		agent.RunConfig{UserID: "u1", ThreadID: "t1"},
	)
	assert.True(t, errx.IsCode(err, agent.CodeEmptyReply))
}

func TestInvokeRespectsCancelledContext(t *testing.T) {
	f := newFixture(agentgraph.WithRateLimit(0.001), agentgraph.WithProfileExtraction(false))
	in := agent.Input{Messages: []llm.Message{llm.NewUserMessage("hi")}}
	cfg := agent.RunConfig{UserID: "u1", ThreadID: "t1"}

	// the first call uses the only token
	_, err := f.graph.Invoke(context.Background(), in, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.graph.Invoke(ctx, in, cfg)
	assert.Error(t, err)
}

func TestSystemPromptOmittedWhenEmpty(t *testing.T) {
	f := newFixture(agentgraph.WithSystemPrompt(""))
	run(t, f.graph, "hi", "u1", "t1")

	prompt := f.llm.lastPrompt()
	require.Len(t, prompt, 1)
	assert.False(t, strings.EqualFold(prompt[0].Role, llm.RoleSystem))
}
