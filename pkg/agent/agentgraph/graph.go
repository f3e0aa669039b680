package agentgraph

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/agent/checkpoint"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"golang.org/x/time/rate"
)

// Graph es el agente tutor respaldado por un LLM. Each turn reads the
// user's profile and the thread history, asks the model for a reply, stores
// the turn in the thread and then updates the profile, all before Invoke
// returns. Turns of the same user run one at a time.
type Graph struct {
	client         *llm.Client
	checkpoints    checkpoint.Checkpointer
	memories       memory.Repository
	options        []llm.Option
	systemPrompt   string
	historyLimit   int
	extractProfile bool
	limiter        *rate.Limiter

	locks *agent.UserLocks
}

// GraphOption configures a Graph
type GraphOption func(*Graph)

// WithOptions adds LLM options to every reply call
func WithOptions(options ...llm.Option) GraphOption {
	return func(g *Graph) {
		g.options = append(g.options, options...)
	}
}

// WithSystemPrompt sets the tutor prompt
func WithSystemPrompt(prompt string) GraphOption {
	return func(g *Graph) {
		g.systemPrompt = prompt
	}
}

// WithHistoryLimit caps how many past thread messages go to the model. 0
// sends the whole thread.
func WithHistoryLimit(limit int) GraphOption {
	return func(g *Graph) {
		g.historyLimit = limit
	}
}

// WithProfileExtraction enables or disables the memory update step
func WithProfileExtraction(enabled bool) GraphOption {
	return func(g *Graph) {
		g.extractProfile = enabled
	}
}

// WithRateLimit limita las llamadas al LLM por segundo. 0 disables it.
func WithRateLimit(perSecond float64) GraphOption {
	return func(g *Graph) {
		if perSecond <= 0 {
			g.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a new graph
func New(client *llm.Client, checkpoints checkpoint.Checkpointer, memories memory.Repository, opts ...GraphOption) *Graph {
	g := &Graph{
		client:         client,
		checkpoints:    checkpoints,
		memories:       memories,
		historyLimit:   20,
		extractProfile: true,
		locks:          agent.NewUserLocks(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke runs one turn
func (g *Graph) Invoke(ctx context.Context, in agent.Input, cfg agent.RunConfig) (*agent.Output, error) {
	if len(in.Messages) == 0 {
		return nil, agent.ErrEmptyInput()
	}

	unlock, err := g.locks.Lock(ctx, cfg.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()

	profile, err := g.loadProfile(ctx, cfg.UserID)
	if err != nil {
		return nil, err
	}

	history, err := g.checkpoints.Load(ctx, cfg.ThreadID)
	if err != nil {
		return nil, agent.ErrCheckpointFailed().WithCause(err).WithDetail("thread_id", cfg.ThreadID.String())
	}

	prompt := g.buildPrompt(profile, history, in.Messages)

	opts := make([]llm.Option, 0, len(g.options)+1)
	opts = append(opts, g.options...)
	opts = append(opts, llm.WithUser(cfg.UserID.String()))

	reply, err := g.chat(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply.Content) == "" {
		return nil, agent.ErrEmptyReply()
	}
	reply.Role = llm.RoleAssistant

	turn := make([]llm.Message, 0, len(in.Messages)+1)
	turn = append(turn, in.Messages...)
	turn = append(turn, reply)
	if err := g.checkpoints.Append(ctx, cfg.ThreadID, turn...); err != nil {
		return nil, agent.ErrCheckpointFailed().WithCause(err).WithDetail("thread_id", cfg.ThreadID.String())
	}

	if g.extractProfile {
		if err := g.updateProfile(ctx, cfg.UserID, profile, turn); err != nil {
			logx.WithError(err).WithField("user_id", cfg.UserID.String()).Warn("profile update failed")
		}
	}

	logx.WithFields(logx.Fields{
		"user_id":   cfg.UserID.String(),
		"thread_id": cfg.ThreadID.String(),
		"history":   len(history),
		"elapsed":   time.Since(start).String(),
	}).Debug("agent turn completed")

	out := make([]llm.Message, 0, len(history)+len(turn))
	out = append(out, history...)
	out = append(out, turn...)
	return &agent.Output{Messages: out}, nil
}

func (g *Graph) loadProfile(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	rec, err := g.memories.Get(ctx, userID)
	if err != nil {
		if memory.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (g *Graph) chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Message, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return llm.Message{}, err
		}
	}

	resp, err := g.client.Chat(ctx, messages, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return llm.Message{}, ctx.Err()
		}
		return llm.Message{}, agent.ErrModelFailed().WithCause(err)
	}
	return resp.Message, nil
}

// buildPrompt arma [sistema + perfil, historial reciente, mensajes nuevos]
func (g *Graph) buildPrompt(profile *memory.Record, history, input []llm.Message) []llm.Message {
	system := g.systemPrompt
	if profile != nil && len(profile.Data) > 0 {
		encoded, err := json.Marshal(profile.Data)
		if err == nil {
			system += "\n\nশিক্ষার্থীর প্রোফাইল (student profile):\n" + string(encoded)
		}
	}

	if g.historyLimit > 0 && len(history) > g.historyLimit {
		history = history[len(history)-g.historyLimit:]
	}

	prompt := make([]llm.Message, 0, 1+len(history)+len(input))
	if system != "" {
		prompt = append(prompt, llm.NewSystemMessage(system))
	}
	prompt = append(prompt, history...)
	prompt = append(prompt, input...)
	return prompt
}
