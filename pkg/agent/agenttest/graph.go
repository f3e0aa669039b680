package agenttest

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/agent/checkpoint"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
)

var namePattern = regexp.MustCompile(`(?i)(?:আমার নাম|my name is)\s+([^\s।,.!?]+)`)

// Graph es un agente sin modelo: responde con un texto fijo y recuerda el
// nombre del estudiante cuando lo dice. Used with AGENT_PROVIDER=scripted and
// in tests.
type Graph struct {
	// Delay se espera antes de responder (respeta ctx)
	Delay time.Duration
	// Err, si no es nil, se devuelve en lugar de responder
	Err error
	// Reply overrides the default reply text
	Reply func(query string, profile memory.Snapshot) string

	memories    memory.Repository
	checkpoints checkpoint.Checkpointer
	locks       *agent.UserLocks
	calls       atomic.Int32
}

// NewGraph builds a scripted graph. memories may be nil; checkpoints defaults
// to an in-process store.
func NewGraph(memories memory.Repository, checkpoints checkpoint.Checkpointer) *Graph {
	if checkpoints == nil {
		checkpoints = checkpoint.NewInMemoryCheckpointer(24 * time.Hour)
	}
	return &Graph{
		memories:    memories,
		checkpoints: checkpoints,
		locks:       agent.NewUserLocks(),
	}
}

// Calls returns how many times Invoke was called
func (g *Graph) Calls() int {
	return int(g.calls.Load())
}

func (g *Graph) Invoke(ctx context.Context, in agent.Input, cfg agent.RunConfig) (*agent.Output, error) {
	g.calls.Add(1)

	if err := sleepCtx(ctx, g.Delay); err != nil {
		return nil, err
	}
	if g.Err != nil {
		return nil, g.Err
	}
	if len(in.Messages) == 0 {
		return nil, agent.ErrEmptyInput()
	}

	// leer-fusionar-guardar del perfil, un turno por usuario
	unlock, err := g.locks.Lock(ctx, cfg.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	query := in.Messages[len(in.Messages)-1].Content

	profile, err := g.remember(ctx, cfg.UserID, query)
	if err != nil {
		return nil, err
	}

	reply := llm.NewAssistantMessage(g.reply(query, profile))

	history, err := g.checkpoints.Load(ctx, cfg.ThreadID)
	if err != nil {
		return nil, agent.ErrCheckpointFailed().WithCause(err)
	}
	turn := append(append([]llm.Message{}, in.Messages...), reply)
	if err := g.checkpoints.Append(ctx, cfg.ThreadID, turn...); err != nil {
		return nil, agent.ErrCheckpointFailed().WithCause(err)
	}

	return &agent.Output{Messages: append(history, turn...)}, nil
}

// remember guarda el nombre si la consulta lo menciona y devuelve el perfil
func (g *Graph) remember(ctx context.Context, userID kernel.UserID, query string) (memory.Snapshot, error) {
	if g.memories == nil {
		return nil, nil
	}

	var profile memory.Snapshot
	rec, err := g.memories.Get(ctx, userID)
	switch {
	case err == nil:
		profile = rec.Data
	case !memory.IsNotFound(err):
		return nil, err
	}

	m := namePattern.FindStringSubmatch(query)
	if m == nil {
		return profile, nil
	}

	updated := profile.Merge(memory.Snapshot{"name": m[1]})
	if err := g.memories.Save(ctx, memory.NewRecord(userID, updated)); err != nil {
		return nil, err
	}
	return updated, nil
}

func (g *Graph) reply(query string, profile memory.Snapshot) string {
	if g.Reply != nil {
		return g.Reply(query, profile)
	}
	if name, ok := profile["name"].(string); ok && name != "" {
		return "নমস্কার, " + name + "! তুমি লিখেছ: " + strings.TrimSpace(query)
	}
	return "নমস্কার! তুমি লিখেছ: " + strings.TrimSpace(query)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
