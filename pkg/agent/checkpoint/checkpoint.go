package checkpoint

import (
	"context"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

// Checkpointer guarda el historial de cada hilo de conversación
type Checkpointer interface {
	// Load returns the thread's messages in order; an unknown or expired
	// thread has none.
	Load(ctx context.Context, threadID kernel.ThreadID) ([]llm.Message, error)

	// Append adds messages to the end of the thread and refreshes its TTL
	Append(ctx context.Context, threadID kernel.ThreadID, messages ...llm.Message) error
}

// Pruner is implemented by checkpointers that expire threads themselves
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}
