package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
)

type thread struct {
	messages []llm.Message
	touched  time.Time
}

// InMemoryCheckpointer guarda los hilos en el proceso. Threads idle for
// longer than ttl are invisible to Load and removed by Prune.
type InMemoryCheckpointer struct {
	mu      sync.Mutex
	threads map[kernel.ThreadID]*thread
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryCheckpointer(ttl time.Duration) *InMemoryCheckpointer {
	return &InMemoryCheckpointer{
		threads: make(map[kernel.ThreadID]*thread),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryCheckpointer) Load(ctx context.Context, threadID kernel.ThreadID) ([]llm.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[threadID]
	if !ok {
		return nil, nil
	}
	if c.expired(t) {
		delete(c.threads, threadID)
		return nil, nil
	}
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out, nil
}

func (c *InMemoryCheckpointer) Append(ctx context.Context, threadID kernel.ThreadID, messages ...llm.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[threadID]
	if !ok || c.expired(t) {
		t = &thread{}
		c.threads[threadID] = t
	}
	t.messages = append(t.messages, messages...)
	t.touched = c.now()
	return nil
}

// Prune elimina los hilos expirados y devuelve cuántos borró
func (c *InMemoryCheckpointer) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, t := range c.threads {
		if c.expired(t) {
			delete(c.threads, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored threads, expired ones included
func (c *InMemoryCheckpointer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.threads)
}

func (c *InMemoryCheckpointer) expired(t *thread) bool {
	return c.ttl > 0 && c.now().Sub(t.touched) > c.ttl
}
