package checkpoint

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCheckpointer(ttl time.Duration) (*InMemoryCheckpointer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewInMemoryCheckpointer(ttl)
	c.now = clock.Now
	return c, clock
}

func TestInMemoryAppendAndLoadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCheckpointer(time.Hour)

	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("হ্যালো")))
	require.NoError(t, c.Append(ctx, "t1", llm.NewAssistantMessage("নমস্কার"), llm.NewUserMessage("কেমন আছ?")))

	msgs, err := c.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "হ্যালো", msgs[0].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "কেমন আছ?", msgs[2].Content)
}

func TestInMemoryThreadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCheckpointer(time.Hour)

	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("one")))

	msgs, err := c.Load(ctx, "t2")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemoryLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCheckpointer(time.Hour)
	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("one")))

	msgs, _ := c.Load(ctx, "t1")
	msgs[0].Content = "changed"

	again, _ := c.Load(ctx, "t1")
	assert.Equal(t, "one", again[0].Content)
}

func TestInMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCheckpointer(time.Minute)

	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("old")))
	clock.Advance(30 * time.Second)
	require.NoError(t, c.Append(ctx, "t2", llm.NewUserMessage("fresh")))
	clock.Advance(45 * time.Second)

	msgs, err := c.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = c.Load(ctx, "t2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	// appending to an expired thread starts over
	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("new")))
	msgs, _ = c.Load(ctx, "t1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "new", msgs[0].Content)
}

func TestInMemoryPrune(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCheckpointer(time.Minute)

	require.NoError(t, c.Append(ctx, "t1", llm.NewUserMessage("a")))
	require.NoError(t, c.Append(ctx, "t2", llm.NewUserMessage("b")))
	clock.Advance(2 * time.Minute)
	require.NoError(t, c.Append(ctx, "t3", llm.NewUserMessage("c")))

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
}

type countingPruner struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPruner) Prune(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 1, nil
}

func (p *countingPruner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestJanitorRunsUntilCancelled(t *testing.T) {
	pruner := &countingPruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewJanitor(pruner, 5*time.Millisecond).Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pruner.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

// Runs against a real Redis when REDIS_TEST_ADDR is set (e.g. localhost:6379)
func TestRedisCheckpointer(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	c := NewRedisCheckpointer(client, "shohayok_test", time.Minute)
	threadID := kernel.ThreadID("chat_session_" + uuid.NewString())
	defer client.Del(ctx, c.key(threadID))

	msgs, err := c.Load(ctx, threadID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, c.Append(ctx, threadID, llm.NewUserMessage("আমার নাম রবিন"), llm.NewAssistantMessage("নমস্কার রবিন")))
	msgs, err = c.Load(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "আমার নাম রবিন", msgs[0].Content)

	ttl, err := client.TTL(ctx, c.key(threadID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
