package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// RedisCheckpointer guarda cada hilo como una lista de mensajes JSON bajo
// "<prefix>:thread:<thread_id>". Redis expires idle threads.
type RedisCheckpointer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCheckpointer(client *redis.Client, prefix string, ttl time.Duration) *RedisCheckpointer {
	return &RedisCheckpointer{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCheckpointer) key(threadID kernel.ThreadID) string {
	return c.prefix + ":thread:" + threadID.String()
}

func (c *RedisCheckpointer) Load(ctx context.Context, threadID kernel.ThreadID) ([]llm.Message, error) {
	raw, err := c.client.LRange(ctx, c.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *RedisCheckpointer) Append(ctx context.Context, threadID kernel.ThreadID, messages ...llm.Message) error {
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		encoded, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		values = append(values, encoded)
	}

	key := c.key(threadID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	return err
}
