package llm

import (
	"context"
)

// LLM represents a generic large language model interface
type LLM interface {
	// Chat generates a response based on the conversation history
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

// Response contains the model's response and additional metadata
type Response struct {
	Message Message
	Usage   Usage
}

// Client represents a configured LLM client. Options given at construction
// are applied before per-call options.
type Client struct {
	llm      LLM
	defaults []Option
}

// NewClient creates a new LLM client
func NewClient(llm LLM, defaults ...Option) *Client {
	return &Client{llm: llm, defaults: defaults}
}

// Chat generates a response based on the conversation history
func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error) {
	if len(c.defaults) == 0 {
		return c.llm.Chat(ctx, messages, opts...)
	}
	all := make([]Option, 0, len(c.defaults)+len(opts))
	all = append(all, c.defaults...)
	all = append(all, opts...)
	return c.llm.Chat(ctx, messages, all...)
}

// ApplyOptions folds opts over base. Providers call it with their own
// defaults.
func ApplyOptions(base *ChatOptions, opts ...Option) *ChatOptions {
	for _, opt := range opts {
		opt(base)
	}
	return base
}
