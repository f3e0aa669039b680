package aianthropic

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const jsonInstruction = "Respond with a single JSON object and nothing else."

// AnthropicProvider implements the LLM interface for Claude models
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
	maxTokens    int
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, opts ...option.RequestOption) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)

	return &AnthropicProvider{
		client:       anthropic.NewClient(options...),
		defaultModel: "claude-3-7-sonnet-latest",
		maxTokens:    1024,
	}
}

// Chat implements the LLM interface
func (p *AnthropicProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := llm.DefaultOptions()
	options.Model = p.defaultModel
	options.MaxTokens = p.maxTokens
	llm.ApplyOptions(options, opts...)

	system, conversation := llm.SplitSystem(messages)
	if len(conversation) == 0 {
		return llm.Response{}, errors.New("anthropic: conversation has no user or assistant messages")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(conversation)),
	}

	for _, msg := range conversation {
		switch msg.Role {
		case llm.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return llm.Response{}, errors.New("unsupported role: " + msg.Role)
		}
	}

	// Claude has no JSON response format; ask for it in the system prompt
	if options.JSONMode || (options.ResponseFormat != nil && options.ResponseFormat.Type == llm.JSONObject) {
		system = append(system, jsonInstruction)
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}

	if options.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(options.Temperature))
	}
	if len(options.Stop) > 0 {
		params.StopSequences = options.Stop
	}
	if options.User != "" {
		params.Metadata = anthropic.MetadataParam{UserID: anthropic.String(options.User)}
	}

	requestOpts := make([]option.RequestOption, 0, len(options.Headers))
	for k, v := range options.Headers {
		requestOpts = append(requestOpts, option.WithHeader(k, v))
	}

	resp, err := p.client.Messages.New(ctx, params, requestOpts...)
	if err != nil {
		return llm.Response{}, err
	}

	return convertFromAnthropicResponse(resp), nil
}

func convertFromAnthropicResponse(resp *anthropic.Message) llm.Response {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	input := int(resp.Usage.InputTokens)
	output := int(resp.Usage.OutputTokens)

	return llm.Response{
		Message: llm.NewAssistantMessage(text.String()),
		Usage: llm.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}
}
