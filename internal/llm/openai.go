package llm

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the gateway boundary to the completion service. The core
// sends a system prompt and a user prompt and gets back a completion
// string or an error; nothing else about the service leaks inward.
// Implementations make exactly one attempt per call; retries and
// timeouts are the caller's business via ctx.
type Client interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// OpenAIClient calls the OpenAI chat completion API. API credentials
// and the model name are loaded from environment variables.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed gateway client. It reads
// the API key and model name from the environment and falls back to a
// sensible default model.
func NewOpenAIClient() *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	c := openai.NewClient(apiKey)

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		// default to a modern small model; can be overridden via env
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{
		client: c,
		model:  model,
	}
}

// Complete sends the system and user prompts to the chat completion API
// and returns the assistant's response.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
