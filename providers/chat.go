package providers

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// ChatProvider turns a fully assembled grounded prompt into answer text.
type ChatProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type OpenAIChat struct {
	client *openai.Client
	model  string
}

func NewOpenAIChat(client *openai.Client, cfg *config.Config) *OpenAIChat {
	return &OpenAIChat{client: client, model: cfg.ChatModel}
}

func (c *OpenAIChat) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return "", core.Generation(fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", core.Generation(fmt.Errorf("chat completion returned no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
