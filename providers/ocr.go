package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// OCRProvider recognizes on-screen text in one frame image. An empty string
// is a valid result for a frame with no text; errors are reserved for the
// recognizer itself failing.
type OCRProvider interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

const ocrPrompt = "Transcribe all text visible in this image. Return only the " +
	"recognized text fragments separated by spaces, with no commentary. " +
	"If there is no text, return an empty response."

// VisionOCR sends the frame to a vision-capable chat model as a base64 data
// URL and asks for a bare transcription of the visible text.
type VisionOCR struct {
	client *openai.Client
	model  string
}

func NewVisionOCR(client *openai.Client, cfg *config.Config) *VisionOCR {
	return &VisionOCR{client: client, model: cfg.VisionModel}
}

func (v *VisionOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", core.Recognition(fmt.Errorf("read frame %s: %w", imagePath, err))
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return "", core.Recognition(fmt.Errorf("recognize %s: %w", imagePath, err))
	}
	if len(resp.Choices) == 0 {
		return "", core.Recognition(fmt.Errorf("recognize %s: empty completion", imagePath))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
