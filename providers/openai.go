// Package providers holds the capability gateways: speech-to-text, OCR,
// embedding and generation. Each is a synchronous request/response boundary
// whose failures surface as typed errors, never as silent empty results.
package providers

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/Harshith24/rag-video/config"
)

// NewOpenAIClient builds the shared API client. All four gateways go through
// the same endpoint so the embedding space used at ingestion and at query
// time is guaranteed to be the same.
func NewOpenAIClient(cfg *config.Config) *openai.Client {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(cc)
}
