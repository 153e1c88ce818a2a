package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// EmbeddingProvider maps text to a fixed-dimension vector. Chunk text at
// ingestion and question text at query time go through the identical
// implementation; mixing models would make similarity scores meaningless.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

func NewOpenAIEmbedder(client *openai.Client, cfg *config.Config) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, model: cfg.EmbeddingModel, dim: cfg.EmbeddingDimension}
}

func (e *OpenAIEmbedder) Dimension() int { return e.dim }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(e.model),
		Input:      []string{text},
		Dimensions: e.dim,
	})
	if err != nil {
		return nil, core.Embedding(fmt.Errorf("embedding API: %w", err))
	}
	if len(resp.Data) == 0 {
		return nil, core.Embedding(fmt.Errorf("no embeddings returned for %d chars of input", len(text)))
	}
	vec := resp.Data[0].Embedding
	if len(vec) != e.dim {
		return nil, core.Embedding(fmt.Errorf("embedding dimension %d, want %d", len(vec), e.dim))
	}
	return vec, nil
}
