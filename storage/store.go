// Package storage persists embedded chunks and serves nearest-neighbor
// retrieval over them. Three backends implement the same contract: pgvector
// (primary), Milvus, and an in-process memory store for tests and local runs.
package storage

import (
	"context"
	"fmt"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// ChunkStore is the sole owner of persisted chunks.
//
// InsertBatch persists all chunks of one ingestion run atomically: either
// every chunk becomes visible to subsequent queries or none do.
//
// Nearest returns the k chunks of one modality for one video ordered by
// ascending cosine distance to the query vector, ties broken by time-range
// start then insertion order. Asking for more chunks than exist returns
// what exists.
//
// ListVideos returns the distinct (video id, description) pairs ordered by
// description.
type ChunkStore interface {
	InsertBatch(ctx context.Context, video core.VideoMeta, chunks []core.Chunk) error
	Nearest(ctx context.Context, videoID string, modality core.Modality, query []float32, k int) ([]core.ScoredChunk, error)
	ListVideos(ctx context.Context) ([]core.VideoMeta, error)
	DeleteVideo(ctx context.Context, videoID string) (int, error)
	Close(ctx context.Context) error
}

// Open constructs the backend named by the config. There is no fallback
// chain: a store that cannot be reached is an error, not a silent downgrade.
func Open(ctx context.Context, cfg *config.Config) (ChunkStore, error) {
	switch cfg.Store {
	case "pgvector":
		return NewPgVectorStore(ctx, cfg)
	case "milvus":
		return NewMilvusStore(ctx, cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
