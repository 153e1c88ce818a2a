package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshith24/rag-video/core"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.InsertBatch(context.Background(), core.VideoMeta{VideoID: "vid1", Description: "demo"}, []core.Chunk{
		{Modality: core.ModalityAudio, Text: "the sky is blue", Embedding: []float32{1, 0, 0},
			TimeRange: &core.TimeRange{Start: 0, End: 10}},
		{Modality: core.ModalityAudio, Text: "grass is green", Embedding: []float32{0, 1, 0},
			TimeRange: &core.TimeRange{Start: 10, End: 20}},
		{Modality: core.ModalityVisual, Text: "SALE 50% OFF", Embedding: []float32{0.9, 0.1, 0},
			TimeRange: &core.TimeRange{Start: 0, End: 10}},
	})
	require.NoError(t, err)
	return s
}

func TestNearestOrdersByDistance(t *testing.T) {
	s := seedStore(t)

	hits, err := s.Nearest(context.Background(), "vid1", core.ModalityAudio, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "the sky is blue", hits[0].Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-9)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
}

func TestNearestFiltersModalityAndVideo(t *testing.T) {
	s := seedStore(t)

	hits, err := s.Nearest(context.Background(), "vid1", core.ModalityVisual, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "SALE 50% OFF", hits[0].Text)

	hits, err = s.Nearest(context.Background(), "nosuch", core.ModalityAudio, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNearestCapsAtCorpusSize(t *testing.T) {
	s := seedStore(t)
	hits, err := s.Nearest(context.Background(), "vid1", core.ModalityAudio, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestNearestTieBreaksByStartTime(t *testing.T) {
	s := NewMemoryStore()
	// Identical embeddings, distinct time ranges, inserted out of order.
	err := s.InsertBatch(context.Background(), core.VideoMeta{VideoID: "v", Description: "d"}, []core.Chunk{
		{Modality: core.ModalityAudio, Text: "later", Embedding: []float32{1, 0, 0},
			TimeRange: &core.TimeRange{Start: 30, End: 40}},
		{Modality: core.ModalityAudio, Text: "earlier", Embedding: []float32{1, 0, 0},
			TimeRange: &core.TimeRange{Start: 0, End: 10}},
	})
	require.NoError(t, err)

	hits, err := s.Nearest(context.Background(), "v", core.ModalityAudio, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "earlier", hits[0].Text)
	assert.Equal(t, "later", hits[1].Text)
}

func TestListAndDeleteVideos(t *testing.T) {
	s := seedStore(t)
	err := s.InsertBatch(context.Background(), core.VideoMeta{VideoID: "vid2", Description: "another"}, []core.Chunk{
		{Modality: core.ModalityAudio, Text: "x", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	videos, err := s.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)
	// Sorted by description.
	assert.Equal(t, "another", videos[0].Description)
	assert.Equal(t, "demo", videos[1].Description)

	removed, err := s.DeleteVideo(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	videos, err = s.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "vid2", videos[0].VideoID)

	removed, err = s.DeleteVideo(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	// Zero vectors are maximally distant, not NaN.
	assert.Equal(t, 1.0, cosineDistance([]float32{0, 0}, []float32{1, 0}))
}
