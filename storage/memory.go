package storage

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/Harshith24/rag-video/core"
)

// MemoryStore holds chunks in process memory with exact cosine distance
// scans. It exists for tests and dependency-free local runs and is chosen
// explicitly through configuration, never as a fallback.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []memChunk
}

type memChunk struct {
	core.Chunk
	seq int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertBatch(ctx context.Context, video core.VideoMeta, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// The full batch is appended under one critical section, so readers
	// either see all of it or none of it.
	for _, c := range chunks {
		c.VideoID = video.VideoID
		c.Description = video.Description
		s.chunks = append(s.chunks, memChunk{Chunk: c, seq: len(s.chunks)})
	}
	return nil
}

func (s *MemoryStore) Nearest(ctx context.Context, videoID string, modality core.Modality, query []float32, k int) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		memChunk
		distance float64
	}
	var candidates []scored
	for _, c := range s.chunks {
		if c.VideoID != videoID || c.Modality != modality {
			continue
		}
		candidates = append(candidates, scored{memChunk: c, distance: cosineDistance(query, c.Embedding)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		si, sj := startOf(candidates[i].TimeRange), startOf(candidates[j].TimeRange)
		if si != sj {
			return si < sj
		}
		return candidates[i].seq < candidates[j].seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]core.ScoredChunk, 0, k)
	for _, c := range candidates[:k] {
		hits = append(hits, core.ScoredChunk{Chunk: c.Chunk, Distance: c.distance})
	}
	return hits, nil
}

func (s *MemoryStore) ListVideos(ctx context.Context) ([]core.VideoMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[core.VideoMeta]bool{}
	var videos []core.VideoMeta
	for _, c := range s.chunks {
		meta := core.VideoMeta{VideoID: c.VideoID, Description: c.Description}
		if !seen[meta] {
			seen[meta] = true
			videos = append(videos, meta)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].Description < videos[j].Description })
	return videos, nil
}

func (s *MemoryStore) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.VideoID == videoID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func startOf(tr *core.TimeRange) float64 {
	if tr == nil {
		return math.Inf(1)
	}
	return tr.Start
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
