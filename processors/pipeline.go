package processors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Harshith24/rag-video/core"
	"github.com/Harshith24/rag-video/logger"
	"github.com/Harshith24/rag-video/providers"
	"github.com/Harshith24/rag-video/storage"
)

// ocrWorkers bounds the parallel per-frame OCR+embedding producers. The
// chunk store still receives one atomic batch regardless of worker count.
const ocrWorkers = 4

// Pipeline runs one ingestion end to end: preprocess, transcribe, segment,
// recognize, embed, persist. Every handle it needs is passed in at
// construction; there is no process-wide state.
type Pipeline struct {
	pre   Preprocessor
	asr   providers.ASRProvider
	ocr   providers.OCRProvider
	emb   providers.EmbeddingProvider
	store storage.ChunkStore
	log   *logger.Logger

	dataRoot     string
	interval     float64
	chunkSize    int
	chunkOverlap int

	locks keyedLocks
}

type PipelineParams struct {
	Preprocessor Preprocessor
	ASR          providers.ASRProvider
	OCR          providers.OCRProvider
	Embedder     providers.EmbeddingProvider
	Store        storage.ChunkStore
	Log          *logger.Logger
	DataRoot     string
	Interval     float64
	ChunkSize    int
	ChunkOverlap int
}

func NewPipeline(p PipelineParams) *Pipeline {
	return &Pipeline{
		pre:          p.Preprocessor,
		asr:          p.ASR,
		ocr:          p.OCR,
		emb:          p.Embedder,
		store:        p.Store,
		log:          p.Log,
		dataRoot:     p.DataRoot,
		interval:     p.Interval,
		chunkSize:    p.ChunkSize,
		chunkOverlap: p.ChunkOverlap,
	}
}

// IngestResult reports what one successful ingestion persisted.
type IngestResult struct {
	VideoID      string `json:"video_id"`
	Description  string `json:"video_description"`
	AudioChunks  int    `json:"audio_chunk_count"`
	VisualChunks int    `json:"visual_chunk_count"`
}

// Ingest processes one video URL into an atomic batch of embedded chunks.
// Any sub-step failure aborts the request, leaves the store untouched and
// removes every temporary artifact; frame images are kept only when the
// batch commits, because persisted visual chunks reference them.
//
// Concurrent ingestion of the same video id is serialized; running it
// unserialized would duplicate chunks.
func (p *Pipeline) Ingest(ctx context.Context, url, description string) (*IngestResult, error) {
	videoID := core.VideoIDFromURL(url)
	if description == "" {
		description = url
	}
	log := p.log.With("video_id", videoID)

	unlock := p.locks.lock(videoID)
	defer unlock()

	workDir := filepath.Join(p.dataRoot, "tmp", videoID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, core.Acquisition(fmt.Errorf("create workspace: %w", err))
	}
	defer os.RemoveAll(workDir)

	log.Info("preprocessing media", "url", url, "interval_sec", p.interval)
	media, err := p.pre.Prepare(ctx, url, workDir, p.interval)
	if err != nil {
		return nil, err
	}
	log.Info("media ready", "duration_sec", media.Duration, "frames", len(media.Frames), "has_audio", media.HasAudio)

	audioChunks, err := p.buildAudioChunks(ctx, videoID, description, media)
	if err != nil {
		return nil, err
	}

	framesDir := filepath.Join(p.dataRoot, "frames", videoID)
	visualChunks, err := p.buildVisualChunks(ctx, videoID, description, media.Frames, framesDir)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		VideoID:      videoID,
		Description:  description,
		AudioChunks:  len(audioChunks),
		VisualChunks: len(visualChunks),
	}
	batch := append(audioChunks, visualChunks...)
	if len(batch) == 0 {
		log.Warn("nothing to persist", "url", url)
		return result, nil
	}

	// Frame images move out of the workspace before the batch commits so
	// the persisted frame paths resolve. A failed commit removes them again.
	if len(visualChunks) > 0 {
		if err := promoteFrames(workDir, framesDir); err != nil {
			return nil, core.Acquisition(fmt.Errorf("keep frame images: %w", err))
		}
	}
	meta := core.VideoMeta{VideoID: videoID, Description: description}
	if err := p.store.InsertBatch(ctx, meta, batch); err != nil {
		os.RemoveAll(framesDir)
		return nil, err
	}

	log.Info("ingestion committed", "audio_chunks", result.AudioChunks, "visual_chunks", result.VisualChunks)
	return result, nil
}

func (p *Pipeline) buildAudioChunks(ctx context.Context, videoID, description string, media *core.Media) ([]core.Chunk, error) {
	if !media.HasAudio || media.AudioPath == "" {
		return nil, nil
	}
	segments, err := p.asr.Transcribe(ctx, media.AudioPath)
	if err != nil {
		return nil, err
	}
	p.log.Debug("transcription done", "video_id", videoID, "segments", len(segments))

	parts := SplitTranscript(segments, p.chunkSize, p.chunkOverlap)
	chunks := make([]core.Chunk, 0, len(parts))
	for _, part := range parts {
		vec, err := p.emb.Embed(ctx, part.Text)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, core.Chunk{
			VideoID:     videoID,
			Description: description,
			Modality:    core.ModalityAudio,
			Text:        part.Text,
			Embedding:   vec,
			TimeRange:   &core.TimeRange{Start: part.Start, End: part.End},
		})
	}
	return chunks, nil
}

// buildVisualChunks runs OCR and embedding per frame with bounded parallel
// workers. Results land in frame order so chunk ordering follows media time.
func (p *Pipeline) buildVisualChunks(ctx context.Context, videoID, description string, frames []core.Frame, framesDir string) ([]core.Chunk, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	chunks := make([]core.Chunk, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ocrWorkers)

	for i, frame := range frames {
		i, frame := i, frame
		g.Go(func() error {
			recognized, err := p.ocr.Recognize(gctx, frame.Path)
			if err != nil {
				return err
			}
			text := BuildVisualText(frame.TimestampSec, recognized)
			vec, err := p.emb.Embed(gctx, text)
			if err != nil {
				return err
			}
			chunks[i] = core.Chunk{
				VideoID:     videoID,
				Description: description,
				Modality:    core.ModalityVisual,
				Text:        text,
				Embedding:   vec,
				TimeRange:   &core.TimeRange{Start: frame.TimestampSec, End: frame.TimestampSec + p.interval},
				FramePath:   filepath.Join(framesDir, filepath.Base(frame.Path)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func promoteFrames(workDir, framesDir string) error {
	if err := os.RemoveAll(framesDir); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(framesDir), 0755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(workDir, "frames"), framesDir)
}

// keyedLocks serializes work per key. Entries are never evicted; the map is
// bounded by the number of distinct video ids seen by this process.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
