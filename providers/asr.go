package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// ASRProvider transcribes a normalized audio file into ordered, timestamped
// speech segments. Zero segments is a valid result for silent audio.
type ASRProvider interface {
	Transcribe(ctx context.Context, audioPath string) ([]core.Segment, error)
}

// WhisperASR runs speech-to-text through the audio transcription endpoint
// with verbose JSON output so segment timestamps are preserved.
type WhisperASR struct {
	client *openai.Client
	model  string
}

func NewWhisperASR(client *openai.Client, cfg *config.Config) *WhisperASR {
	return &WhisperASR{client: client, model: cfg.TranscribeModel}
}

func (w *WhisperASR) Transcribe(ctx context.Context, audioPath string) ([]core.Segment, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, core.Transcription(fmt.Errorf("transcribe %s: %w", audioPath, err))
	}

	segs := make([]core.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segs = append(segs, core.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return segs, nil
}
