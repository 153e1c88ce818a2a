// Package rag answers natural-language questions about one ingested video by
// retrieving the nearest chunks per modality and grounding a generation call
// in them. Every call is stateless; no conversation state survives a request.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshith24/rag-video/core"
	"github.com/Harshith24/rag-video/logger"
	"github.com/Harshith24/rag-video/providers"
	"github.com/Harshith24/rag-video/storage"
)

// DefaultTopK is the per-modality retrieval depth when the caller does not
// ask for one.
const DefaultTopK = 8

// NoContentAnswer is the defined response for an empty retrieval. It is not
// an error and no generation call is made to produce it.
const NoContentAnswer = "No relevant content found for this video."

type Composer struct {
	emb   providers.EmbeddingProvider
	store storage.ChunkStore
	chat  providers.ChatProvider
	log   *logger.Logger
}

func NewComposer(emb providers.EmbeddingProvider, store storage.ChunkStore, chat providers.ChatProvider, log *logger.Logger) *Composer {
	return &Composer{emb: emb, store: store, chat: chat, log: log}
}

// Source is the provenance record for one chunk used in an answer.
type Source struct {
	Text       string          `json:"text"`
	Similarity float64         `json:"similarity"`
	Modality   core.Modality   `json:"modality"`
	TimeRange  *core.TimeRange `json:"time_range,omitempty"`
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Answer retrieves the top kAudio audio and kVisual visual chunks for the
// video independently, never merging the modalities into one ranked list,
// and grounds a generation call in them.
//
// When generation fails the retrieved sources are still returned alongside
// the typed error, so callers can serve a degraded response.
func (c *Composer) Answer(ctx context.Context, question, videoID string, kAudio, kVisual int) (*Answer, error) {
	if kAudio <= 0 {
		kAudio = DefaultTopK
	}
	if kVisual <= 0 {
		kVisual = DefaultTopK
	}

	queryVec, err := c.emb.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	audioHits, err := c.store.Nearest(ctx, videoID, core.ModalityAudio, queryVec, kAudio)
	if err != nil {
		return nil, err
	}
	visualHits, err := c.store.Nearest(ctx, videoID, core.ModalityVisual, queryVec, kVisual)
	if err != nil {
		return nil, err
	}

	if len(audioHits) == 0 && len(visualHits) == 0 {
		c.log.Info("empty retrieval", "video_id", videoID)
		return &Answer{Answer: NoContentAnswer, Sources: []Source{}}, nil
	}

	sources := make([]Source, 0, len(audioHits)+len(visualHits))
	for _, hit := range audioHits {
		sources = append(sources, sourceFromHit(hit))
	}
	for _, hit := range visualHits {
		sources = append(sources, sourceFromHit(hit))
	}

	prompt := buildPrompt(question, audioHits, visualHits)
	c.log.Debug("grounded prompt assembled", "video_id", videoID,
		"audio_hits", len(audioHits), "visual_hits", len(visualHits), "prompt_chars", len(prompt))

	text, err := c.chat.Generate(ctx, prompt)
	if err != nil {
		return &Answer{Sources: sources}, err
	}
	return &Answer{Answer: strings.TrimSpace(text), Sources: sources}, nil
}

func sourceFromHit(hit core.ScoredChunk) Source {
	return Source{
		Text:       hit.Text,
		Similarity: hit.Similarity(),
		Modality:   hit.Modality,
		TimeRange:  hit.TimeRange,
	}
}

// buildPrompt lays out the retrieved chunks as labeled evidence blocks, in
// retrieval order within each modality, followed by the question.
func buildPrompt(question string, audioHits, visualHits []core.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("You are an expert at answering questions about video content.\n")
	b.WriteString("Use ONLY the provided evidence from the video's spoken transcript and on-screen text. ")
	b.WriteString("Be accurate, concise, and reference timestamps when relevant.\n\n")

	writeBlock := func(label string, hits []core.ScoredChunk) {
		for i, hit := range hits {
			b.WriteString(fmt.Sprintf("[%s %d]", label, i+1))
			if hit.TimeRange != nil {
				b.WriteString(fmt.Sprintf(" (%.1f-%.1fs)", hit.TimeRange.Start, hit.TimeRange.End))
			}
			b.WriteString("\n")
			b.WriteString(hit.Text)
			b.WriteString("\n\n")
		}
	}
	writeBlock("Audio", audioHits)
	writeBlock("Visual OCR", visualHits)

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
