package core

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Modality identifies which track of the source video a chunk was derived from.
type Modality string

const (
	ModalityAudio  Modality = "audio"
	ModalityVisual Modality = "visual"
)

// TimeRange is a window [Start, End] in seconds from video start.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Chunk is the atomic retrievable unit: one embedded piece of text derived
// from a single modality of one video. Chunks are immutable once persisted.
type Chunk struct {
	VideoID     string     `json:"video_id"`
	Description string     `json:"description"`
	Modality    Modality   `json:"modality"`
	Text        string     `json:"text"`
	Embedding   []float32  `json:"-"`
	TimeRange   *TimeRange `json:"time_range,omitempty"`
	// FramePath references the source frame image. Set for visual chunks
	// only; audio chunks never carry it.
	FramePath string `json:"frame_path,omitempty"`
}

// ScoredChunk is a chunk returned from nearest-neighbor retrieval together
// with its cosine distance to the query vector.
type ScoredChunk struct {
	Chunk
	Distance float64 `json:"distance"`
}

// Similarity maps cosine distance to a displayed score in [0, 1].
// Cosine distance can exceed 1 for anti-correlated vectors, so the value is
// clamped rather than left to go negative.
func (s ScoredChunk) Similarity() float64 {
	sim := 1 - s.Distance
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// VideoMeta identifies one ingested video.
type VideoMeta struct {
	VideoID     string `json:"video_id"`
	Description string `json:"description"`
}

// Segment is one timestamped piece of speech-to-text output.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Frame is one still image sampled from the video at a fixed interval.
type Frame struct {
	TimestampSec float64 `json:"timestamp_sec"`
	Path         string  `json:"path"`
}

// Media is the preprocessed form of a video: a normalized audio track plus
// an ordered sequence of sampled frames.
type Media struct {
	VideoPath string  `json:"video_path"`
	AudioPath string  `json:"audio_path"`
	Frames    []Frame `json:"frames"`
	Duration  float64 `json:"duration"`
	HasAudio  bool    `json:"has_audio"`
}

// VideoIDFromURL derives a stable video identifier from the source URL.
// YouTube URLs reuse the watch id; anything else gets an opaque generated id.
func VideoIDFromURL(rawURL string) string {
	if strings.Contains(rawURL, "youtube") || strings.Contains(rawURL, "youtu.be") {
		if u, err := url.Parse(rawURL); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
			if p := strings.Trim(u.Path, "/"); p != "" && !strings.Contains(p, "/") {
				return p
			}
		}
	}
	return fmt.Sprintf("video_%s", uuid.NewString()[:8])
}
