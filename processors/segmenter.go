package processors

import (
	"fmt"
	"strings"

	"github.com/Harshith24/rag-video/core"
)

// TranscriptChunk is an audio chunk candidate: text plus the time span of
// the speech segments it contains. Embeddings are assigned later.
type TranscriptChunk struct {
	Text  string
	Start float64
	End   float64
}

// SplitTranscript renders speech segments as "[start-end s]: text" lines and
// splits them with a size-bounded greedy splitter: accumulate lines until
// adding the next would exceed size, then cut, carrying the last overlap
// characters of the finished chunk into the next one for cross-boundary
// context. Every produced chunk satisfies len(text) <= size+overlap.
//
// The carried overlap is context only: each chunk's time range covers just
// the segments whose lines it contains. Zero input segments produce zero
// chunks; a silent video is not an error.
func SplitTranscript(segments []core.Segment, size, overlap int) []TranscriptChunk {
	type piece struct {
		text       string
		start, end float64
	}

	var pieces []piece
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		line := fmt.Sprintf("[%.1f-%.1fs]: %s", seg.Start, seg.End, text)
		// A single line longer than the chunk size is hard-split; each
		// slice keeps the segment's time range.
		for len(line) > size {
			pieces = append(pieces, piece{text: line[:size], start: seg.Start, end: seg.End})
			line = line[size:]
		}
		pieces = append(pieces, piece{text: line, start: seg.Start, end: seg.End})
	}
	if len(pieces) == 0 {
		return nil
	}

	var chunks []TranscriptChunk
	carried := ""
	content := ""
	curStart, curEnd := -1.0, -1.0

	emit := func() {
		if content == "" {
			return
		}
		text := carried + content
		chunks = append(chunks, TranscriptChunk{Text: text, Start: curStart, End: curEnd})
		if overlap > 0 && len(text) > overlap {
			carried = text[len(text)-overlap:]
		} else if overlap > 0 {
			carried = text
		}
		content = ""
		curStart, curEnd = -1, -1
	}

	for _, p := range pieces {
		if content != "" && len(content)+1+len(p.text) > size {
			emit()
		}
		if content != "" {
			content += "\n"
		}
		content += p.text
		if curStart < 0 || p.start < curStart {
			curStart = p.start
		}
		if p.end > curEnd {
			curEnd = p.end
		}
	}
	emit()
	return chunks
}
