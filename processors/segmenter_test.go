package processors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshith24/rag-video/core"
)

func TestSplitTranscriptEmpty(t *testing.T) {
	assert.Nil(t, SplitTranscript(nil, 2000, 20))
	assert.Nil(t, SplitTranscript([]core.Segment{{Start: 0, End: 2, Text: "   "}}, 2000, 20))
}

func TestSplitTranscriptSingleChunk(t *testing.T) {
	segments := []core.Segment{
		{Start: 0, End: 4.5, Text: "hello there"},
		{Start: 4.5, End: 9, Text: "general kenobi"},
	}
	chunks := SplitTranscript(segments, 2000, 20)
	require.Len(t, chunks, 1)
	assert.Equal(t, "[0.0-4.5s]: hello there\n[4.5-9.0s]: general kenobi", chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 9.0, chunks[0].End)
}

func TestSplitTranscriptSizeBound(t *testing.T) {
	const size, overlap = 120, 20
	var segments []core.Segment
	for i := 0; i < 40; i++ {
		segments = append(segments, core.Segment{
			Start: float64(i) * 3,
			End:   float64(i+1) * 3,
			Text:  fmt.Sprintf("segment %d with some spoken words", i),
		})
	}
	chunks := SplitTranscript(segments, size, overlap)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), size+overlap, "chunk %d exceeds bound", i)
		assert.NotEmpty(t, ch.Text)
	}
}

func TestSplitTranscriptOverlapCarried(t *testing.T) {
	const size, overlap = 60, 10
	segments := []core.Segment{
		{Start: 0, End: 5, Text: strings.Repeat("a", 40)},
		{Start: 5, End: 10, Text: strings.Repeat("b", 40)},
	}
	chunks := SplitTranscript(segments, size, overlap)
	require.Len(t, chunks, 2)

	// The second chunk opens with the tail of the first one.
	carried := chunks[0].Text[len(chunks[0].Text)-overlap:]
	assert.True(t, strings.HasPrefix(chunks[1].Text, carried))

	// Carried context does not stretch the time range.
	assert.Equal(t, 5.0, chunks[1].Start)
	assert.Equal(t, 10.0, chunks[1].End)
}

func TestSplitTranscriptZeroOverlap(t *testing.T) {
	segments := []core.Segment{
		{Start: 0, End: 5, Text: strings.Repeat("a", 40)},
		{Start: 5, End: 10, Text: strings.Repeat("b", 40)},
	}
	chunks := SplitTranscript(segments, 60, 0)
	require.Len(t, chunks, 2)
	assert.False(t, strings.Contains(chunks[1].Text, "a"))
}

func TestSplitTranscriptOversizedLine(t *testing.T) {
	const size, overlap = 50, 5
	segments := []core.Segment{
		{Start: 0, End: 30, Text: strings.Repeat("x", 200)},
	}
	chunks := SplitTranscript(segments, size, overlap)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), size+overlap)
		assert.Equal(t, 0.0, ch.Start)
		assert.Equal(t, 30.0, ch.End)
	}
	// Concatenating chunks minus carried overlap reconstructs the line.
	var rebuilt strings.Builder
	for i, ch := range chunks {
		text := ch.Text
		if i > 0 {
			text = text[overlap:]
		}
		rebuilt.WriteString(strings.ReplaceAll(text, "\n", ""))
	}
	assert.Contains(t, rebuilt.String(), strings.Repeat("x", 200))
}

func TestBuildVisualText(t *testing.T) {
	assert.Equal(t, "[Frame at 30s]\nOCR text: SALE 50% OFF", BuildVisualText(30, " SALE 50% OFF "))
	assert.Equal(t, "[Frame at 12.5s]\nOCR text: (no on-screen text detected)", BuildVisualText(12.5, "   "))
}
