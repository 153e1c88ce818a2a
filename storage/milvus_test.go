package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshith24/rag-video/core"
)

func milvusTestHit(id int64, text string, distance float64, tr *core.TimeRange) milvusHit {
	h := milvusHit{id: id}
	h.Text = text
	h.Distance = distance
	h.TimeRange = tr
	return h
}

func TestOrderHitsByDistance(t *testing.T) {
	hits := orderHits([]milvusHit{
		milvusTestHit(1, "far", 0.8, &core.TimeRange{Start: 0, End: 10}),
		milvusTestHit(2, "near", 0.1, &core.TimeRange{Start: 20, End: 30}),
	})
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Text)
	assert.Equal(t, "far", hits[1].Text)
}

func TestOrderHitsTieBreaks(t *testing.T) {
	// Equal distances: earlier time range wins, then lower primary key;
	// a hit without a time range sorts after timed ones.
	hits := orderHits([]milvusHit{
		milvusTestHit(7, "untimed", 0.5, nil),
		milvusTestHit(5, "late", 0.5, &core.TimeRange{Start: 30, End: 40}),
		milvusTestHit(9, "early-high-id", 0.5, &core.TimeRange{Start: 0, End: 10}),
		milvusTestHit(3, "early-low-id", 0.5, &core.TimeRange{Start: 0, End: 10}),
	})
	require.Len(t, hits, 4)
	assert.Equal(t, "early-low-id", hits[0].Text)
	assert.Equal(t, "early-high-id", hits[1].Text)
	assert.Equal(t, "late", hits[2].Text)
	assert.Equal(t, "untimed", hits[3].Text)
}
