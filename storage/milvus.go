package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// noTime marks an absent time range in Milvus scalar columns, which have no
// null representation.
const noTime = -1

// MilvusStore is the alternate vector backend, kept schema-compatible with
// the pgvector store at the ChunkStore boundary. Batch atomicity holds
// because embedding every chunk precedes the single Insert call: a failure
// anywhere earlier persists nothing.
type MilvusStore struct {
	mc   client.Client
	coll string
	dim  int
}

func NewMilvusStore(ctx context.Context, cfg *config.Config) (*MilvusStore, error) {
	mc, err := client.NewClient(ctx, client.Config{Address: cfg.MilvusAddr})
	if err != nil {
		return nil, core.Store(fmt.Errorf("connect milvus: %w", err))
	}
	s := &MilvusStore{mc: mc, coll: cfg.MilvusCollection, dim: cfg.EmbeddingDimension}
	if err := s.ensureCollection(ctx); err != nil {
		mc.Close()
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return core.Store(fmt.Errorf("check collection: %w", err))
	}
	if !has {
		schema := entity.NewSchema().WithName(s.coll)
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("video_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(255))
		schema.WithField(entity.NewField().WithName("description").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024))
		schema.WithField(entity.NewField().WithName("modality").WithDataType(entity.FieldTypeVarChar).WithMaxLength(16))
		schema.WithField(entity.NewField().WithName("chunk_text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096))
		schema.WithField(entity.NewField().WithName("start_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("end_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("frame_path").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))
		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return core.Store(fmt.Errorf("create collection: %w", err))
		}
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return core.Store(fmt.Errorf("new hnsw index: %w", err))
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return core.Store(fmt.Errorf("create index: %w", err))
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return core.Store(fmt.Errorf("load collection: %w", err))
	}
	return nil
}

func (s *MilvusStore) InsertBatch(ctx context.Context, video core.VideoMeta, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	n := len(chunks)
	videoIDs := make([]string, 0, n)
	descriptions := make([]string, 0, n)
	modalities := make([]string, 0, n)
	texts := make([]string, 0, n)
	starts := make([]float64, 0, n)
	ends := make([]float64, 0, n)
	framePaths := make([]string, 0, n)
	vectors := make([][]float32, 0, n)

	for _, c := range chunks {
		videoIDs = append(videoIDs, video.VideoID)
		descriptions = append(descriptions, video.Description)
		modalities = append(modalities, string(c.Modality))
		texts = append(texts, c.Text)
		if c.TimeRange != nil {
			starts = append(starts, c.TimeRange.Start)
			ends = append(ends, c.TimeRange.End)
		} else {
			starts = append(starts, noTime)
			ends = append(ends, noTime)
		}
		framePaths = append(framePaths, c.FramePath)
		vectors = append(vectors, c.Embedding)
	}

	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("video_id", videoIDs),
		entity.NewColumnVarChar("description", descriptions),
		entity.NewColumnVarChar("modality", modalities),
		entity.NewColumnVarChar("chunk_text", texts),
		entity.NewColumnDouble("start_time", starts),
		entity.NewColumnDouble("end_time", ends),
		entity.NewColumnVarChar("frame_path", framePaths),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return core.Store(fmt.Errorf("insert batch: %w", err))
	}
	return nil
}

func (s *MilvusStore) Nearest(ctx context.Context, videoID string, modality core.Modality, query []float32, k int) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	sp, err := entity.NewIndexHNSWSearchParam(74)
	if err != nil {
		return nil, core.Store(fmt.Errorf("search param: %w", err))
	}
	expr := fmt.Sprintf(`video_id == "%s" && modality == "%s"`, escapeExpr(videoID), modality)

	res, err := s.mc.Search(ctx, s.coll, []string{}, expr,
		[]string{"video_id", "description", "chunk_text", "start_time", "end_time", "frame_path"},
		[]entity.Vector{entity.FloatVector(query)}, "vector", entity.COSINE, k, sp)
	if err != nil {
		return nil, core.Store(fmt.Errorf("search: %w", err))
	}

	var hits []milvusHit
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			hit := milvusHit{id: idAt(r.IDs, i)}
			hit.Modality = modality
			hit.VideoID = varcharAt(cols, "video_id", i)
			hit.Description = varcharAt(cols, "description", i)
			hit.Text = varcharAt(cols, "chunk_text", i)
			hit.FramePath = varcharAt(cols, "frame_path", i)
			start := doubleAt(cols, "start_time", i)
			end := doubleAt(cols, "end_time", i)
			if start != noTime || end != noTime {
				hit.TimeRange = &core.TimeRange{Start: start, End: end}
			}
			// COSINE search scores are similarities in [-1, 1].
			hit.Distance = 1 - float64(r.Scores[i])
			hits = append(hits, hit)
		}
	}
	return orderHits(hits), nil
}

type milvusHit struct {
	core.ScoredChunk
	id int64
}

// orderHits enforces the retrieval contract's ordering, which the server
// does not guarantee for score ties: ascending distance, then time-range
// start, then primary key.
func orderHits(hits []milvusHit) []core.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		si, sj := startOf(hits[i].TimeRange), startOf(hits[j].TimeRange)
		if si != sj {
			return si < sj
		}
		return hits[i].id < hits[j].id
	})
	out := make([]core.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.ScoredChunk)
	}
	return out
}

func (s *MilvusStore) ListVideos(ctx context.Context) ([]core.VideoMeta, error) {
	rs, err := s.mc.Query(ctx, s.coll, []string{}, `video_id != ""`, []string{"video_id", "description"})
	if err != nil {
		return nil, core.Store(fmt.Errorf("query videos: %w", err))
	}

	cols := map[string]entity.Column{}
	for _, c := range rs {
		cols[c.Name()] = c
	}
	idCol, ok := cols["video_id"].(*entity.ColumnVarChar)
	if !ok {
		return nil, nil
	}
	descCol, _ := cols["description"].(*entity.ColumnVarChar)

	seen := map[core.VideoMeta]bool{}
	var videos []core.VideoMeta
	for i, id := range idCol.Data() {
		meta := core.VideoMeta{VideoID: id}
		if descCol != nil && i < len(descCol.Data()) {
			meta.Description = descCol.Data()[i]
		}
		if !seen[meta] {
			seen[meta] = true
			videos = append(videos, meta)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].Description < videos[j].Description })
	return videos, nil
}

func (s *MilvusStore) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	expr := fmt.Sprintf(`video_id == "%s"`, escapeExpr(videoID))
	rs, err := s.mc.Query(ctx, s.coll, []string{}, expr, []string{"video_id"})
	if err != nil {
		return 0, core.Store(fmt.Errorf("count video %s: %w", videoID, err))
	}
	count := 0
	for _, c := range rs {
		if c.Name() == "video_id" {
			count = c.Len()
		}
	}
	if err := s.mc.Delete(ctx, s.coll, "", expr); err != nil {
		return 0, core.Store(fmt.Errorf("delete video %s: %w", videoID, err))
	}
	return count, nil
}

func (s *MilvusStore) Close(ctx context.Context) error {
	return s.mc.Close()
}

func escapeExpr(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

func idAt(col entity.Column, i int) int64 {
	if c, ok := col.(*entity.ColumnInt64); ok {
		if data := c.Data(); i < len(data) {
			return data[i]
		}
	}
	return 0
}

func varcharAt(cols map[string]entity.Column, name string, i int) string {
	if c, ok := cols[name].(*entity.ColumnVarChar); ok {
		if data := c.Data(); i < len(data) {
			return data[i]
		}
	}
	return ""
}

func doubleAt(cols map[string]entity.Column, name string, i int) float64 {
	if c, ok := cols[name].(*entity.ColumnDouble); ok {
		if data := c.Data(); i < len(data) {
			return data[i]
		}
	}
	return noTime
}
