package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/core"
)

// PgVectorStore keeps chunks in a single video_chunks table with a pgvector
// embedding column. The pool is shared across requests; each batch insert
// runs in its own transaction and no transaction stays open across an
// external model call.
type PgVectorStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPgVectorStore(ctx context.Context, cfg *config.Config) (*PgVectorStore, error) {
	pc, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, core.Store(fmt.Errorf("parse postgres url: %w", err))
	}
	pc.MaxConns = 10
	pc.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, core.Store(fmt.Errorf("create pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.Store(fmt.Errorf("ping postgres: %w", err))
	}

	s := &PgVectorStore{pool: pool, dim: cfg.EmbeddingDimension}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS video_chunks (
				id BIGSERIAL PRIMARY KEY,
				video_id VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				modality VARCHAR(16) NOT NULL,
				chunk_text TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				start_time DOUBLE PRECISION,
				end_time DOUBLE PRECISION,
				frame_path TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);`, s.dim),
		`CREATE INDEX IF NOT EXISTS idx_video_chunks_video_modality ON video_chunks(video_id, modality);`,
		`CREATE INDEX IF NOT EXISTS idx_video_chunks_embedding ON video_chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return core.Store(fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}

func (s *PgVectorStore) InsertBatch(ctx context.Context, video core.VideoMeta, chunks []core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return core.Store(fmt.Errorf("begin batch: %w", err))
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		var start, end *float64
		if c.TimeRange != nil {
			start, end = &c.TimeRange.Start, &c.TimeRange.End
		}
		var framePath *string
		if c.FramePath != "" {
			framePath = &c.FramePath
		}
		batch.Queue(
			`INSERT INTO video_chunks (video_id, description, modality, chunk_text, embedding, start_time, end_time, frame_path)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			video.VideoID, video.Description, string(c.Modality), c.Text,
			pgvector.NewVector(c.Embedding), start, end, framePath,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return core.Store(fmt.Errorf("insert chunk: %w", err))
		}
	}
	if err := br.Close(); err != nil {
		return core.Store(fmt.Errorf("close batch: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Store(fmt.Errorf("commit batch: %w", err))
	}
	return nil
}

func (s *PgVectorStore) Nearest(ctx context.Context, videoID string, modality core.Modality, query []float32, k int) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(query)

	rows, err := s.pool.Query(ctx, `
		SELECT video_id, description, chunk_text, start_time, end_time, frame_path,
		       embedding <=> $1 AS distance
		FROM video_chunks
		WHERE video_id = $2 AND modality = $3
		ORDER BY embedding <=> $1, start_time ASC NULLS LAST, id ASC
		LIMIT $4
	`, vec, videoID, string(modality), k)
	if err != nil {
		return nil, core.Store(fmt.Errorf("nearest query: %w", err))
	}
	defer rows.Close()

	var hits []core.ScoredChunk
	for rows.Next() {
		var (
			hit        core.ScoredChunk
			start, end *float64
			framePath  *string
		)
		if err := rows.Scan(&hit.VideoID, &hit.Description, &hit.Text, &start, &end, &framePath, &hit.Distance); err != nil {
			return nil, core.Store(fmt.Errorf("scan hit: %w", err))
		}
		hit.Modality = modality
		if start != nil && end != nil {
			hit.TimeRange = &core.TimeRange{Start: *start, End: *end}
		}
		if framePath != nil {
			hit.FramePath = *framePath
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Store(fmt.Errorf("nearest rows: %w", err))
	}
	return hits, nil
}

func (s *PgVectorStore) ListVideos(ctx context.Context) ([]core.VideoMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT video_id, description
		FROM video_chunks
		ORDER BY description ASC
	`)
	if err != nil {
		return nil, core.Store(fmt.Errorf("list videos: %w", err))
	}
	defer rows.Close()

	var videos []core.VideoMeta
	for rows.Next() {
		var v core.VideoMeta
		if err := rows.Scan(&v.VideoID, &v.Description); err != nil {
			return nil, core.Store(fmt.Errorf("scan video: %w", err))
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Store(fmt.Errorf("list rows: %w", err))
	}
	return videos, nil
}

func (s *PgVectorStore) DeleteVideo(ctx context.Context, videoID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM video_chunks WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, core.Store(fmt.Errorf("delete video %s: %w", videoID, err))
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgVectorStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
