package store

import (
	"context"
	"fmt"

	"rag/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DBStorer is the vector store boundary the handlers work against.
type DBStorer interface {
	InsertChunks(ctx context.Context, chunks []types.Chunk) error
	SearchNearest(ctx context.Context, embedding []float32, k int) ([]types.ScoredChunk, error)
	ListChunks(ctx context.Context) ([]types.ChunkSummary, error)
	ListSources(ctx context.Context) ([]types.SourceSummary, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
		dim:  dim,
	}, nil
}

// InsertChunks writes all chunks in one transaction. Either every chunk of
// an ingestion lands or none of them do.
func (p *PostgresStore) InsertChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO chunks (content, source, embedding) VALUES ($1, $2, $3)`,
			c.Content, c.Source, pgvector.NewVector(c.Embedding),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close insert batch: %w", err)
	}

	return tx.Commit(ctx)
}

// SearchNearest returns the k chunks closest to the query embedding under
// cosine distance. The secondary order on id keeps ties deterministic in
// insertion order. Fewer than k stored chunks returns all of them.
func (p *PostgresStore) SearchNearest(ctx context.Context, embedding []float32, k int) ([]types.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	query := `
		SELECT id, content, source, created_at, 1 - (embedding <=> $1) AS similarity
		FROM chunks
		ORDER BY embedding <=> $1, id
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.ScoredChunk
	for rows.Next() {
		var c types.ScoredChunk
		if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.CreatedAt, &c.Similarity); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListChunks returns every stored chunk in insertion order, chunk-granular.
func (p *PostgresStore) ListChunks(ctx context.Context) ([]types.ChunkSummary, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, source, content FROM chunks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []types.ChunkSummary
	for rows.Next() {
		var (
			s       types.ChunkSummary
			content string
		)
		if err := rows.Scan(&s.ID, &s.Source, &content); err != nil {
			return nil, err
		}
		s.ContentPreview = types.Preview(content)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListSources returns one entry per distinct source with a preview of that
// source's first-inserted chunk.
func (p *PostgresStore) ListSources(ctx context.Context) ([]types.SourceSummary, error) {
	query := `
		SELECT DISTINCT ON (source) source, content
		FROM chunks
		ORDER BY source, id
	`
	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []types.SourceSummary
	for rows.Next() {
		var (
			s       types.SourceSummary
			content string
		)
		if err := rows.Scan(&s.Source, &content); err != nil {
			return nil, err
		}
		s.ContentPreview = types.Preview(content)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteBySource removes every chunk whose source matches exactly. Deleting
// a source that does not exist removes zero rows and is not an error.
func (p *PostgresStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	ct, err := p.pool.Exec(ctx, `DELETE FROM chunks WHERE source = $1`, source)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS chunks (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		source TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	`, p.dim)

	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

var _ DBStorer = (*PostgresStore)(nil)
