package types

import (
	"os"
	"strconv"
	"time"
)

// Chunk is the atomic unit of storage and retrieval: a bounded slice of a
// source document together with its embedding vector.
type Chunk struct {
	ID        int64
	Content   string
	Source    string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredChunk is a retrieval result with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// ChunkSummary is the chunk-granular listing entry returned by GET /documents.
type ChunkSummary struct {
	ID             int64  `json:"id"`
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

// SourceSummary is one entry per distinct source, carrying a preview of the
// first chunk that was ingested under that source.
type SourceSummary struct {
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

const previewLen = 100

// Preview shortens chunk content for listings.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen]) + "..."
}

type Config struct {
	ServerAddr string

	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	EmbeddingProvider string
	EmbeddingURL      string
	EmbeddingModel    string
	EmbeddingDim      int

	LLMProvider string
	LLMURL      string
	LLMModel    string
	LLMAPIKey   string

	ProviderTimeout  time.Duration
	ProviderRetries  uint64
	MaxContextTokens int
}

// ConfigFromEnv builds the runtime configuration from environment variables,
// falling back to the defaults the service was tuned with.
func ConfigFromEnv() Config {
	return Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),

		PGHost:   getEnv("PG_HOST", "localhost"),
		PGPort:   getEnvInt("PG_PORT", 5432),
		PGUser:   getEnv("PG_USER", "postgres"),
		PGPass:   getEnv("PG_PASS", "postgres"),
		PGDBName: getEnv("PG_DB_NAME", "ragdb"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 150),
		TopK:         getEnvInt("TOP_K", 5),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingURL:      getEnv("EMBEDDING_URL", "http://localhost:11434/api/embeddings"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDim:      getEnvInt("EMBEDDING_DIM", 768),

		LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
		LLMURL:      getEnv("LLM_URL", "http://localhost:11434/api/generate"),
		LLMModel:    getEnv("LLM_MODEL", "llama3"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),

		ProviderTimeout:  time.Duration(getEnvInt("PROVIDER_TIMEOUT_SEC", 60)) * time.Second,
		ProviderRetries:  uint64(getEnvInt("PROVIDER_RETRIES", 3)),
		MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 3000),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
