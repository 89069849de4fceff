package api

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"

	"rag/chunker"
	"rag/extract"
	"rag/model"
	"rag/store"
	"rag/types"

	"github.com/gofiber/fiber/v2"
)

type IngestHandler struct {
	store    store.DBStorer
	embedder model.Embedder
	cfg      types.Config
	logger   *slog.Logger
}

func NewIngestHandler(s store.DBStorer, embedder model.Embedder, cfg types.Config) *IngestHandler {
	return &IngestHandler{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

// HandleIngest chunks, embeds and stores a raw text document.
func (h *IngestHandler) HandleIngest(c *fiber.Ctx) error {
	var params types.IngestParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	processed, err := h.ingestText(c.Context(), params.Text, params.Source)
	if err != nil {
		return err
	}

	return c.JSON(types.IngestResponse{
		Status:          "success",
		ChunksProcessed: processed,
		Source:          params.Source,
	})
}

// HandleIngestFile ingests one or more uploaded PDF/TXT files. Each file is
// ingested independently; when the source field is omitted the file's own
// name becomes the source label.
func (h *IngestHandler) HandleIngestFile(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return ErrBadRequest()
	}

	files := form.File["file"]
	if len(files) == 0 {
		return NewValidationError(map[string]string{"file": "at least one file is required"})
	}

	var sourceOverride string
	if v := form.Value["source"]; len(v) > 0 {
		sourceOverride = v[0]
	}

	resp := types.FileIngestResponse{Status: "success"}
	for _, fileHeader := range files {
		if !extract.Supported(fileHeader.Filename) {
			return ErrUnsupportedFileType(fileHeader.Header.Get("Content-Type"))
		}

		data, err := readMultipartFile(fileHeader)
		if err != nil {
			return err
		}

		text, err := extract.Text(fileHeader.Filename, data)
		if err != nil {
			return NewValidationError(map[string]string{"file": err.Error()})
		}

		source := sourceOverride
		if source == "" {
			source = fileHeader.Filename
		}

		processed, err := h.ingestText(c.Context(), text, source)
		if err != nil {
			return err
		}

		resp.ChunksProcessed += processed
		resp.Files = append(resp.Files, types.FileIngestResult{
			Filename:        fileHeader.Filename,
			Source:          source,
			ChunksProcessed: processed,
		})
	}

	return c.JSON(resp)
}

// ingestText runs the pipeline: chunk, batch-embed, bulk-insert. The insert
// is transactional, so a failed ingestion leaves no partial writes behind.
func (h *IngestHandler) ingestText(ctx context.Context, text, source string) (int, error) {
	pieces, err := chunker.Split(text, h.cfg.ChunkSize, h.cfg.ChunkOverlap)
	if err != nil {
		return 0, NewValidationError(map[string]string{"text": err.Error()})
	}
	if len(pieces) == 0 {
		return 0, NewValidationError(map[string]string{"text": "document contains no processable content"})
	}

	embeddings, err := h.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		h.logger.Error("embedding failed", "source", source, "chunks", len(pieces), "error", err)
		return 0, ErrUpstream(err)
	}

	chunks := make([]types.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = types.Chunk{
			Content:   content,
			Source:    source,
			Embedding: embeddings[i],
		}
	}

	if err := h.store.InsertChunks(ctx, chunks); err != nil {
		h.logger.Error("chunk insert failed", "source", source, "chunks", len(chunks), "error", err)
		return 0, ErrStorage(err)
	}

	h.logger.Info("document ingested", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
