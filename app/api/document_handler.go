package api

import (
	"log/slog"
	"net/url"

	"rag/store"
	"rag/types"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	store  store.DBStorer
	logger *slog.Logger
}

func NewDocumentHandler(s store.DBStorer) *DocumentHandler {
	return &DocumentHandler{
		store:  s,
		logger: slog.Default(),
	}
}

// HandleList returns every chunk in storage order. This endpoint is
// chunk-granular; use HandleListSources for one entry per document.
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	chunks, err := h.store.ListChunks(c.Context())
	if err != nil {
		return ErrStorage(err)
	}

	if chunks == nil {
		chunks = []types.ChunkSummary{}
	}
	return c.JSON(types.DocumentsResponse{
		Total:     len(chunks),
		Documents: chunks,
	})
}

// HandleListSources returns one entry per distinct source.
func (h *DocumentHandler) HandleListSources(c *fiber.Ctx) error {
	sources, err := h.store.ListSources(c.Context())
	if err != nil {
		return ErrStorage(err)
	}

	if sources == nil {
		sources = []types.SourceSummary{}
	}
	return c.JSON(types.SourcesResponse{
		Total:   len(sources),
		Sources: sources,
	})
}

// HandleDelete removes every chunk of the source named by the path. The
// source label arrives URL-escaped and is matched as a plain string; deleting
// an unknown source is a success with zero rows removed.
func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	source, err := url.PathUnescape(c.Params("source"))
	if err != nil {
		return ErrBadRequest()
	}

	deleted, err := h.store.DeleteBySource(c.Context(), source)
	if err != nil {
		return ErrStorage(err)
	}

	h.logger.Info("source deleted", "source", source, "chunks", deleted)
	return c.JSON(types.DeleteResponse{
		Status:  "success",
		Deleted: deleted,
	})
}
