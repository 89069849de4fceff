package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"rag/app/agent"
	"rag/model"
	"rag/store"
	"rag/types"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type AskHandler struct {
	store    store.DBStorer
	embedder model.Embedder
	synth    *agent.Synthesizer
	cfg      types.Config
	logger   *slog.Logger
}

func NewAskHandler(s store.DBStorer, embedder model.Embedder, synth *agent.Synthesizer, cfg types.Config) *AskHandler {
	return &AskHandler{
		store:    s,
		embedder: embedder,
		synth:    synth,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

// HandleAsk answers a question from the knowledge base as an SSE stream.
// Retrieval runs before the stream opens, so embedding and search failures
// come back as plain JSON errors; once streaming has started, failures are
// delivered as a terminal error event instead.
func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	question := params.Question
	h.logger.Info("question received", "question", question)

	queryVec, err := h.embedder.Embed(c.Context(), question)
	if err != nil {
		return ErrUpstream(err)
	}

	chunks, err := h.store.SearchNearest(c.Context(), queryVec, h.cfg.TopK)
	if err != nil {
		return ErrStorage(err)
	}
	h.logger.Info("retrieval done", "question", question, "chunks", len(chunks))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context is gone once the handler returns; generation
		// gets its own, cancelled when the client disconnects or we finish.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for ev := range h.synth.Synthesize(ctx, question, chunks) {
			if err := writeEvent(w, ev); err != nil {
				// Client went away; stop consuming the generator stream.
				h.logger.Info("client disconnected mid-stream", "question", question)
				return
			}
			if ev.Err != nil {
				h.logger.Error("generation failed mid-stream", "question", question, "error", ev.Err)
				return
			}
		}
	}))

	return nil
}

// writeEvent marshals one stream event as an SSE frame and flushes it so the
// client sees increments as they are produced.
func writeEvent(w *bufio.Writer, ev agent.Event) error {
	var payload any
	switch {
	case ev.Sources != nil:
		payload = types.SourcesEvent{Sources: ev.Sources}
	case ev.Err != nil:
		payload = types.ErrorEvent{Error: ev.Err.Error()}
	default:
		payload = types.AnswerEvent{Answer: ev.Answer}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
