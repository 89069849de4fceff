package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"rag/app/agent"
	"rag/app/api"
	"rag/app/middleware"
	"rag/model"
	"rag/store"
	"rag/types"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    types.Config
	logger *slog.Logger
	app    *fiber.App
	pool   *store.PostgresStore
}

func NewServer(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error during shutdown", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		s.cfg.PGHost, s.cfg.PGPort, s.cfg.PGUser, s.cfg.PGPass, s.cfg.PGDBName)
	pool, err := store.NewPostgresStore(ctx, connStr, s.cfg.EmbeddingDim)
	if err != nil {
		log.Fatal("error to connect to Postgres database ", err)
		return
	}
	s.pool = pool

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables ", err)
		return
	}

	embedder := model.NewRetryingEmbedder(s.buildEmbedder(), s.cfg.ProviderRetries, s.cfg.ProviderTimeout)
	generator := model.NewRetryingGenerator(s.buildGenerator(), s.cfg.ProviderRetries)
	synth := agent.New(generator, s.cfg.MaxContextTokens)

	var (
		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler()
		ingestHandler   = api.NewIngestHandler(pool, embedder, s.cfg)
		askHandler      = api.NewAskHandler(pool, embedder, synth, s.cfg)
		documentHandler = api.NewDocumentHandler(pool)
		check           = app.Group("/check")
		apiv1           = app.Group("/api/v1")
	)
	s.app = app

	app.Use(middleware.RequestLogger())

	app.Get("/", checkHandler.HandleRoot)
	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/ingest", ingestHandler.HandleIngest)
	apiv1.Post("/ingest-file", ingestHandler.HandleIngestFile)
	apiv1.Post("/ask", askHandler.HandleAsk)
	apiv1.Get("/documents", documentHandler.HandleList)
	apiv1.Get("/sources", documentHandler.HandleListSources)
	apiv1.Delete("/documents/:source", documentHandler.HandleDelete)

	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

func (s *Server) buildEmbedder() model.Embedder {
	switch s.cfg.EmbeddingProvider {
	case "openai":
		return model.NewOpenAIEmbedder(s.cfg.EmbeddingURL, s.cfg.LLMAPIKey, s.cfg.EmbeddingModel, s.cfg.EmbeddingDim)
	default:
		return model.NewOllamaEmbedder(s.cfg.EmbeddingURL, s.cfg.EmbeddingModel, s.cfg.EmbeddingDim)
	}
}

func (s *Server) buildGenerator() model.Generator {
	switch s.cfg.LLMProvider {
	case "openai":
		return model.NewOpenAIGenerator(s.cfg.LLMURL, s.cfg.LLMAPIKey, s.cfg.LLMModel)
	default:
		return model.NewOllamaGenerator(s.cfg.LLMURL, s.cfg.LLMModel, "")
	}
}
