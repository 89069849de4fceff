package api

import (
	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct{}

func NewCheckHandler() *CheckHandler {
	return &CheckHandler{}
}

func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

func (h CheckHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "RAG knowledge base is running",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"ingest":      "/api/v1/ingest",
			"ingest-file": "/api/v1/ingest-file",
			"ask":         "/api/v1/ask",
			"documents":   "/api/v1/documents",
			"sources":     "/api/v1/sources",
		},
	})
}
