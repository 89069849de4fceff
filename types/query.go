package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// IngestParams is the body of POST /api/v1/ingest.
type IngestParams struct {
	Text   string `json:"text" validate:"required,notblank"`
	Source string `json:"source" validate:"required,notblank"`
}

// AskParams is the body of POST /api/v1/ask.
type AskParams struct {
	Question string `json:"question" validate:"required,notblank"`
}

// IngestResponse reports the outcome of a single ingestion.
type IngestResponse struct {
	Status          string `json:"status"`
	ChunksProcessed int    `json:"chunks_processed"`
	Source          string `json:"source"`
}

// FileIngestResult is the per-file part of an ingest-file response.
type FileIngestResult struct {
	Filename        string `json:"filename"`
	Source          string `json:"source"`
	ChunksProcessed int    `json:"chunks_processed"`
}

// FileIngestResponse totals chunks across all submitted files.
type FileIngestResponse struct {
	Status          string             `json:"status"`
	ChunksProcessed int                `json:"chunks_processed"`
	Files           []FileIngestResult `json:"files"`
}

// DocumentsResponse is the chunk-granular listing of GET /documents. Callers
// wanting distinct sources should use GET /sources instead of de-duplicating
// these entries client-side.
type DocumentsResponse struct {
	Total     int            `json:"total"`
	Documents []ChunkSummary `json:"documents"`
}

// SourcesResponse is the source-granular listing of GET /sources.
type SourcesResponse struct {
	Total   int             `json:"total"`
	Sources []SourceSummary `json:"sources"`
}

// DeleteResponse acknowledges a delete-by-source, matched chunks or not.
type DeleteResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *IngestParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *AskParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	// "required" accepts whitespace-only strings, which ingest must reject.
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}
