package types

import (
	"os"
	"strconv"
	"time"
)

// Config drives the file loader: where to watch, where processed files go,
// and which ingest endpoint receives the extracted text.
type Config struct {
	MonitoringTime time.Duration
	SourceDir      string
	ArchiveDir     string
	BadDir         string
	IngestURL      string

	// PDF margins to crop before extraction, in points. Zero disables cropping.
	CropTop    float64
	CropBottom float64
}

func ConfigFromEnv() Config {
	return Config{
		MonitoringTime: time.Duration(getEnvInt("LOADER_MONITORING_SEC", 3)) * time.Second,
		SourceDir:      getEnv("LOADER_SOURCE_DIR", "./data/source"),
		ArchiveDir:     getEnv("LOADER_ARCHIVE_DIR", "./data/archive"),
		BadDir:         getEnv("LOADER_BAD_DIR", "./data/bad"),
		IngestURL:      getEnv("LOADER_INGEST_URL", "http://localhost:8000/api/v1/ingest"),
		CropTop:        getEnvFloat("LOADER_CROP_TOP", 0),
		CropBottom:     getEnvFloat("LOADER_CROP_BOTTOM", 0),
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

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
