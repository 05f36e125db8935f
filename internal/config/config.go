package config

import (
	"fmt"
	"os"
	"strconv"

	"facturas/internal/logger"
)

// Backend names for the secondary (OCR) text extraction strategy.
const (
	OCRBackendVision     = "vision"
	OCRBackendDocumentAI = "documentai"
)

type Config struct {
	// OpenAI Configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float32
	MaxRetries        int
	RequestTimeoutSec int

	// OCR fallback configuration
	OCRBackend string

	// Google Cloud Configuration (only needed for the OCR fallback)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAITemperature:     getFloatEnv("OPENAI_TEMPERATURE", 0.1),
		MaxRetries:            getIntEnv("OPENAI_MAX_RETRIES", 3),
		RequestTimeoutSec:     getIntEnv("OPENAI_REQUEST_TIMEOUT", 60),
		OCRBackend:            getEnv("OCR_BACKEND", OCRBackendVision),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "eu"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.OCRBackend != OCRBackendVision && c.OCRBackend != OCRBackendDocumentAI {
		return fmt.Errorf("OCR_BACKEND must be %q or %q, got %q", OCRBackendVision, OCRBackendDocumentAI, c.OCRBackend)
	}
	if c.OCRBackend == OCRBackendDocumentAI {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when OCR_BACKEND=documentai")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_BACKEND=documentai")
		}
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if c.RequestTimeoutSec < 1 {
		return fmt.Errorf("OPENAI_REQUEST_TIMEOUT must be at least 1 second, got %d", c.RequestTimeoutSec)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}
