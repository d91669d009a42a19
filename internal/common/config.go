package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr          string
	CORSOrigin    string
	BasicAuthUser string
	BasicAuthPass string
}

// StoreConfig holds state store configuration
type StoreConfig struct {
	Path string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractPath string
	Languages     string
	TessdataDir   string
}

// LLMConfig holds defaults for the structuring service, used until the user
// saves a configuration through the API
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PipelineConfig holds extraction worker pool configuration
type PipelineConfig struct {
	Workers   int
	QueueSize int
}

// LoadConfig loads configuration from a .env file (when present) and
// environment variables
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr:          getEnv("HTTP_ADDR", ":8921"),
			CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
			BasicAuthUser: getEnv("BASIC_AUTH_USER", ""),
			BasicAuthPass: getEnv("BASIC_AUTH_PASS", ""),
		},
		Store: StoreConfig{
			Path: getEnv("STATE_PATH", "auto-invoice.db"),
		},
		OCR: OCRConfig{
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
			Languages:     getEnv("OCR_LANGUAGES", "chi_sim+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL: getEnv("LLM_BASE_URL", ""),
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", ""),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:   getEnvAsInt("PIPELINE_WORKERS", 2),
			QueueSize: getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "STATE_PATH is required", ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be at least 1", ErrInvalidInput)
	}
	return nil
}
