package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full service configuration, read from environment variables.
type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Gemini GeminiConfig
	Notion NotionConfig
	Store  StoreConfig
	Jobs   JobsConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type AuthConfig struct {
	APIKey string `envconfig:"API_KEY" required:"true"`
}

type GeminiConfig struct {
	APIKey        string        `envconfig:"GEMINI_API_KEY" required:"true"`
	Model         string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	FixModel      string        `envconfig:"GEMINI_FIX_MODEL" default:"gemini-2.0-flash-lite"`
	MaxIterations int           `envconfig:"AGENT_MAX_ITERATIONS" default:"10"`
	CallTimeout   time.Duration `envconfig:"GEMINI_CALL_TIMEOUT" default:"60s"`
}

type NotionConfig struct {
	Token         string `envconfig:"NOTION_API_TOKEN" required:"true"`
	DatabaseID    string `envconfig:"NOTION_DATABASE_ID" required:"true"`
	TxnDatabaseID string `envconfig:"NOTION_TXN_DATABASE_ID" required:"true"`
}

type StoreConfig struct {
	ProjectID string `envconfig:"BQ_PROJECT_ID" required:"true"`
	DatasetID string `envconfig:"BQ_DATASET_ID" default:"finance"`
}

type JobsConfig struct {
	QueueSize int `envconfig:"JOB_QUEUE_SIZE" default:"100"`
	Workers   int `envconfig:"JOB_WORKERS" default:"2"`
}

// Load reads configuration from environment variables. A .env file is loaded
// first when present, which is useful for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}
