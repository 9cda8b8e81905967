package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"venturelens"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"venturelens"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	FirecrawlAPIKey  string `envconfig:"FIRECRAWL_API_KEY"`
	PerplexityAPIKey string `envconfig:"PERPLEXITY_API_KEY"`

	// Chunking
	ParagraphChunkSize int `envconfig:"PARAGRAPH_CHUNK_SIZE" default:"1000"`
	UploadChunkSize    int `envconfig:"UPLOAD_CHUNK_SIZE" default:"800"`
	UploadChunkOverlap int `envconfig:"UPLOAD_CHUNK_OVERLAP" default:"150"`
	ChunkMinLength     int `envconfig:"CHUNK_MIN_LENGTH" default:"50"`

	// Keyword tagging
	KeywordMaxChunks int `envconfig:"KEYWORD_MAX_CHUNKS" default:"20"`

	// Retrieval
	RetrievalPoolSize int `envconfig:"RETRIEVAL_POOL_SIZE" default:"50"`
	RetrievalTopK     int `envconfig:"RETRIEVAL_TOP_K" default:"5"`

	// Crawl
	CrawlWindowHours     int `envconfig:"CRAWL_WINDOW_HOURS" default:"12"`
	CrawlDelaySeconds    int `envconfig:"CRAWL_DELAY_SECONDS" default:"1"`
	CrawlMinContentChars int `envconfig:"CRAWL_MIN_CONTENT_CHARS" default:"100"`

	// Funding extraction unit conversions, expressed in USD millions.
	// These encode an approximate FX assumption, not a live rate.
	CroreToUSDMillions float64 `envconfig:"CRORE_TO_USD_MILLIONS" default:"12"`
	LakhToUSDMillions  float64 `envconfig:"LAKH_TO_USD_MILLIONS" default:"0.012"`

	EnableAPI     bool   `envconfig:"ENABLE_API" default:"true"`
	EnableWorker  bool   `envconfig:"ENABLE_WORKER" default:"true"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root.
	// Ignore errors, as env vars might be set in the shell.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.UploadChunkSize > 0 && c.UploadChunkOverlap >= c.UploadChunkSize {
		return fmt.Errorf("%w: UPLOAD_CHUNK_OVERLAP must be smaller than UPLOAD_CHUNK_SIZE", ErrMissingRequired)
	}
	return nil
}
