package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/prospector/internal/leads"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"120s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"110s"`

	Pipeline

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	UploadMaxBytes int64         `envconfig:"UPLOAD_MAX_BYTES" default:"20971520"`
	ReportTTL      time.Duration `envconfig:"REPORT_TTL" default:"1h"`
	AsyncReports   bool          `envconfig:"ASYNC_REPORTS" default:"true"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// Pipeline holds the settings shared by the server, the worker and the CLI:
// logging, classification targets, narratives and PDF rendering.
type Pipeline struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	GotenbergURL     string        `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"60s"`

	OpenAIAPIKey     string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel      string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	NarrativeTimeout time.Duration `envconfig:"NARRATIVE_TIMEOUT" default:"30s"`

	TargetCodesFile string `envconfig:"TARGET_CODES_FILE"`
}

// LoadPipelineConfig reads only the Pipeline settings. The CLI uses it so
// offline commands need no session secrets or Redis.
func LoadPipelineConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg.Pipeline); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, errors.New("upload limit must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// LoadTargets returns the configured target table, falling back to the
// built-in packaging table when no override file is set.
func (c *Config) LoadTargets() (leads.TargetTable, error) {
	if c == nil || c.TargetCodesFile == "" {
		return leads.DefaultTargets(), nil
	}
	f, err := os.Open(c.TargetCodesFile)
	if err != nil {
		return leads.TargetTable{}, fmt.Errorf("open target codes: %w", err)
	}
	defer f.Close()
	return leads.LoadTargetsTOML(f)
}
