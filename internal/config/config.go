package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const Production = "production"

type PageSpeedOptions struct {
	Endpoint string        `env:"PAGESPEED_ENDPOINT" envDefault:"https://www.googleapis.com/pagespeedonline/v5/runPagespeed"`
	APIKey   string        `env:"PAGESPEED_API_KEY"`
	Timeout  time.Duration `env:"PAGESPEED_TIMEOUT" envDefault:"90s"`
}

type ScrapeOptions struct {
	UserAgent    string        `env:"SCRAPE_USER_AGENT"`
	Timeout      time.Duration `env:"SCRAPE_TIMEOUT" envDefault:"20s"`
	MaxBodyBytes int64         `env:"SCRAPE_MAX_BODY_BYTES" envDefault:"5242880"`
}

type LLMOptions struct {
	APIKey            string        `env:"LLM_API_KEY"`
	Endpoint          string        `env:"LLM_ENDPOINT"`
	Model             string        `env:"LLM_MODEL" envDefault:"openai/gpt-oss-20b"`
	MaxTokens         int64         `env:"LLM_MAX_TOKENS" envDefault:"300"`
	SuggestionTimeout time.Duration `env:"SUGGESTION_TIMEOUT" envDefault:"30s"`
}

type RateLimitOptions struct {
	Enabled  bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate     string `env:"RATE_LIMIT_RATE" envDefault:"20-M"`
	Storage  string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL string `env:"REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.Storage != "memory" && r.Storage != "redis" {
		return errors.Errorf("rate limit storage must be 'memory' or 'redis', got %q", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return errors.New("REDIS_URL is required when rate limit storage is 'redis'")
	}
	return nil
}

type Config struct {
	Env             string `env:"APP_ENV" envDefault:"development"`
	ListenAddr      string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseURL     string `env:"DATABASE_URL"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	AuditWorkers    int    `env:"AUDIT_WORKERS" envDefault:"2"`
	FrontendBaseURL string `env:"FRONTEND_BASE_URL"`
	MetricsPath     string `env:"METRICS_PATH" envDefault:"/metrics"`

	PageSpeed PageSpeedOptions
	Scrape    ScrapeOptions
	LLM       LLMOptions
	RateLimit RateLimitOptions
}

// Load reads optional dotenv files, then the environment. Variables already
// set in the environment win over dotenv values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == Production }

// AllowedOrigins lists CORS origins: the configured frontend plus the local dev server.
func (c Config) AllowedOrigins() []string {
	origins := []string{}
	if base := strings.TrimRight(strings.TrimSpace(c.FrontendBaseURL), "/"); base != "" {
		origins = append(origins, base)
	}
	return append(origins, "http://localhost:5173", "https://localhost:5173")
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return errors.Wrap(err, "load env files")
	}
	return nil
}
