package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/spektr-org/ekta/gemini"
	"github.com/spektr-org/ekta/router"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	DataPath string `env:"EKTA_DATA_PATH" envDefault:"data/input/aadhar_clean.csv"`
	Addr     string `env:"EKTA_ADDR"      envDefault:":8080"`

	Router     string `env:"EKTA_ROUTER"      envDefault:"keyword"`  // keyword | gemini
	RouterMode string `env:"EKTA_ROUTER_MODE" envDefault:"decision"` // decision | labels

	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiModel    string        `env:"GEMINI_MODEL"    envDefault:"gemini-2.5-flash"`
	GeminiEndpoint string        `env:"GEMINI_ENDPOINT" envDefault:"https://generativelanguage.googleapis.com/v1"`
	GeminiTimeout  time.Duration `env:"GEMINI_TIMEOUT"  envDefault:"30s"`

	Insights    bool          `env:"EKTA_INSIGHTS"      envDefault:"true"`
	CacheTTL    time.Duration `env:"EKTA_CACHE_TTL"     envDefault:"0s"` // 0 keeps datasets until invalidated
	HistoryPath string        `env:"EKTA_HISTORY_PATH"`                  // empty disables history
	CORSOrigins []string      `env:"EKTA_CORS_ORIGINS"  envDefault:"*" envSeparator:","`
}

// Load reads files (default ".env") into the process environment, then
// parses Config. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
			continue
		}
		log.Printf("🔧 Config: loaded %s", f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Router {
	case router.KindKeyword, router.KindGemini:
	default:
		return fmt.Errorf("EKTA_ROUTER must be %q or %q, got %q", router.KindKeyword, router.KindGemini, c.Router)
	}
	switch c.RouterMode {
	case router.ModeDecision, router.ModeLabels:
	default:
		return fmt.Errorf("EKTA_ROUTER_MODE must be %q or %q, got %q", router.ModeDecision, router.ModeLabels, c.RouterMode)
	}
	if c.DataPath == "" {
		return errors.New("EKTA_DATA_PATH is required")
	}
	return nil
}

// RouterConfig returns the router selection.
func (c Config) RouterConfig() router.Config {
	return router.Config{Kind: c.Router, Mode: c.RouterMode}
}

// GeminiConfig returns the model client settings.
func (c Config) GeminiConfig() gemini.Config {
	return gemini.Config{
		APIKey:   c.GeminiAPIKey,
		Model:    c.GeminiModel,
		Endpoint: c.GeminiEndpoint,
		Timeout:  c.GeminiTimeout,
	}
}

// HasGemini reports whether a model API key is configured.
func (c Config) HasGemini() bool {
	return c.GeminiAPIKey != ""
}
