// Package config loads the process configuration from the environment. A
// .env file in the working directory is honored when present so local
// development does not require exporting variables by hand.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in MODEL_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Default model per provider when MODEL is unset.
const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultOpenAIModel    = "gpt-4o"
)

type (
	// Config is the full process configuration.
	Config struct {
		Temporal Temporal
		Model    Model
		Redis    Redis
		Mongo    Mongo
		// DataDir roots the JSON-file store.
		DataDir string
		// ToolServersFile points at the YAML tool-server topology.
		// Empty means bundled tools only.
		ToolServersFile string
		// AutoCloseAfter is the inactivity window before open tickets
		// are closed by the maintenance sweep.
		AutoCloseAfter time.Duration
		// Debug enables debug logging.
		Debug bool
	}

	// Temporal holds the Temporal client settings.
	Temporal struct {
		HostPort  string
		Namespace string
	}

	// Model selects and configures the LLM provider.
	Model struct {
		// Provider is "anthropic" or "openai".
		Provider string
		APIKey   string
		// Name is the model identifier, defaulted per provider.
		Name string
		// RPS and Burst bound the request rate to the provider.
		RPS   float64
		Burst int
	}

	// Redis configures the chat event stream. An empty Addr disables
	// publication.
	Redis struct {
		Addr     string
		Password string
	}

	// Mongo configures the ticket archive. An empty URI selects the
	// in-memory archive.
	Mongo struct {
		URI      string
		Database string
	}
)

// Load reads the configuration from the environment, after sourcing an
// optional .env file. Unset variables fall back to development defaults;
// the model API key is the only hard requirement.
func Load() (*Config, error) {
	// Ignore a missing .env, fail on a malformed one.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Temporal: Temporal{
			HostPort:  getenv("TEMPORAL_ADDRESS", "localhost:7233"),
			Namespace: getenv("TEMPORAL_NAMESPACE", "default"),
		},
		Model: Model{
			Provider: getenv("MODEL_PROVIDER", ProviderAnthropic),
			Name:     os.Getenv("MODEL"),
			RPS:      getfloat("MODEL_RPS", 2),
			Burst:    getint("MODEL_BURST", 4),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Mongo: Mongo{
			URI:      os.Getenv("MONGO_URI"),
			Database: getenv("MONGO_DATABASE", "conductor"),
		},
		DataDir:         getenv("DATA_DIR", "data"),
		ToolServersFile: os.Getenv("TOOL_SERVERS_FILE"),
		AutoCloseAfter:  time.Duration(getint("AUTO_CLOSE_MINUTES", 60)) * time.Minute,
		Debug:           getbool("DEBUG"),
	}

	switch cfg.Model.Provider {
	case ProviderAnthropic:
		cfg.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Model.Name == "" {
			cfg.Model.Name = defaultAnthropicModel
		}
	case ProviderOpenAI:
		cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Model.Name == "" {
			cfg.Model.Name = defaultOpenAIModel
		}
	default:
		return nil, fmt.Errorf("unknown MODEL_PROVIDER %q (want %s or %s)",
			cfg.Model.Provider, ProviderAnthropic, ProviderOpenAI)
	}
	if cfg.Model.APIKey == "" {
		return nil, errors.New("model API key is not set (ANTHROPIC_API_KEY or OPENAI_API_KEY)")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getfloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getbool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}
