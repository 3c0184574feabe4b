package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. It is built once by Load and passed
// to whatever needs it.
type Config struct {
	ServerPort  int
	LogLevel    string
	APIKey      string
	StoreDriver string
	StorePath   string
	// StoreBackups is how many rotated copies the file store keeps.
	StoreBackups int
	DatabaseURL  string

	LLMProvider     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	CerebrasAPIKey  string
	LLMTimeout      time.Duration

	// AutosaveInterval adds a periodic save on top of the save after each
	// mutation. Zero disables it.
	AutosaveInterval  time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
	ContradictionGate bool
}

// Load reads the .env file specified by KNET_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() (*Config, error) {
	envFile := os.Getenv("KNET_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching
// any env file.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:        intEnv("SERVER_PORT", 8080),
		LogLevel:          stringEnv("LOG_LEVEL", "info"),
		APIKey:            os.Getenv("API_KEY"),
		StoreDriver:       stringEnv("STORE_DRIVER", "file"),
		StorePath:         stringEnv("STORE_PATH", "knowledge.json"),
		StoreBackups:      intEnv("STORE_BACKUPS", 5),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LLMProvider:       stringEnv("LLM_PROVIDER", "mock"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		CerebrasAPIKey:    os.Getenv("CEREBRAS_API_KEY"),
		LLMTimeout:        30 * time.Second,
		RateLimitRPS:      100,
		RateLimitBurst:    intEnv("RATE_LIMIT_BURST", 20),
		ContradictionGate: true,
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("SERVER_PORT out of range: %d", cfg.ServerPort)
	}
	if cfg.StoreBackups < 0 {
		return nil, fmt.Errorf("STORE_BACKUPS must not be negative: %d", cfg.StoreBackups)
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}

	var err error
	if cfg.LLMTimeout, err = durationEnv("LLM_TIMEOUT", cfg.LLMTimeout); err != nil {
		return nil, err
	}
	if cfg.AutosaveInterval, err = durationEnv("AUTOSAVE_INTERVAL", 0); err != nil {
		return nil, err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err == nil && rps > 0 {
			cfg.RateLimitRPS = rps
		}
	}
	if v := os.Getenv("CONTRADICTION_GATE"); v != "" {
		gate, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("CONTRADICTION_GATE: %w", err)
		}
		cfg.ContradictionGate = gate
	}

	return cfg, nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// LLMAPIKey returns the API key for the configured LLM provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	case "cerebras":
		return c.CerebrasAPIKey
	case "mock":
		return ""
	default:
		return c.OpenAIAPIKey
	}
}

func stringEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// durationEnv accepts Go durations ("45s") or bare seconds ("45").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
