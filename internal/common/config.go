package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Places      PlacesConfig      `toml:"places"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	OpenAI      OpenAIConfig      `toml:"openai"`
	LLM         LLMConfig         `toml:"llm"`
	Generation  GenerationConfig  `toml:"generation"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"oneof=badger memory"` // "badger" or "memory"
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// PlacesConfig contains Google Places API configuration.
// Both the v1 API and the legacy maps/api/place endpoints are addressed from here.
type PlacesConfig struct {
	APIKey           string        `toml:"api_key"`
	BaseURL          string        `toml:"base_url" validate:"required,url"`        // v1 API root
	LegacyBaseURL    string        `toml:"legacy_base_url" validate:"required,url"` // legacy maps/api/place root
	RequestTimeout   time.Duration `toml:"request_timeout"`
	PageSize         int           `toml:"page_size" validate:"min=1,max=20"`
	BiasRadiusMeters float64       `toml:"bias_radius_meters" validate:"gte=0"`
	FallbackRegion   string        `toml:"fallback_region" validate:"required"`
	CountrySuffix    string        `toml:"country_suffix"`
	RetryDelay       time.Duration `toml:"retry_delay"`
	PhotoMaxWidth    int           `toml:"photo_max_width" validate:"min=1"`

	// Location relevance heuristics
	RelevanceMinTokenLength int `toml:"relevance_min_token_length" validate:"gte=0"`
	RelevanceDropZeroAbove  int `toml:"relevance_drop_zero_above" validate:"gte=0"`

	// Sliding window limits shared by every Places call
	RateWindow       time.Duration `toml:"rate_window"`
	RateMaxRequests  int           `toml:"rate_max_requests" validate:"min=1"`
	RateQueueDepth   int           `toml:"rate_queue_depth" validate:"min=1"`
	RateQueueSpacing time.Duration `toml:"rate_queue_spacing"`

	CacheTTL         time.Duration `toml:"cache_ttl"`
	NegativeCacheTTL time.Duration `toml:"negative_cache_ttl"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// OpenAIConfig contains OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"` // Optional, for compatible gateways
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderOpenAI LLMProvider = "openai"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude openai"`
}

// GenerationConfig controls itinerary generation and enrichment
type GenerationConfig struct {
	StructuredModel string        `toml:"structured_model"` // schema-constrained attempt
	LegacyModel     string        `toml:"legacy_model"`     // free-text fallback attempt
	Temperature     float32       `toml:"temperature"`
	MinRating       float64       `toml:"min_rating" validate:"gte=0,lte=5"`
	StepDelay       time.Duration `toml:"step_delay"` // pause between step lookups
	RequestTimeout  time.Duration `toml:"request_timeout"`
}

// MaintenanceConfig controls background housekeeping
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format with seconds

	// CompactSchedule runs storage compaction; empty disables it
	CompactSchedule string `toml:"compact_schedule"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Places: PlacesConfig{
			BaseURL:                 "https://places.googleapis.com/v1",
			LegacyBaseURL:           "https://maps.googleapis.com/maps/api/place",
			RequestTimeout:          15 * time.Second,
			PageSize:                3,
			BiasRadiusMeters:        16093, // ~10 miles
			FallbackRegion:          "Austin, TX, USA",
			CountrySuffix:           "USA",
			RetryDelay:              1 * time.Second,
			PhotoMaxWidth:           800,
			RelevanceMinTokenLength: 2,
			RelevanceDropZeroAbove:  1,
			RateWindow:              60 * time.Second,
			RateMaxRequests:         60,
			RateQueueDepth:          100,
			RateQueueSpacing:        100 * time.Millisecond,
			CacheTTL:                24 * time.Hour,
			NegativeCacheTTL:        1 * time.Hour,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
		},
		Generation: GenerationConfig{
			StructuredModel: "gpt-4o-mini",
			LegacyModel:     "gpt-3.5-turbo",
			Temperature:     0.7,
			MinRating:       3.0,
			StepDelay:       500 * time.Millisecond,
			RequestTimeout:  2 * time.Minute,
		},
		Maintenance: MaintenanceConfig{
			Enabled:         true,
			Schedule:        "0 0 * * * *",  // hourly
			CompactSchedule: "0 30 3 * * *", // daily at 03:30
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("OUTING_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("OUTING_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("OUTING_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if storageType := os.Getenv("OUTING_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("OUTING_STORAGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("OUTING_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("OUTING_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Places configuration
	if key := firstEnv("OUTING_PLACES_API_KEY", "GOOGLE_PLACES_API_KEY"); key != "" {
		config.Places.APIKey = key
	}
	if region := os.Getenv("OUTING_PLACES_FALLBACK_REGION"); region != "" {
		config.Places.FallbackRegion = region
	}
	if maxRequests := os.Getenv("OUTING_PLACES_RATE_MAX_REQUESTS"); maxRequests != "" {
		if n, err := strconv.Atoi(maxRequests); err == nil {
			config.Places.RateMaxRequests = n
		}
	}
	if window := os.Getenv("OUTING_PLACES_RATE_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Places.RateWindow = d
		}
	}

	// LLM configuration
	if key := firstEnv("OUTING_GEMINI_API_KEY", "GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if key := firstEnv("OUTING_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := firstEnv("OUTING_OPENAI_API_KEY", "OPENAI_API_KEY"); key != "" {
		config.OpenAI.APIKey = key
	}
	if provider := os.Getenv("OUTING_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	// Generation configuration
	if model := os.Getenv("OUTING_GENERATION_STRUCTURED_MODEL"); model != "" {
		config.Generation.StructuredModel = model
	}
	if model := os.Getenv("OUTING_GENERATION_LEGACY_MODEL"); model != "" {
		config.Generation.LegacyModel = model
	}
	if minRating := os.Getenv("OUTING_GENERATION_MIN_RATING"); minRating != "" {
		if r, err := strconv.ParseFloat(minRating, 64); err == nil {
			config.Generation.MinRating = r
		}
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and the maintenance schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Maintenance.Enabled {
		if err := ValidateSchedule(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("invalid maintenance schedule: %w", err)
		}
		if c.Maintenance.CompactSchedule != "" {
			if err := ValidateSchedule(c.Maintenance.CompactSchedule); err != nil {
				return fmt.Errorf("invalid compaction schedule: %w", err)
			}
		}
	}

	return nil
}

// ValidateSchedule validates a six-field (seconds first) cron expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
