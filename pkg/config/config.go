package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Request   RequestConfig   `yaml:"request"`
	LLM       LLMConfig       `yaml:"llm"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Redis     RedisConfig     `yaml:"redis"`
	Geometry  GeometryConfig  `yaml:"geometry"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	LLM      LogSettings `yaml:"llm"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RequestConfig holds outbound HTTP settings shared by non-SDK clients.
type RequestConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// LLMConfig holds settings for the planning service.
type LLMConfig struct {
	Provider    string            `yaml:"provider"` // "gemini", "openai"
	Model       string            `yaml:"model"`
	Key         string            `yaml:"key"`
	BaseURL     string            `yaml:"base_url"` // openai-compatible gateways only
	Profiles    map[string]string `yaml:"profiles"` // intent -> model
	Timeout     Duration          `yaml:"timeout"`
	Temperature float32           `yaml:"temperature"`
	RPS         float64           `yaml:"rps"` // outbound limit, 0 disables
}

// CatalogConfig holds settings for catalog snapshot caching.
type CatalogConfig struct {
	Cache    string   `yaml:"cache"` // "none", "sqlite", "redis"
	CacheTTL Duration `yaml:"cache_ttl"`
}

// RedisConfig holds connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GeometryConfig holds coordinate resolution settings.
type GeometryConfig struct {
	MaxCenterDistance Distance `yaml:"max_center_distance"`
	WalkingSpeedKmh   float64  `yaml:"walking_speed_kmh"`
	SyntheticRadius   Distance `yaml:"synthetic_radius"`
	SyntheticStep     Distance `yaml:"synthetic_step"`
	Gazetteer         string   `yaml:"gazetteer"` // optional GeoJSON landmark overlay
}

// LedgerConfig holds selection ledger limits.
type LedgerConfig struct {
	MaxPerDay               int      `yaml:"max_per_day"`
	MaxDismissalsBeforeHide int      `yaml:"max_dismissals_before_hide"`
	SessionTTL              Duration `yaml:"session_ttl"`
}

// RateLimitConfig holds inbound limits for itinerary generation.
type RateLimitConfig struct {
	GenerateRPS   float64 `yaml:"generate_rps"`
	GenerateBurst int     `yaml:"generate_burst"`
}

// EventsConfig holds domain event publishing settings.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      "localhost:8420",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(120 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			LLM: LogSettings{
				Path:  "./logs/planner.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/itinera.db",
		},
		Request: RequestConfig{
			Timeout: Duration(90 * time.Second),
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
			Profiles: map[string]string{
				"itinerary": "gemini-2.5-flash",
			},
			Timeout:     Duration(90 * time.Second),
			Temperature: 0.7,
		},
		Catalog: CatalogConfig{
			Cache:    "none",
			CacheTTL: Duration(10 * time.Minute),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Geometry: GeometryConfig{
			MaxCenterDistance: Distance(200000),
			WalkingSpeedKmh:   5,
			SyntheticRadius:   Distance(900),
			SyntheticStep:     Distance(150),
		},
		Ledger: LedgerConfig{
			MaxPerDay:               2,
			MaxDismissalsBeforeHide: 2,
			SessionTTL:              Duration(Day),
		},
		RateLimit: RateLimitConfig{
			GenerateRPS:   0.2,
			GenerateBurst: 2,
		},
		Events: EventsConfig{
			Topic: "itinera.events",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it is created with default values.
// If it exists, values are merged over the defaults and the file is left untouched.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets from the environment. Values are never written back to disk.
func applyEnv(cfg *Config) {
	if cfg.LLM.Key == "" {
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Key = os.Getenv("GEMINI_API_KEY")
		default:
			cfg.LLM.Key = os.Getenv("LLM_API_KEY")
		}
	}
	if cfg.Redis.Password == "" {
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q: must be gemini or openai", c.LLM.Provider))
	}
	if c.LLM.Provider == "openai" && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required for the openai provider"))
	}
	switch c.Catalog.Cache {
	case "", "none", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("catalog.cache %q: must be none, sqlite or redis", c.Catalog.Cache))
	}
	if c.Ledger.MaxPerDay < 1 {
		errs = append(errs, fmt.Errorf("ledger.max_per_day must be >= 1, got %d", c.Ledger.MaxPerDay))
	}
	if c.Ledger.MaxDismissalsBeforeHide < 1 {
		errs = append(errs, fmt.Errorf("ledger.max_dismissals_before_hide must be >= 1, got %d", c.Ledger.MaxDismissalsBeforeHide))
	}
	if c.Geometry.MaxCenterDistance <= 0 {
		errs = append(errs, errors.New("geometry.max_center_distance must be positive"))
	}
	if c.Geometry.WalkingSpeedKmh <= 0 {
		errs = append(errs, errors.New("geometry.walking_speed_kmh must be positive"))
	}
	if c.RateLimit.GenerateRPS < 0 || c.RateLimit.GenerateBurst < 0 {
		errs = append(errs, errors.New("ratelimit values must not be negative"))
	}
	return errors.Join(errs...)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Itinera Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers)

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: gemini, openai\n${1}provider:"))

	reCache := regexp.MustCompile(`(?m)^(\s+)cache:`)
	data = reCache.ReplaceAll(data, []byte("${1}# Options: none, sqlite, redis\n${1}cache:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
