// Package config loads relay settings from defaults, an optional relay.yaml
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in generator.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// History backends accepted in history.backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// EnvPrefix prefixes every environment override, e.g. RELAY_LOG_LEVEL.
const EnvPrefix = "RELAY"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for relay.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Log       LogConfig       `mapstructure:"log"`
	History   HistoryConfig   `mapstructure:"history"`
	Server    ServerConfig    `mapstructure:"server"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

// GeneratorConfig selects and tunes the language model.
type GeneratorConfig struct {
	// Provider is anthropic or offline. Offline uses the deterministic generator.
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	// FastModel serves the single-agent system when set.
	FastModel   string  `mapstructure:"fast_model"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// RuntimeConfig bounds runs and collaborator calls.
type RuntimeConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
	// Timeout bounds one run. It is also the TTL of the distributed run lock.
	Timeout time.Duration `mapstructure:"timeout"`
	// Retries is the number of extra attempts after a transient failure.
	Retries    int           `mapstructure:"retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HistoryConfig selects where run records are kept.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the directory of the file backend.
	Path       string      `mapstructure:"path"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
	// EncryptionKey is a base64 AES-256 key. When set, record contents are sealed at rest.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions masked out of records before they are stored.
	Redact []string `mapstructure:"redact"`
}

// RedisConfig addresses the redis backend. It also provides the run lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PipelineConfig toggles the optional multi-agent behaviour.
type PipelineConfig struct {
	System    string `mapstructure:"system"`
	MaxTopics int    `mapstructure:"max_topics"`
	Timeframe string `mapstructure:"timeframe"`
	Sentiment bool   `mapstructure:"sentiment"`
	Edit      bool   `mapstructure:"edit"`
}

// Load reads configuration. Precedence, highest first:
//  1. Environment variables (RELAY_*, ANTHROPIC_API_KEY)
//  2. The file at path, or relay.yaml in the working or user config directory
//  3. Built-in defaults
//
// An explicit path that cannot be read is an error; a missing relay.yaml is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("relay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(userConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("generator.api_key", EnvPrefix+"_GENERATOR_API_KEY", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Generator.APIKey = os.ExpandEnv(cfg.Generator.APIKey)
	cfg.History.EncryptionKey = os.ExpandEnv(cfg.History.EncryptionKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate rejects unknown providers, backends and formats.
func (c *Config) Validate() error {
	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderOffline:
	default:
		return fmt.Errorf("%w: generator.provider %q", ErrInvalid, c.Generator.Provider)
	}
	switch c.History.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("%w: history.backend %q", ErrInvalid, c.History.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Runtime.MaxSteps <= 0 {
		return fmt.Errorf("%w: runtime.max_steps must be positive", ErrInvalid)
	}
	if c.Runtime.Retries < 0 {
		return fmt.Errorf("%w: runtime.retries cannot be negative", ErrInvalid)
	}
	return nil
}

// Offline reports whether runs use the deterministic generator, either by
// choice or because no API key is available.
func (c *Config) Offline() bool {
	return c.Generator.Provider == ProviderOffline || c.Generator.APIKey == ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generator.provider", ProviderAnthropic)
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.model", "claude-sonnet-4-5")
	v.SetDefault("generator.fast_model", "claude-haiku-4-5")
	v.SetDefault("generator.max_tokens", 2048)
	v.SetDefault("generator.temperature", 0.5)

	v.SetDefault("runtime.max_steps", 25)
	v.SetDefault("runtime.timeout", "5m")
	v.SetDefault("runtime.retries", 2)
	v.SetDefault("runtime.backoff", "2s")
	v.SetDefault("runtime.max_backoff", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("history.backend", BackendMemory)
	v.SetDefault("history.path", filepath.Join(".relay", "runs"))
	v.SetDefault("history.sqlite_path", filepath.Join(".relay", "relay.db"))
	v.SetDefault("history.redis.addr", "localhost:6379")
	v.SetDefault("history.redis.password", "")
	v.SetDefault("history.redis.db", 0)
	v.SetDefault("history.redis.ttl", "0s")
	v.SetDefault("history.redis.prefix", "relay:run:")
	v.SetDefault("history.encryption_key", "")
	v.SetDefault("history.fallback_keys", []string{})
	v.SetDefault("history.redact", []string{})

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("pipeline.system", "multi")
	v.SetDefault("pipeline.max_topics", 3)
	v.SetDefault("pipeline.timeframe", "week")
	v.SetDefault("pipeline.sentiment", false)
	v.SetDefault("pipeline.edit", false)
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "relay")
	}
	return filepath.Join(home, ".config", "relay")
}
