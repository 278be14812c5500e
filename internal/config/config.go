package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Oracle providers and cache backends.
const (
	OracleNone   = "none"
	OracleList   = "list"
	OracleClaude = "claude"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for edgar-entities.
type Config struct {
	Edgar      EdgarConfig      `mapstructure:"edgar"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Claude     ClaudeConfig     `mapstructure:"claude"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Store      StoreConfig      `mapstructure:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	API        APIConfig        `mapstructure:"api"`
}

// EdgarConfig holds settings for the SEC archive client.
type EdgarConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	FetchWorkers      int           `mapstructure:"fetch_workers"`
}

// ClassifierConfig extends the built-in classification tables.
type ClassifierConfig struct {
	ExtraDenylist []string `mapstructure:"extra_denylist"`
	// RegimeSignals maps form types to flags; an empty flag removes a default.
	RegimeSignals map[string]string `mapstructure:"regime_signals"`
}

// OracleConfig selects the given-name oracle.
type OracleConfig struct {
	Provider  string        `mapstructure:"provider"`
	NamesFile string        `mapstructure:"names_file"`
	Cache     string        `mapstructure:"cache"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskSecret(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// RedisConfig holds the oracle cache connection.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// String masks the password.
func (c RedisConfig) String() string {
	return fmt.Sprintf("RedisConfig{Addr:%s, Password:%s, DB:%d, TTL:%s}", c.Addr, maskSecret(c.Password), c.DB, c.TTL)
}

// maskSecret shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskSecret(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// StoreConfig holds aggregation store settings.
type StoreConfig struct {
	Shards          int    `mapstructure:"shards"`
	ClassifyWorkers int    `mapstructure:"classify_workers"`
	SnapshotPath    string `mapstructure:"snapshot_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from defaults, an optional config file, a .env
// file in the working directory and environment variables, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".edgar-entities"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("EDGAR_ENTITIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("edgar.user_agent", "EDGAR_ENTITIES_EDGAR_USER_AGENT", "SEC_USER_AGENT")
	_ = v.BindEnv("redis.addr", "EDGAR_ENTITIES_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "EDGAR_ENTITIES_REDIS_PASSWORD", "REDIS_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("edgar.base_url", "https://www.sec.gov/Archives/edgar/daily-index/")
	v.SetDefault("edgar.user_agent", "edgar-entities admin@example.com")
	v.SetDefault("edgar.requests_per_second", 8.0)
	v.SetDefault("edgar.burst", 1)
	v.SetDefault("edgar.timeout", 30*time.Second)
	v.SetDefault("edgar.max_retries", 3)
	v.SetDefault("edgar.fetch_workers", 4)

	v.SetDefault("classifier.extra_denylist", []string{})
	v.SetDefault("classifier.regime_signals", map[string]string{})

	v.SetDefault("oracle.provider", OracleList)
	v.SetDefault("oracle.names_file", "")
	v.SetDefault("oracle.cache", CacheMemory)
	v.SetDefault("oracle.timeout", 10*time.Second)

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*24*time.Hour)

	v.SetDefault("store.shards", 32)
	v.SetDefault("store.classify_workers", 8)
	v.SetDefault("store.snapshot_path", filepath.Join(homeDir(), ".edgar-entities", "snapshot.json"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Edgar.BaseURL == "" {
		return fmt.Errorf("edgar.base_url must not be empty")
	}
	if strings.TrimSpace(c.Edgar.UserAgent) == "" {
		return fmt.Errorf("edgar.user_agent must not be empty")
	}
	if c.Edgar.RequestsPerSecond <= 0 || c.Edgar.RequestsPerSecond > 10 {
		return fmt.Errorf("edgar.requests_per_second must be in (0, 10]")
	}
	if c.Edgar.Burst <= 0 {
		return fmt.Errorf("edgar.burst must be greater than 0")
	}
	if c.Edgar.MaxRetries < 0 {
		return fmt.Errorf("edgar.max_retries must be >= 0")
	}
	if c.Edgar.FetchWorkers <= 0 {
		return fmt.Errorf("edgar.fetch_workers must be greater than 0")
	}
	if !slices.Contains([]string{OracleNone, OracleList, OracleClaude}, c.Oracle.Provider) {
		return fmt.Errorf("oracle.provider must be one of none, list, claude; got %q", c.Oracle.Provider)
	}
	if !slices.Contains([]string{CacheNone, CacheMemory, CacheRedis}, c.Oracle.Cache) {
		return fmt.Errorf("oracle.cache must be one of none, memory, redis; got %q", c.Oracle.Cache)
	}
	if c.Oracle.Provider == OracleClaude && c.Claude.APIKey == "" {
		return fmt.Errorf("claude.api_key must be set when oracle.provider is claude")
	}
	if c.Oracle.Cache == CacheRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when oracle.cache is redis")
	}
	if c.Store.Shards <= 0 {
		return fmt.Errorf("store.shards must be greater than 0")
	}
	if c.Store.ClassifyWorkers <= 0 {
		return fmt.Errorf("store.classify_workers must be greater than 0")
	}
	if c.Store.SnapshotPath == "" {
		return fmt.Errorf("store.snapshot_path must not be empty")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
