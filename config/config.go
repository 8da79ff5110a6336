package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Matching MatchingConfig `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables a rotating log file next to the console output
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// StoreConfig selects the specification/product store
type StoreConfig struct {
	Type     string `mapstructure:"type"` // "memory" or "postgres"
	SeedFile string `mapstructure:"seed_file"`
}

// DatabaseConfig holds postgres settings
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CatalogConfig points at the scraper's product API. An empty BaseURL reads
// products from the configured store instead.
type CatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// KafkaConfig holds the catalog-refresh consumer settings
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// MatchingConfig holds thresholds and limits of the matching workflows
type MatchingConfig struct {
	AutoThreshold    float64 `mapstructure:"auto_threshold"`
	ReviewThreshold  float64 `mapstructure:"review_threshold"`
	CleanupThreshold float64 `mapstructure:"cleanup_threshold"`
	ReviewLimit      int     `mapstructure:"review_limit"`
	CandidateLimit   int     `mapstructure:"candidate_limit"`
	Workers          int     `mapstructure:"workers"`
	RematchAllLimit  int     `mapstructure:"rematch_all_limit"`
	// CategorySources overrides the storefront keys per category; keys are
	// category names in any accepted spelling.
	CategorySources map[string][]string `mapstructure:"category_sources"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scraper-backend/")

	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key is registered so
// that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "console")

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.seed_file", "")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "5m")

	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.requests_per_second", 5.0)
	v.SetDefault("catalog.burst", 10)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "catalog-refreshed")
	v.SetDefault("kafka.group_id", "scraper-matcher")

	v.SetDefault("matching.auto_threshold", 0.7)
	v.SetDefault("matching.review_threshold", 0.1)
	v.SetDefault("matching.cleanup_threshold", 0.65)
	v.SetDefault("matching.review_limit", 20)
	v.SetDefault("matching.candidate_limit", 50)
	v.SetDefault("matching.workers", 4)
	v.SetDefault("matching.rematch_all_limit", 10)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Store.Type {
	case "memory":
	case "postgres":
		if config.Database.DSN == "" {
			return fmt.Errorf("database DSN is required when store type is 'postgres' (set SCRAPER_DATABASE_DSN)")
		}
	default:
		return fmt.Errorf("store type must be 'memory' or 'postgres', got: %s", config.Store.Type)
	}

	switch config.Cache.Type {
	case "none", "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Log.Format != "console" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	if config.Kafka.Enabled && (len(config.Kafka.Brokers) == 0 || config.Kafka.Topic == "") {
		return fmt.Errorf("kafka brokers and topic are required when kafka is enabled")
	}

	m := config.Matching
	for name, value := range map[string]float64{
		"auto_threshold":    m.AutoThreshold,
		"review_threshold":  m.ReviewThreshold,
		"cleanup_threshold": m.CleanupThreshold,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("matching.%s must be within [0,1], got: %v", name, value)
		}
	}
	if m.ReviewThreshold > m.AutoThreshold {
		return fmt.Errorf("matching.review_threshold (%v) must not exceed auto_threshold (%v)", m.ReviewThreshold, m.AutoThreshold)
	}
	if m.Workers < 1 {
		return fmt.Errorf("matching.workers must be at least 1, got: %d", m.Workers)
	}
	if _, err := m.CategoryMapping(); err != nil {
		return err
	}

	return nil
}

// CategoryMapping returns the default storefront mapping with the configured
// overrides applied
func (m MatchingConfig) CategoryMapping() (domain.CategoryMapping, error) {
	mapping := domain.DefaultCategoryMapping()
	for name, keys := range m.CategorySources {
		c, err := domain.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("matching.category_sources: %w", err)
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("matching.category_sources.%s has no source keys", name)
		}
		mapping[c] = keys
	}
	return mapping, nil
}
