package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/edu-content/pkg/messaging/redis"
)

// EnvPrefix prefixes every environment override, e.g. EDU_SERVER_PORT.
const EnvPrefix = "EDU"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Validation ValidationConfig `mapstructure:"validation"`
	Log        LogConfig        `mapstructure:"log"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Export     ExportConfig     `mapstructure:"export"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig selects the content tree. An empty Dir means the embedded
// seed catalog.
type CatalogConfig struct {
	Dir         string `mapstructure:"dir"`
	Concurrency int    `mapstructure:"concurrency"`
	// ReloadInterval re-reads Dir while the API runs. Zero disables it.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
}

type ValidationConfig struct {
	StrictReferences    bool `mapstructure:"strict_references"`
	RequireTranslations bool `mapstructure:"require_translations"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DSN          string `mapstructure:"dsn"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// ConnString returns DSN when set, otherwise a key/value string built from
// the individual fields.
func (c DatabaseConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`

	// Reload notices from the API go through a breaker that opens after
	// BreakerMaxFailures consecutive failures and retries after BreakerTimeout.
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

type ExportConfig struct {
	Strict   bool          `mapstructure:"strict"`
	FilePath string        `mapstructure:"file_path"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// RetentionDays prunes stored snapshots older than this after a
	// successful export. Zero keeps everything.
	RetentionDays int `mapstructure:"retention_days"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	// PushgatewayURL receives the metrics of one-shot commands. Empty disables pushing.
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// envOverrides lists the settings that can be overridden from the
// environment. Unset variables leave the pointer nil.
type envOverrides struct {
	ServerPort          *int     `envconfig:"SERVER_PORT"`
	ServerMode          *string  `envconfig:"SERVER_MODE"`
	CatalogDir          *string  `envconfig:"CATALOG_DIR"`
	StrictReferences    *bool    `envconfig:"STRICT_REFERENCES"`
	RequireTranslations *bool    `envconfig:"REQUIRE_TRANSLATIONS"`
	LogLevel            *string  `envconfig:"LOG_LEVEL"`
	LogJSON             *bool    `envconfig:"LOG_JSON"`
	RateLimitRPS        *float64 `envconfig:"RATE_LIMIT_RPS"`
	DatabaseEnabled     *bool    `envconfig:"DATABASE_ENABLED"`
	DatabaseDSN         *string  `envconfig:"DATABASE_DSN"`
	RedisEnabled        *bool    `envconfig:"REDIS_ENABLED"`
	RedisURL            *string  `envconfig:"REDIS_URL"`
	ExportFilePath      *string  `envconfig:"EXPORT_FILE_PATH"`
	PushgatewayURL      *string  `envconfig:"PUSHGATEWAY_URL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.concurrency", 8)
	v.SetDefault("catalog.reload_interval", 0)

	v.SetDefault("validation.strict_references", false)
	v.SetDefault("validation.require_translations", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "content.catalog")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.breaker_max_failures", 3)
	v.SetDefault("redis.breaker_timeout", 30*time.Second)

	v.SetDefault("export.strict", true)
	v.SetDefault("export.file_path", "")
	v.SetDefault("export.timeout", 30*time.Second)
	v.SetDefault("export.retention_days", 0)

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.pushgateway_url", "")
}

// LoadConfig reads config.yml from path, or from "." and "./config" when path
// is empty. A missing file is only an error when path is explicit. A .env
// file is loaded first if present, then EDU_* variables override the file.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyEnv(c *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.ServerPort != nil {
		c.Server.Port = *env.ServerPort
	}
	if env.ServerMode != nil {
		c.Server.Mode = *env.ServerMode
	}
	if env.CatalogDir != nil {
		c.Catalog.Dir = *env.CatalogDir
	}
	if env.StrictReferences != nil {
		c.Validation.StrictReferences = *env.StrictReferences
	}
	if env.RequireTranslations != nil {
		c.Validation.RequireTranslations = *env.RequireTranslations
	}
	if env.LogLevel != nil {
		c.Log.Level = *env.LogLevel
	}
	if env.LogJSON != nil {
		c.Log.JSON = *env.LogJSON
	}
	if env.RateLimitRPS != nil {
		c.RateLimit.RequestsPerSecond = *env.RateLimitRPS
	}
	if env.DatabaseEnabled != nil {
		c.Database.Enabled = *env.DatabaseEnabled
	}
	if env.DatabaseDSN != nil {
		c.Database.DSN = *env.DatabaseDSN
	}
	if env.RedisEnabled != nil {
		c.Redis.Enabled = *env.RedisEnabled
	}
	if env.RedisURL != nil {
		c.Redis.URL = *env.RedisURL
	}
	if env.ExportFilePath != nil {
		c.Export.FilePath = *env.ExportFilePath
	}
	if env.PushgatewayURL != nil {
		c.Monitoring.PushgatewayURL = *env.PushgatewayURL
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.Catalog.ReloadInterval < 0 {
		problems = append(problems, "catalog.reload_interval cannot be negative")
	}
	if c.Catalog.Concurrency < 1 {
		problems = append(problems, "catalog.concurrency must be at least 1")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		problems = append(problems, "rate_limit needs a positive requests_per_second and burst")
	}
	if c.Database.Enabled && c.Database.DSN == "" && c.Database.Name == "" {
		problems = append(problems, "database.dsn or database.name is required when the database is enabled")
	}
	if c.Export.RetentionDays < 0 {
		problems = append(problems, "export.retention_days cannot be negative")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		problems = append(problems, "redis.url is required when redis is enabled")
	}
	if c.Redis.Enabled && c.Redis.BreakerMaxFailures < 1 {
		problems = append(problems, "redis.breaker_max_failures must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ToBrokerConfig converts the redis section for the message broker.
func (c RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
