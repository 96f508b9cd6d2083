package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	// DuplicateWindow is how long the stream remembers message ids for publish dedup
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// RedisConfig holds Redis configuration for the lock coordinator and the no-hit cache
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LockConfig holds vendor lock configuration
type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// CloudflareConfig holds Cloudflare Images configuration for the cover store
type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
	// Variant is the delivery variant whose URL is stored on the Image
	Variant      string `mapstructure:"variant"`
	MaxImageSize int64  `mapstructure:"max_image_size"`
}

// SearchConfig holds the bibliographic search service configuration
type SearchConfig struct {
	URL               string        `mapstructure:"url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// NoHitConfig holds the no-hit deduplication cache configuration
type NoHitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// HTTPConfig holds outbound HTTP configuration
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// VendorConfig holds feed location and credentials for one vendor adapter
type VendorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// URL is the feed location
	URL string `mapstructure:"url"`
	// ImageURL is the base covers are served from, for feeds that only list identifiers
	ImageURL string `mapstructure:"image_url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Rank     int    `mapstructure:"rank"`
}

// VendorsConfig holds all vendor adapter configurations
type VendorsConfig struct {
	Bogportalen VendorConfig `mapstructure:"bogportalen"`
	Saxo        VendorConfig `mapstructure:"saxo"`
	Publizon    VendorConfig `mapstructure:"publizon"`
	ComicsPlus  VendorConfig `mapstructure:"comicsplus"`
}

// WorkerPoolConfig holds internal worker pool configuration
type WorkerPoolConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// HarvesterConfig holds configuration for the harvester program
type HarvesterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Lock       LockConfig       `mapstructure:"lock"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Vendors    VendorsConfig    `mapstructure:"vendors"`
	Worker     WorkerPoolConfig `mapstructure:"worker"`
	BatchSize  int              `mapstructure:"batch_size"`
}

// WorkerConfig holds configuration for the stage worker program
type WorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Search     SearchConfig     `mapstructure:"search"`
	NoHit      NoHitConfig      `mapstructure:"nohit"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// LoadHarvesterConfig loads configuration for the harvester
func LoadHarvesterConfig(configFile string, envPath string) (*HarvesterConfig, error) {
	v := configureViper("harvester", configFile, envPath)

	setCommonDefaults(v)
	v.SetDefault("nats.connection_name", "cover-harvester")
	v.SetDefault("lock.ttl", "2h")
	v.SetDefault("http.timeout", "5m")
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("batch_size", 200)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg HarvesterConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.BatchSize <= 0 || cfg.BatchSize > 200 {
		return nil, fmt.Errorf("batch_size must be between 1 and 200, got %d", cfg.BatchSize)
	}

	return &cfg, nil
}

// LoadWorkerConfig loads configuration for the stage worker
func LoadWorkerConfig(configFile string, envPath string) (*WorkerConfig, error) {
	v := configureViper("worker", configFile, envPath)

	setCommonDefaults(v)
	v.SetDefault("nats.connection_name", "cover-worker")
	v.SetDefault("nats.ack_wait", "60s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("cloudflare.variant", "public")
	v.SetDefault("cloudflare.max_image_size", 10*1024*1024) // 10MB
	v.SetDefault("search.url", "https://openlibrary.org")
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.requests_per_second", 5)
	v.SetDefault("nohit.enabled", false)
	v.SetDefault("nohit.ttl", "24h")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("metrics.addr", ":9090")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "COVERS")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.duplicate_window", "2m")
	v.SetDefault("redis.addr", "localhost:6379")
}

// readConfig reads the config file, falling back to environment variables when there is none
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("COVER_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds every key so env vars map onto struct fields without a config file
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"batch_size",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.duplicate_window",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		"lock.ttl",
		// Cloudflare
		"cloudflare.account_id",
		"cloudflare.api_token",
		"cloudflare.variant",
		"cloudflare.max_image_size",
		// Search
		"search.url",
		"search.timeout",
		"search.requests_per_second",
		"nohit.enabled",
		"nohit.ttl",
		"http.timeout",
		"metrics.addr",
		"worker.pool_size",
	}
	for _, vendor := range []string{"bogportalen", "saxo", "publizon", "comicsplus"} {
		for _, field := range []string{"enabled", "url", "image_url", "user", "password", "rank"} {
			keys = append(keys, "vendors."+vendor+"."+field)
		}
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads .env files from envPath, later files overriding earlier ones
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
