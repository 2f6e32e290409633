package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Ingest    IngestConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	RabbitMQ  RabbitMQConfig
	Redis     RedisConfig
	Provider  ProviderConfig
	Catalog   CatalogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// SlogLevel maps LogLevel onto slog, falling back to info for unknown values.
func (c ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type IngestConfig struct {
	MaxRetries      int           `envconfig:"INGEST_MAX_RETRIES" default:"3"`
	Prefetch        int           `envconfig:"INGEST_PREFETCH" default:"10"`
	ShutdownTimeout time.Duration `envconfig:"INGEST_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"mediafeed"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"mediafeed"`
	DBName   string `envconfig:"POSTGRES_DB" default:"mediafeed"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"media"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"mediafeed"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"mediafeed"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
	Queue    string `envconfig:"RABBITMQ_QUEUE" default:"media_uploaded"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

// RedisConfig configures the shared result cache. An empty Host disables Redis
// and the API falls back to the in-process cache alone.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type ProviderConfig struct {
	APIKey           string        `envconfig:"PROVIDER_API_KEY"`
	Host             string        `envconfig:"PROVIDER_HOST" default:"youtube-v31.p.rapidapi.com"`
	BaseURL          string        `envconfig:"PROVIDER_BASE_URL"`
	Timeout          time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	DefaultThumbnail string        `envconfig:"DEFAULT_THUMBNAIL_URL" default:"https://youtubeapi-frontend-statics3.s3.us-east-1.amazonaws.com/assets/default-thumbnail.png"`
}

type CatalogConfig struct {
	Categories       []string      `envconfig:"CATEGORIES" default:"training,New,Home,programming,music,sports,news,Atlanta"`
	DefaultCategory  string        `envconfig:"DEFAULT_CATEGORY" default:"New"`
	CategoryPageSize int           `envconfig:"CATEGORY_PAGE_SIZE" default:"5"`
	ListingTTL       time.Duration `envconfig:"CATEGORY_CACHE_TTL" default:"300s"`
	DetailTTL        time.Duration `envconfig:"DETAIL_CACHE_TTL" default:"3600s"`
	CacheMaxEntries  int           `envconfig:"CACHE_MAX_ENTRIES" default:"1000"`
	DefaultResults   int           `envconfig:"SEARCH_DEFAULT_RESULTS" default:"10"`
	MaxResults       int           `envconfig:"SEARCH_MAX_RESULTS" default:"100"`
	PlaybackExpiry   time.Duration `envconfig:"PLAYBACK_URL_EXPIRY" default:"1h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

type RateLimitConfig struct {
	Requests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	Window   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	Burst    int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

type UploadConfig struct {
	URLExpiry     time.Duration `envconfig:"UPLOAD_URL_EXPIRY" default:"10m"`
	MaxUploadSize int64         `envconfig:"UPLOAD_MAX_SIZE" default:"524288000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Catalog.Categories = trimAll(c.Catalog.Categories)
	c.CORS.AllowedOrigins = trimAll(c.CORS.AllowedOrigins)

	if len(c.Catalog.Categories) == 0 {
		return fmt.Errorf("CATEGORIES must name at least one category")
	}
	found := false
	for _, category := range c.Catalog.Categories {
		if category == c.Catalog.DefaultCategory {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("DEFAULT_CATEGORY %q is not in CATEGORIES", c.Catalog.DefaultCategory)
	}
	if c.Catalog.CategoryPageSize <= 0 {
		return fmt.Errorf("CATEGORY_PAGE_SIZE must be positive, got %d", c.Catalog.CategoryPageSize)
	}
	if c.Catalog.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.Catalog.CacheMaxEntries)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
