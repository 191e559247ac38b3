package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	S3         S3Config
	Gallery    GalleryConfig
	Dynamo     DynamoConfig
	Redis      RedisConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	URLMode         string
	PresignedTTL    time.Duration
}

type GalleryConfig struct {
	KeyPrefix          string
	PageSize           int
	SignedURLTTL       time.Duration
	CacheTTL           time.Duration
	MaxPayloadBytes    int64
	MaxImageBytes      int
	UploadsPageLimit   int
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type DynamoConfig struct {
	Enabled            bool
	TableImageMetadata string
	Region             string
	Endpoint           string
	AccessKeyID        string
	SecretAccessKey    string
	StrongReads        bool
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

type CloudWatchConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	LogsEnabled       bool
	LogGroupName      string
	LogStreamName     string
	LogsBufferSize    int
	LogsFlushInterval time.Duration

	MetricsEnabled       bool
	MetricsNamespace     string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
}

func Load() (*Config, error) {
	// Ignore a missing .env file, env vars win anyway.
	_ = godotenv.Load()

	presignedTTL, err := parseDuration(getEnv("S3_PRESIGNED_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGNED_TTL: %w", err)
	}

	pageSize, err := strconv.Atoi(getEnv("GALLERY_PAGE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_PAGE_SIZE: %w", err)
	}

	signedURLTTL, err := parseDuration(getEnv("GALLERY_SIGNED_URL_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_SIGNED_URL_TTL: %w", err)
	}

	cacheTTL, err := parseDuration(getEnv("GALLERY_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_CACHE_TTL: %w", err)
	}

	maxPayloadMB, err := strconv.Atoi(getEnv("GALLERY_MAX_PAYLOAD_MB", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_MAX_PAYLOAD_MB: %w", err)
	}

	maxImageMB, err := strconv.Atoi(getEnv("GALLERY_MAX_IMAGE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_MAX_IMAGE_MB: %w", err)
	}

	uploadsPageLimit, err := strconv.Atoi(getEnv("GALLERY_UPLOADS_PAGE_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_UPLOADS_PAGE_LIMIT: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("GALLERY_RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("GALLERY_RATE_LIMIT_BURST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid GALLERY_RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	logsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	logsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_LOGS_BUFFER_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_BUFFER_SIZE: %w", err)
	}

	metricsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	metricsBufferSize, err := strconv.Atoi(getEnv("CLOUDWATCH_METRICS_BUFFER_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_BUFFER_SIZE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		S3: S3Config{
			Enabled:         getEnvBool("S3_ENABLED", true),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			URLMode:         getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    presignedTTL,
		},
		Gallery: GalleryConfig{
			KeyPrefix:          getEnv("GALLERY_KEY_PREFIX", "gallery"),
			PageSize:           pageSize,
			SignedURLTTL:       signedURLTTL,
			CacheTTL:           cacheTTL,
			MaxPayloadBytes:    int64(maxPayloadMB) * 1024 * 1024,
			MaxImageBytes:      maxImageMB * 1024 * 1024,
			UploadsPageLimit:   uploadsPageLimit,
			RateLimitPerSecond: rateLimitRPS,
			RateLimitBurst:     rateLimitBurst,
		},
		Dynamo: DynamoConfig{
			Enabled:            getEnvBool("DYNAMO_ENABLED", false),
			TableImageMetadata: getEnv("DYNAMO_TABLE_IMAGE_METADATA", "gallery-image-metadata"),
			Region:             getEnv("DYNAMO_REGION", "us-east-1"),
			Endpoint:           getEnv("DYNAMO_ENDPOINT", ""),
			AccessKeyID:        getEnv("DYNAMO_ACCESS_KEY_ID", ""),
			SecretAccessKey:    getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
			StrongReads:        getEnvBool("DYNAMO_STRONG_READS", false),
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "gallery"),
		},
		CloudWatch: CloudWatchConfig{
			Region:               getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:             getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			LogsEnabled:          getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:         getEnv("CLOUDWATCH_LOG_GROUP", "/gallery-api/app"),
			LogStreamName:        getEnv("CLOUDWATCH_LOG_STREAM", "server"),
			LogsBufferSize:       logsBufferSize,
			LogsFlushInterval:    logsFlushInterval,
			MetricsEnabled:       getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace:     getEnv("CLOUDWATCH_METRICS_NAMESPACE", "GalleryAPI"),
			MetricsBufferSize:    metricsBufferSize,
			MetricsFlushInterval: metricsFlushInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if cfg.Gallery.PageSize <= 0 {
		return nil, fmt.Errorf("GALLERY_PAGE_SIZE must be positive")
	}
	if cfg.Gallery.SignedURLTTL <= 0 {
		return nil, fmt.Errorf("GALLERY_SIGNED_URL_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	current := ""

	for _, r := range raw {
		if r == ',' {
			if current != "" {
				items = append(items, current)
				current = ""
			}
			continue
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			current += string(r)
		}
	}

	if current != "" {
		items = append(items, current)
	}

	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
