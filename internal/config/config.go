package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// AppURL is the public base URL used to build vendor links and document locators.
	AppURL          string
	DefaultActor    string
	DefaultCurrency string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Artifact     ArtifactConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Document     DocumentConfig
	MetricsPush  MetricsPushConfig
}

// MetricsPushConfig ships /metrics to a remote_write endpoint or a
// Pushgateway. Exporter empty means pull only.
type MetricsPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

// DocumentConfig tunes document memoization and single-flight rendering.
type DocumentConfig struct {
	CacheTTL      time.Duration
	RenderTimeout time.Duration
	LockTTL       time.Duration
	LockWait      time.Duration
}

// RateLimitConfig bounds document retrievals per client. It needs Redis.
type RateLimitConfig struct {
	Enabled       bool
	DocumentRate  float64
	DocumentBurst int
}

// ArtifactConfig selects where rendered documents are stored. Driver is
// "fs" (default) or "oss".
type ArtifactConfig struct {
	Driver  string
	Dir     string
	BaseURL string

	OSSEndpoint      string
	OSSAccessKey     string
	OSSSecretKey     string
	OSSSecurityToken string
	OSSBucket        string
	OSSPrefix        string
	OSSPublicBase    string
}

// NotificationConfig carries the per-event webhook endpoints.
type NotificationConfig struct {
	WorkOrderPublishedURL string        `mapstructure:"workOrderPublishedUrl"`
	PaymentUpdatedURL     string        `mapstructure:"paymentUpdatedUrl"`
	Timeout               time.Duration `mapstructure:"timeout"`
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewNotificationHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	appURL := strings.TrimRight(strings.TrimSpace(getenv("APP_URL", "http://localhost:8080")), "/")

	cfg := Config{
		AppName:         getenv("APP_SERVICE", "spk"),
		AppVersion:      getenv("APP_VERSION", "0.1.0"),
		Environment:     getenv("ENVIRONMENT", "development"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		AppURL:          appURL,
		DefaultActor:    strings.TrimSpace(getenv("DEFAULT_ACTOR", "admin@company.com")),
		DefaultCurrency: strings.ToUpper(strings.TrimSpace(getenv("DEFAULT_CURRENCY", "IDR"))),

		LogLevel:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),

		OtelEnabled:          getenvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OtelExporterProtocol: strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelSamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "spk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "spk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Artifact: ArtifactConfig{
			Driver:  strings.ToLower(strings.TrimSpace(getenv("ARTIFACT_DRIVER", "fs"))),
			Dir:     getenv("ARTIFACT_DIR", "./data/artifacts"),
			BaseURL: strings.TrimRight(getenv("ARTIFACT_BASE_URL", appURL+"/files"), "/"),

			OSSEndpoint:      strings.TrimSpace(getenv("ALI_OSS_ENDPOINT", "")),
			OSSAccessKey:     strings.TrimSpace(getenv("ALI_OSS_ACCESS_KEY", "")),
			OSSSecretKey:     strings.TrimSpace(getenv("ALI_OSS_SECRET_KEY", "")),
			OSSSecurityToken: strings.TrimSpace(getenv("ALI_OSS_SECURITY_TOKEN", "")),
			OSSBucket:        strings.TrimSpace(getenv("ALI_OSS_BUCKET", "")),
			OSSPrefix:        strings.Trim(getenv("ALI_OSS_PREFIX", "spk"), "/"),
			OSSPublicBase:    strings.TrimRight(strings.TrimSpace(getenv("ALI_OSS_PUBLIC_BASE", "")), "/"),
		},
		Notification: NotificationConfig{
			WorkOrderPublishedURL: strings.TrimSpace(getenv("WEBHOOK_WORKORDER_PUBLISHED_URL", "")),
			PaymentUpdatedURL:     strings.TrimSpace(getenv("WEBHOOK_PAYMENT_UPDATED_URL", "")),
			Timeout:               getenvDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		},
		Document: DocumentConfig{
			CacheTTL:      getenvDuration("DOCUMENT_CACHE_TTL", 10*time.Minute),
			RenderTimeout: getenvDuration("DOCUMENT_RENDER_TIMEOUT", 30*time.Second),
			LockTTL:       getenvDuration("DOCUMENT_LOCK_TTL", time.Minute),
			LockWait:      getenvDuration("DOCUMENT_LOCK_WAIT", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			DocumentRate:  getenvFloat("RATE_LIMIT_DOCUMENT_RATE", 2),
			DocumentBurst: getenvInt("RATE_LIMIT_DOCUMENT_BURST", 10),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
			Interval:  getenvDuration("METRICS_PUSH_INTERVAL", time.Minute),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
