package cfg

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SQLiteConfig struct {
	Path string
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type AviationStackClientConfig struct {
	BaseURL   string
	AccessKey string
	Limit     int
}

type ObservabilityConfig struct {
	Enabled          bool
	ServiceName      string
	OTLPEndpoint     string
	Environment      string
	MetricInterval   time.Duration
	TraceSampleRatio float64
}

type Config struct {
	AppEnv              string
	AppPort             string
	DBDriver            string
	Postgres            PostgresConfig
	SQLite              SQLiteConfig
	Pool                PoolConfig
	RedisConfig         RedisConfig
	AviationStackConfig AviationStackClientConfig
	HTTPClientTimeout   time.Duration
	ImportInterval      time.Duration
	CacheTTLMinutes     int
	SnowflakeNodeID     int64
	Observability       ObservabilityConfig
}

// CacheEnabled reports whether a redis host is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisConfig.Host != ""
}

func Load() (*Config, error) {
	var errs []error

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	appPort := mustEnv("APP_PORT", &errs)
	dbDriver := mustEnv("DB_DRIVER", &errs)

	var postgres PostgresConfig
	var sqlite SQLiteConfig
	switch dbDriver {
	case "postgres":
		postgres = PostgresConfig{
			Host:     mustEnv("POSTGRES_HOST", &errs),
			Port:     mustEnv("POSTGRES_PORT", &errs),
			User:     mustEnv("POSTGRES_USER", &errs),
			Password: mustEnv("POSTGRES_PASSWORD", &errs),
			DBName:   mustEnv("POSTGRES_DB", &errs),
			SSLMode:  mustEnv("POSTGRES_SSLMODE", &errs),
		}
	case "sqlite":
		sqlite = SQLiteConfig{Path: mustEnv("SQLITE_PATH", &errs)}
	case "":
	default:
		errs = append(errs, errors.New("unsupported DB_DRIVER: "+dbDriver))
	}

	baseURL := mustEnv("AVIATIONSTACK_BASE_URL", &errs)
	accessKey := mustEnv("AVIATIONSTACK_ACCESS_KEY", &errs)

	limit := intEnv("AVIATIONSTACK_LIMIT", 100, &errs)
	timeoutSeconds := intEnv("HTTP_CLIENT_TIMEOUT_SECONDS", 10, &errs)
	intervalMinutes := intEnv("IMPORT_INTERVAL_MINUTES", 0, &errs)
	cacheTTLMinutes := intEnv("CACHE_TTL_MINUTES", 1, &errs)
	nodeID := intEnv("SNOWFLAKE_NODE_ID", 1, &errs)

	maxOpen := intEnv("DB_MAX_OPEN_CONNS", 10, &errs)
	maxIdle := intEnv("DB_MAX_IDLE_CONNS", 5, &errs)
	maxLifetime := intEnv("DB_CONN_MAX_LIFETIME_MINUTES", 30, &errs)
	maxIdleTime := intEnv("DB_CONN_MAX_IDLE_MINUTES", 5, &errs)

	otelEnabled := boolEnv("OTEL_ENABLED", false, &errs)
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEnabled && otelEndpoint == "" {
		errs = append(errs, errors.New("missing env: OTEL_EXPORTER_OTLP_ENDPOINT"))
	}
	metricIntervalSeconds := intEnv("OTEL_METRIC_INTERVAL_SECONDS", 60, &errs)
	sampleRatio := floatEnv("OTEL_TRACES_SAMPLER_ARG", 1, &errs)
	if sampleRatio > 1 {
		errs = append(errs, errors.New("conversion failed env: OTEL_TRACES_SAMPLER_ARG"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:   appEnv,
		AppPort:  appPort,
		DBDriver: dbDriver,
		Postgres: postgres,
		SQLite:   sqlite,
		Pool: PoolConfig{
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: time.Duration(maxLifetime) * time.Minute,
			ConnMaxIdleTime: time.Duration(maxIdleTime) * time.Minute,
		},
		RedisConfig: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     envOr("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		AviationStackConfig: AviationStackClientConfig{
			BaseURL:   baseURL,
			AccessKey: accessKey,
			Limit:     limit,
		},
		HTTPClientTimeout: time.Duration(timeoutSeconds) * time.Second,
		ImportInterval:    time.Duration(intervalMinutes) * time.Minute,
		CacheTTLMinutes:   cacheTTLMinutes,
		SnowflakeNodeID:   int64(nodeID),
		Observability: ObservabilityConfig{
			Enabled:          otelEnabled,
			ServiceName:      envOr("OTEL_SERVICE_NAME", "flightsync"),
			OTLPEndpoint:     otelEndpoint,
			Environment:      appEnv,
			MetricInterval:   time.Duration(metricIntervalSeconds) * time.Second,
			TraceSampleRatio: sampleRatio,
		},
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return fallback
	}
	return b
}

func floatEnv(key string, fallback float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		*errs = append(*errs, errors.New("conversion failed env: "+key))
		return fallback
	}
	return f
}
