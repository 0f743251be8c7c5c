package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Hierarchy HierarchyConfig
	Exports   ExportsConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds the tree cache connection. URL, when set, wins over the
// discrete fields.
type RedisConfig struct {
	URL       string
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// JWTConfig validates tokens minted by the auth service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// HierarchyConfig tunes tree resolution and its cache.
type HierarchyConfig struct {
	CacheEnabled        bool
	CacheTTL            time.Duration
	ContentLevel        int
	Locale              string
	InvalidationWorkers int
	InvalidationRetries int
}

// ExportsConfig gates the collection outline downloads.
type ExportsConfig struct {
	Enabled bool
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Exporter     string
	Endpoint     string
	Insecure     bool
	SamplerRatio float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ApplicationName: v.GetString("DB_APPLICATION_NAME"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnectTimeout:  parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		URL:       v.GetString("REDIS_URL"),
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		KeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	contentLevel := v.GetInt("HIERARCHY_CONTENT_LEVEL")
	if contentLevel <= 0 {
		contentLevel = 4
	}
	workers := v.GetInt("HIERARCHY_INVALIDATION_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.Hierarchy = HierarchyConfig{
		CacheEnabled:        v.GetBool("ENABLE_HIERARCHY_CACHE"),
		CacheTTL:            parseDuration(v.GetString("HIERARCHY_CACHE_TTL"), 5*time.Minute),
		ContentLevel:        contentLevel,
		Locale:              v.GetString("HIERARCHY_LOCALE"),
		InvalidationWorkers: workers,
		InvalidationRetries: v.GetInt("HIERARCHY_INVALIDATION_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	ratio := v.GetFloat64("OTEL_SAMPLER_RATIO")
	if ratio < 0 || ratio > 1 {
		ratio = 1
	}
	cfg.Telemetry = TelemetryConfig{
		Enabled:      v.GetBool("OTEL_ENABLED"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		Exporter:     strings.ToLower(v.GetString("OTEL_TRACES_EXPORTER")),
		Endpoint:     v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:     v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		SamplerRatio: ratio,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms_content")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_APPLICATION_NAME", "lms-content-api")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_HIERARCHY_CACHE", true)
	v.SetDefault("HIERARCHY_CACHE_TTL", "5m")
	v.SetDefault("HIERARCHY_CONTENT_LEVEL", 4)
	v.SetDefault("HIERARCHY_LOCALE", "und")
	v.SetDefault("HIERARCHY_INVALIDATION_WORKERS", 1)
	v.SetDefault("HIERARCHY_INVALIDATION_RETRIES", 3)

	v.SetDefault("ENABLE_EXPORTS", false)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "lms-content-api")
	v.SetDefault("OTEL_TRACES_EXPORTER", "otlp")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_SAMPLER_RATIO", 1.0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
