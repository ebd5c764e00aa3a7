package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	CatalogSourcePostgres = "postgres"
	CatalogSourceSnapshot = "snapshot"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	CORS         CORSConfig
	Log          LogConfig
	Catalog      CatalogConfig
	Analyzer     AnalyzerConfig
	Alternatives AlternativesConfig
	Generator    GeneratorConfig
	Tracing      TracingConfig
	Export       ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig selects where course, unit and study plan records are read from.
type CatalogConfig struct {
	Source       string
	SnapshotPath string
}

// AnalyzerConfig holds the thresholds used for schedule suggestions.
type AnalyzerConfig struct {
	HeavyDayHours   float64
	LargeGapMinutes int
}

// AlternativesConfig bounds the alternative finder result size.
type AlternativesConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// GeneratorConfig governs the study plan timetable generator.
type GeneratorConfig struct {
	FetchConcurrency int
	FetchTimeout     time.Duration
	RepairEnabled    bool
}

// TracingConfig toggles OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// ExportConfig gates the CSV/PDF timetable export endpoint.
type ExportConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		Source:       strings.ToLower(v.GetString("CATALOG_SOURCE")),
		SnapshotPath: v.GetString("CATALOG_SNAPSHOT_PATH"),
	}

	cfg.Analyzer = AnalyzerConfig{
		HeavyDayHours:   v.GetFloat64("ANALYZER_HEAVY_DAY_HOURS"),
		LargeGapMinutes: v.GetInt("ANALYZER_LARGE_GAP_MINUTES"),
	}

	cfg.Alternatives = AlternativesConfig{
		DefaultLimit: v.GetInt("ALTERNATIVES_DEFAULT_LIMIT"),
		MaxLimit:     v.GetInt("ALTERNATIVES_MAX_LIMIT"),
	}

	cfg.Generator = GeneratorConfig{
		FetchConcurrency: v.GetInt("GENERATOR_FETCH_CONCURRENCY"),
		FetchTimeout:     parseDuration(v.GetString("GENERATOR_FETCH_TIMEOUT"), 10*time.Second),
		RepairEnabled:    v.GetBool("GENERATOR_REPAIR_ENABLED"),
	}

	cfg.Tracing = TracingConfig{
		Enabled:     v.GetBool("OTEL_ENABLED"),
		ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		SampleRatio: v.GetFloat64("OTEL_SAMPLER_RATIO"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
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
	v.SetDefault("DB_NAME", "study_catalog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_SOURCE", CatalogSourcePostgres)
	v.SetDefault("CATALOG_SNAPSHOT_PATH", "./catalog.yaml")

	v.SetDefault("ANALYZER_HEAVY_DAY_HOURS", 6)
	v.SetDefault("ANALYZER_LARGE_GAP_MINUTES", 120)

	v.SetDefault("ALTERNATIVES_DEFAULT_LIMIT", 5)
	v.SetDefault("ALTERNATIVES_MAX_LIMIT", 20)

	v.SetDefault("GENERATOR_FETCH_CONCURRENCY", 8)
	v.SetDefault("GENERATOR_FETCH_TIMEOUT", "10s")
	v.SetDefault("GENERATOR_REPAIR_ENABLED", true)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "timetable-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)

	v.SetDefault("ENABLE_EXPORT", true)
}

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file")
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
