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

// Write modes for the event writer.
const (
	WriteModeTransactional = "transactional"
	WriteModeSequential    = "sequential"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Directory DirectoryConfig
	Authoring AuthoringConfig
	Uploads   UploadsConfig
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

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig controls the zap encoder and the optional rotating file sink.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DirectoryConfig governs the public directory read path.
type DirectoryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	Timezone     string
}

// AuthoringConfig tunes authoring sessions and the event writer.
type AuthoringConfig struct {
	SessionTTL    time.Duration
	WriteMode     string
	SweepSchedule string
}

// UploadsConfig configures route image storage.
type UploadsConfig struct {
	StorageDir        string
	PublicBaseURL     string
	MaxFileSizeBytes  int64
	AllowedMIMEs      []string
	WorkerConcurrency int
	WorkerRetries     int
	OrphanTTL         time.Duration
}

// Location resolves the configured directory timezone, falling back to UTC.
func (c DirectoryConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	cfg.Directory = DirectoryConfig{
		CacheEnabled: v.GetBool("DIRECTORY_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("DIRECTORY_CACHE_TTL"), 5*time.Minute),
		Timezone:     v.GetString("DIRECTORY_TIMEZONE"),
	}

	writeMode := strings.ToLower(strings.TrimSpace(v.GetString("AUTHORING_WRITE_MODE")))
	if writeMode != WriteModeSequential {
		writeMode = WriteModeTransactional
	}
	cfg.Authoring = AuthoringConfig{
		SessionTTL:    parseDuration(v.GetString("AUTHORING_SESSION_TTL"), 2*time.Hour),
		WriteMode:     writeMode,
		SweepSchedule: v.GetString("AUTHORING_SWEEP_SCHEDULE"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:        v.GetString("UPLOADS_STORAGE_DIR"),
		PublicBaseURL:     strings.TrimRight(v.GetString("UPLOADS_PUBLIC_BASE_URL"), "/"),
		MaxFileSizeBytes:  maxUpload,
		AllowedMIMEs:      splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
		WorkerConcurrency: v.GetInt("UPLOADS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("UPLOADS_WORKER_RETRIES"),
		OrphanTTL:         parseDuration(v.GetString("UPLOADS_ORPHAN_TTL"), 0),
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
	v.SetDefault("DB_NAME", "run_directory")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.SetDefault("DIRECTORY_CACHE_ENABLED", false)
	v.SetDefault("DIRECTORY_CACHE_TTL", "5m")
	v.SetDefault("DIRECTORY_TIMEZONE", "Asia/Jakarta")

	v.SetDefault("AUTHORING_SESSION_TTL", "2h")
	v.SetDefault("AUTHORING_WRITE_MODE", WriteModeTransactional)
	v.SetDefault("AUTHORING_SWEEP_SCHEDULE", "@every 1m")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./assets")
	v.SetDefault("UPLOADS_PUBLIC_BASE_URL", "http://localhost:8080/assets")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp,image/gif")
	v.SetDefault("UPLOADS_WORKER_CONCURRENCY", 2)
	v.SetDefault("UPLOADS_WORKER_RETRIES", 2)
	v.SetDefault("UPLOADS_ORPHAN_TTL", "72h")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
