package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Tokens    TokenConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// RedisConfig holds the query cache and edit session store settings.
type RedisConfig struct {
	URL            string
	CacheTTL       time.Duration
	EditSessionTTL time.Duration
}

// StorageConfig holds the S3-compatible bucket used for property photos.
type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	PublicURL      string
	UseSSL         bool
	UploadMaxBytes int64
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// TokenConfig holds offer link and rental form link settings.
type TokenConfig struct {
	TTL             time.Duration
	Retention       time.Duration
	CleanupSchedule string
}

// RateLimitConfig limits anonymous requests to the public form endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "brokerage")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("EDIT_SESSION_TTL", "12h")
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_BUCKET", "property-photos")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_PUBLIC_URL", "http://localhost:9000")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("TOKEN_RETENTION", "720h")
	v.SetDefault("TOKEN_CLEANUP_SCHEDULE", "@every 1h")
	v.SetDefault("PUBLIC_RATE_LIMIT", 30)
	v.SetDefault("PUBLIC_RATE_WINDOW", "1m")
	v.SetDefault("PUBLIC_RATE_BURST", 10)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Redis: RedisConfig{
			URL:            v.GetString("REDIS_URL"),
			CacheTTL:       v.GetDuration("CACHE_TTL"),
			EditSessionTTL: v.GetDuration("EDIT_SESSION_TTL"),
		},
		Storage: StorageConfig{
			Endpoint:       v.GetString("S3_ENDPOINT"),
			AccessKey:      v.GetString("S3_ACCESS_KEY"),
			SecretKey:      v.GetString("S3_SECRET_KEY"),
			Bucket:         v.GetString("S3_BUCKET"),
			PublicURL:      strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
			UseSSL:         v.GetBool("S3_USE_SSL"),
			UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Tokens: TokenConfig{
			TTL:             v.GetDuration("TOKEN_TTL"),
			Retention:       v.GetDuration("TOKEN_RETENTION"),
			CleanupSchedule: v.GetString("TOKEN_CLEANUP_SCHEDULE"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("PUBLIC_RATE_LIMIT"),
			Window:   v.GetDuration("PUBLIC_RATE_WINDOW"),
			Burst:    v.GetInt("PUBLIC_RATE_BURST"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Redis.EditSessionTTL <= 0 {
		return fmt.Errorf("EDIT_SESSION_TTL must be positive")
	}

	if c.Storage.Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}
	if c.Storage.UploadMaxBytes < 1 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be at least 1")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	if c.Tokens.TTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Tokens.Retention < 0 {
		return fmt.Errorf("TOKEN_RETENTION must be non-negative")
	}
	if _, err := cron.ParseStandard(c.Tokens.CleanupSchedule); err != nil {
		return fmt.Errorf("TOKEN_CLEANUP_SCHEDULE is invalid: %w", err)
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("PUBLIC_RATE_LIMIT and PUBLIC_RATE_BURST must be at least 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("PUBLIC_RATE_WINDOW must be positive")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
