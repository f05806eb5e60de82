package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	PresenceStorePostgres = "postgres"
	PresenceStoreRedis    = "redis"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTExpiry   time.Duration

	LogLevel  string
	LogFormat string

	// PresenceStore selects where presence records live: "postgres" or "redis".
	PresenceStore        string
	PresenceWriteTimeout time.Duration
	// PresenceTTL expires redis presence keys; zero keeps them forever.
	PresenceTTL time.Duration

	// UnknownVisibility decides profiles whose visibility value is missing
	// or unrecognised: "allow" or "deny".
	UnknownVisibility string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PublicURL string
	// Static S3 credentials; when empty the default AWS chain is used.
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func LoadConfig() (*Config, error) {
	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "24h"))
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}
	writeTimeout, err := time.ParseDuration(getEnv("PRESENCE_WRITE_TIMEOUT", "5s"))
	if err != nil {
		return nil, errors.New("invalid PRESENCE_WRITE_TIMEOUT format")
	}
	presenceTTL, err := time.ParseDuration(getEnv("PRESENCE_TTL", "0s"))
	if err != nil {
		return nil, errors.New("invalid PRESENCE_TTL format")
	}

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTExpiry:            expiry,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		PresenceStore:        strings.ToLower(getEnv("PRESENCE_STORE", PresenceStorePostgres)),
		PresenceWriteTimeout: writeTimeout,
		PresenceTTL:          presenceTTL,
		UnknownVisibility:    strings.ToLower(getEnv("UNKNOWN_VISIBILITY_POLICY", "allow")),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:           os.Getenv("S3_ENDPOINT"),
		S3PublicURL:          os.Getenv("S3_PUBLIC_URL"),
		S3AccessKeyID:        os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:    os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PresenceStore != PresenceStorePostgres && cfg.PresenceStore != PresenceStoreRedis {
		return nil, fmt.Errorf("invalid PRESENCE_STORE %q", cfg.PresenceStore)
	}
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		return nil, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	if cfg.UnknownVisibility != "allow" && cfg.UnknownVisibility != "deny" {
		return nil, fmt.Errorf("invalid UNKNOWN_VISIBILITY_POLICY %q", cfg.UnknownVisibility)
	}

	return cfg, nil
}

// AvatarsEnabled reports whether object storage is configured.
func (c *Config) AvatarsEnabled() bool {
	return c.S3Bucket != ""
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
