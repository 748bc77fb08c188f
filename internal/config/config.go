package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	MongoDB MongoDBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	S3      S3Config
	Ntfy    NtfyConfig
	OTEL    OTELConfig
	Session SessionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MaxUploadSizeMB int64
}

// MongoDBConfig holds the remote store connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the local snapshot store connection configuration
type RedisConfig struct {
	Addr     string
	Password string
}

// JWTConfig holds token verification configuration. Tokens are issued by the
// external auth collaborator; this service only verifies them.
type JWTConfig struct {
	Secret string
}

// S3Config holds the media store configuration (S3-compatible endpoint)
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// NtfyConfig holds the push-notification delivery configuration
type NtfyConfig struct {
	Endpoint string
	Topic    string
	Token    string
	Enabled  bool
}

// OTELConfig holds OpenTelemetry export configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	InstanceID     string
	Token          string
}

// SessionConfig holds session engine tuning
type SessionConfig struct {
	// LongWorkoutSeconds is the duration after which the monitor may send a
	// long-workout reminder.
	LongWorkoutSeconds int
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MaxUploadSizeMB: getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 50),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "trainsync"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "trainsync-media"),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		Ntfy: NtfyConfig{
			Endpoint: getEnv("NTFY_ENDPOINT", "https://ntfy.sh"),
			Topic:    getEnv("NTFY_TOPIC", ""),
			Token:    getEnv("NTFY_TOKEN", ""),
			Enabled:  getEnvAsBool("NTFY_ENABLED", false),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "trainsync"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
		Session: SessionConfig{
			LongWorkoutSeconds: int(getEnvAsInt64("SESSION_LONG_WORKOUT_SECONDS", 3600)),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Ntfy.Enabled && c.Ntfy.Topic == "" {
		return fmt.Errorf("NTFY_TOPIC is required when NTFY_ENABLED is set")
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
