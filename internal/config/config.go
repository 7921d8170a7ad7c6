// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	HTTPPort int
	LogLevel slog.Level

	DatabaseURL string
	MaxDBConns  int

	RedisURL string

	AMQPURL         string
	AMQPEventsQueue string

	SessionSecret  []byte
	SessionTTL     time.Duration
	DevLogin       bool
	AllowedOrigins []string

	FileStorage    string
	UploadDir      string
	MaxUploadBytes int64
	S3Bucket       string
	AWSRegion      string
	AWSEndpointURL string

	ScrapeTick time.Duration
}

type configFile struct {
	Server struct {
		HTTPPort       int      `yaml:"http_port"`
		LogLevel       string   `yaml:"log_level"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
		AMQPURL     string `yaml:"amqp_url"`
	} `yaml:"dependencies"`
	Files struct {
		Storage   string `yaml:"storage"`
		UploadDir string `yaml:"upload_dir"`
		MaxMB     int    `yaml:"max_mb"`
		S3Bucket  string `yaml:"s3_bucket"`
		AWSRegion string `yaml:"aws_region"`
	} `yaml:"files"`
	Scraper struct {
		TickMS int `yaml:"tick_ms"`
	} `yaml:"scraper"`
}

// Load resolves the API server configuration in priority order:
// defaults -> file -> env. A .env file in the working directory is loaded
// into the environment first.
func Load(path string) (Config, error) {
	cfg, err := resolve(path)
	if err != nil {
		return Config{}, err
	}
	if len(cfg.SessionSecret) < 32 {
		return Config{}, fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	switch cfg.FileStorage {
	case "local":
	case "s3":
		if cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("missing S3_BUCKET for FILE_STORAGE=s3")
		}
	default:
		return Config{}, fmt.Errorf("unknown FILE_STORAGE %q", cfg.FileStorage)
	}
	if cfg.ScrapeTick <= 0 {
		return Config{}, fmt.Errorf("SCRAPE_TICK_MS must be positive")
	}
	return cfg, nil
}

// LoadBackground resolves configuration for the worker and the seeder.
// Only the database settings are validated.
func LoadBackground(path string) (Config, error) {
	return resolve(path)
}

func resolve(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on OS environment variables")
	}

	cfg := Config{
		HTTPPort:        8080,
		LogLevel:        slog.LevelInfo,
		MaxDBConns:      10,
		AMQPEventsQueue: "campaign_events",
		SessionTTL:      7 * 24 * time.Hour,
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		FileStorage:     "local",
		UploadDir:       "uploads",
		MaxUploadBytes:  10 << 20,
		AWSRegion:       "us-east-1",
		ScrapeTick:      2 * time.Second,
	}

	if path == "" {
		path = envOrDefault("CONFIG_FILE", "configs/default.yaml")
	}
	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if f.Server.HTTPPort > 0 {
			cfg.HTTPPort = f.Server.HTTPPort
		}
		if f.Server.LogLevel != "" {
			if err := cfg.LogLevel.UnmarshalText([]byte(f.Server.LogLevel)); err != nil {
				return Config{}, fmt.Errorf("parse log level: %w", err)
			}
		}
		if len(f.Server.AllowedOrigins) > 0 {
			cfg.AllowedOrigins = f.Server.AllowedOrigins
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.AMQPURL != "" {
			cfg.AMQPURL = f.Dependencies.AMQPURL
		}
		if f.Files.Storage != "" {
			cfg.FileStorage = f.Files.Storage
		}
		if f.Files.UploadDir != "" {
			cfg.UploadDir = f.Files.UploadDir
		}
		if f.Files.MaxMB > 0 {
			cfg.MaxUploadBytes = int64(f.Files.MaxMB) << 20
		}
		if f.Files.S3Bucket != "" {
			cfg.S3Bucket = f.Files.S3Bucket
		}
		if f.Files.AWSRegion != "" {
			cfg.AWSRegion = f.Files.AWSRegion
		}
		if f.Scraper.TickMS > 0 {
			cfg.ScrapeTick = time.Duration(f.Scraper.TickMS) * time.Millisecond
		}
	}

	cfg.HTTPPort = envInt("HTTP_PORT", envInt("PORT", cfg.HTTPPort))
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
	}
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dsnFromParts()
	}
	cfg.MaxDBConns = envInt("DB_MAX_CONNS", cfg.MaxDBConns)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AMQPURL = envOrDefault("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPEventsQueue = envOrDefault("AMQP_EVENTS_QUEUE", cfg.AMQPEventsQueue)
	cfg.SessionSecret = []byte(os.Getenv("SESSION_SECRET"))
	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.DevLogin = envBool("DEV_LOGIN", cfg.DevLogin)
	cfg.AllowedOrigins = envCSV("CORS_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.FileStorage = strings.ToLower(envOrDefault("FILE_STORAGE", cfg.FileStorage))
	cfg.UploadDir = envOrDefault("UPLOAD_DIR", cfg.UploadDir)
	cfg.MaxUploadBytes = int64(envInt("MAX_UPLOAD_MB", int(cfg.MaxUploadBytes>>20))) << 20
	cfg.S3Bucket = envOrDefault("S3_BUCKET", cfg.S3Bucket)
	cfg.AWSRegion = envOrDefault("AWS_REGION", cfg.AWSRegion)
	cfg.AWSEndpointURL = envOrDefault("AWS_ENDPOINT_URL", cfg.AWSEndpointURL)
	cfg.ScrapeTick = time.Duration(envInt("SCRAPE_TICK_MS", int(cfg.ScrapeTick.Milliseconds()))) * time.Millisecond

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DATABASE_URL or DB_HOST/DB_NAME")
	}
	return cfg, nil
}

// dsnFromParts builds a DSN from the DB_* variables when DATABASE_URL is not set.
func dsnFromParts() string {
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host,
		envOrDefault("DB_PORT", "5432"), name, envOrDefault("DB_SSLMODE", "disable"),
	)
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	}
	return fallback
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
