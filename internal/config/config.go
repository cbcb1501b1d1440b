package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// app config, loaded from environment variables (and a local .env if present)
type Config struct {
	Environment    string
	Port           string
	JWTSecret      string
	AllowedOrigins []string

	StoreDriver     string // mongo | postgres | sqlite
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	PostgresDSN     string
	SQLitePath      string

	RedisAddr     string
	MentorLockTTL time.Duration

	QuestionSource      string // workflow | gemini
	QuestionWorkflowURL string
	WorkflowTimeout     time.Duration

	MentorWorkflowURL    string
	MentorCallbackURL    string
	MentorCallbackSecret string

	ImageKit ImageKitConfig

	MaxUploadBytes          int64
	StreamPollInterval      time.Duration
	StreamKeepAliveInterval time.Duration
	BacklogSchedule         string
}

// résumé object storage credentials
type ImageKitConfig struct {
	PublicKey    string
	PrivateKey   string
	URLEndpoint  string
	Folder       string
	UploadPrefix string // overrides the SDK upload API base, e.g. for a proxy
}

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	SourceWorkflow = "workflow"
	SourceGemini   = "gemini"
)

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		Environment:    strings.ToLower(getEnvOrDefault("APP_ENV", "development")),
		Port:           getEnvOrDefault("PORT", "8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		StoreDriver:     strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDatabase:   getEnvOrDefault("MONGO_DB_NAME", "interviews"),
		MongoCollection: getEnvOrDefault("MONGO_COLLECTION", "interviews"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		SQLitePath:      getEnvOrDefault("SQLITE_PATH", "interviews.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		MentorLockTTL: getEnvDuration("MENTOR_LOCK_TTL", 2*time.Minute),

		QuestionSource:      strings.ToLower(getEnvOrDefault("QUESTION_SOURCE", SourceWorkflow)),
		QuestionWorkflowURL: os.Getenv("QUESTION_WORKFLOW_URL"),
		WorkflowTimeout:     getEnvDuration("WORKFLOW_TIMEOUT", 90*time.Second),

		MentorWorkflowURL:    os.Getenv("MENTOR_WORKFLOW_URL"),
		MentorCallbackURL:    os.Getenv("MENTOR_CALLBACK_URL"),
		MentorCallbackSecret: os.Getenv("MENTOR_CALLBACK_SECRET"),

		ImageKit: ImageKitConfig{
			PublicKey:    os.Getenv("IMAGEKIT_PUBLIC_KEY"),
			PrivateKey:   os.Getenv("IMAGEKIT_PRIVATE_KEY"),
			URLEndpoint:  os.Getenv("IMAGEKIT_URL_ENDPOINT"),
			Folder:       os.Getenv("IMAGEKIT_FOLDER"),
			UploadPrefix: os.Getenv("IMAGEKIT_UPLOAD_PREFIX"),
		},

		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		StreamPollInterval:      getEnvDuration("STREAM_POLL_INTERVAL", 5*time.Second),
		StreamKeepAliveInterval: getEnvDuration("STREAM_KEEPALIVE_INTERVAL", 30*time.Second),
		BacklogSchedule:         getEnvOrDefault("MENTOR_BACKLOG_SCHEDULE", "@every 5m"),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsProduction reports whether upstream error bodies must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Configured reports whether all ImageKit credentials are present.
func (c ImageKitConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != "" && c.URLEndpoint != ""
}

func validateConfig(config *Config) error {
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	switch config.StoreDriver {
	case StoreMongo:
		if config.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case StorePostgres:
		if config.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	case StoreSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s. Currently supported: mongo, postgres, sqlite", config.StoreDriver)
	}

	if config.QuestionSource != SourceWorkflow && config.QuestionSource != SourceGemini {
		return fmt.Errorf("unsupported QUESTION_SOURCE: %s. Currently supported: workflow, gemini", config.QuestionSource)
	}

	if config.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if config.StreamPollInterval <= 0 || config.StreamKeepAliveInterval <= 0 {
		return errors.New("stream intervals must be positive")
	}
	// the dispatch lock is not renewed, it has to outlive the mentor call
	if config.MentorLockTTL <= config.WorkflowTimeout {
		return fmt.Errorf("MENTOR_LOCK_TTL (%s) must be longer than WORKFLOW_TIMEOUT (%s)", config.MentorLockTTL, config.WorkflowTimeout)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
