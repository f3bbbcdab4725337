package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	domainconfig "mindgraph/domain/config"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// Storage
	StorageBackend string
	DataFile       string // file backend
	RedisURL       string // redis backend
	DatabaseDSN    string // sqlite and postgres backends

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1, documents by id
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret          string
	JWTIssuer          string
	TrustGateway       bool // always on under Lambda
	RateLimitPerMinute int

	// Connection analysis overrides; zero keeps the environment default
	MinConnectionStrength float64
	MaxConnections        int
	CacheSweepInterval    time.Duration

	// Feature flags
	EnableEvents   bool
	EnableMetrics  bool
	EnableCORS     bool
	AllowedOrigins []string
}

// LoadConfig loads configuration from environment variables, after reading
// a .env file when one is present
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		DataFile:       getEnv("DATA_FILE", "mindgraph.json"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseDSN:    getEnv("DATABASE_DSN", "mindgraph.db"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "mindgraph")),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "mindgraph-events"),

		IsLambda: getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "mindgraph"),
		TrustGateway:       getEnvBool("TRUST_GATEWAY", false),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),

		MinConnectionStrength: getEnvFloat("MIN_CONNECTION_STRENGTH", 0),
		MaxConnections:        getEnvInt("MAX_CONNECTIONS", 0),
		CacheSweepInterval:    getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		EnableEvents:   getEnvBool("ENABLE_EVENTS", false),
		EnableMetrics:  getEnvBool("ENABLE_METRICS", true),
		EnableCORS:     getEnvBool("ENABLE_CORS", true),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", nil),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendFile, BackendDynamoDB, BackendRedis, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch {
	case c.StorageBackend == BackendFile && c.DataFile == "":
		return fmt.Errorf("DATA_FILE is required for the file backend")
	case c.StorageBackend == BackendDynamoDB && c.DynamoDBTable == "":
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
	case c.StorageBackend == BackendRedis && c.RedisURL == "":
		return fmt.Errorf("REDIS_URL is required for the redis backend")
	case (c.StorageBackend == BackendSQLite || c.StorageBackend == BackendPostgres) && c.DatabaseDSN == "":
		return fmt.Errorf("DATABASE_DSN is required for the %s backend", c.StorageBackend)
	}

	if c.MinConnectionStrength < 0 || c.MinConnectionStrength > 1 {
		return fmt.Errorf("MIN_CONNECTION_STRENGTH must be between 0 and 1")
	}
	if c.MaxConnections < 0 || c.RateLimitPerMinute < 0 {
		return fmt.Errorf("MAX_CONNECTIONS and RATE_LIMIT_PER_MINUTE cannot be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" && !c.TrustGateway && !c.IsLambda {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend == BackendMemory {
			return fmt.Errorf("the memory backend cannot be used in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
		}
	}

	return nil
}

// DomainConfig returns the domain rules for the environment with overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.ForEnvironment(c.Environment)
	if c.MinConnectionStrength > 0 {
		dc.MinConnectionStrength = c.MinConnectionStrength
	}
	if c.MaxConnections > 0 {
		dc.MaxConnections = c.MaxConnections
	}
	return dc
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
