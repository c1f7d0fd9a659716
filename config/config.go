package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPriority is the backend order used when none is configured.
var DefaultPriority = []string{"gemini-2.5-flash", "gemini-2.0-flash-exp", "gemini-2.5-pro"}

// Cache drivers
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Backends      BackendsConfig
	Cache         CacheConfig
	Database      *DatabaseConfig // Optional: enables the generation audit log
	Audit         AuditConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RequestTimeout     time.Duration // Deadline for one API request, shared by every backend attempt
	TrustProxy         bool          // Take the client address from X-Forwarded-For / X-Real-IP
	StaticDir          string
	CORSAllowedOrigins []string
}

// BackendsConfig holds model backend configuration and fallback order
type BackendsConfig struct {
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Priority  []string
	Endpoints map[string][]string // Per-endpoint priority overrides
	File      string
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
	Timeout time.Duration
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Driver          string
	TTL             time.Duration
	CleanupInterval time.Duration
	Namespace       string
	Redis           RedisConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuditConfig holds generation audit log worker configuration
type AuditConfig struct {
	BufferSize int
	Workers    int
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getPort(),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 70*time.Second),
			TrustProxy:         getEnvAsBool("TRUST_PROXY", false),
			StaticDir:          getEnv("STATIC_DIR", "public"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Backends: BackendsConfig{
			Gemini: GeminiConfig{
				APIKey:  getEnv("GEMINI_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", ""),
				Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 20*time.Second),
			},
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Models:  getEnvAsList("OPENAI_MODELS", nil),
				Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 20*time.Second),
			},
			Priority:  getEnvAsList("BACKEND_PRIORITY", DefaultPriority),
			Endpoints: map[string][]string{},
			File:      getEnv("BACKENDS_FILE", ""),
		},
		Cache: CacheConfig{
			Driver:          strings.ToLower(getEnv("CACHE_DRIVER", CacheDriverMemory)),
			TTL:             getEnvAsDuration("CACHE_TTL", time.Hour),
			CleanupInterval: getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 0),
			Namespace:       getEnv("CACHE_NAMESPACE", "climate"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", ""),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Database: loadDatabaseConfig(),
		Audit: AuditConfig{
			BufferSize: getEnvAsInt("AUDIT_BUFFER_SIZE", 1000),
			Workers:    getEnvAsInt("AUDIT_WORKERS", 2),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	if cfg.Backends.File != "" {
		file, err := LoadBackendsFile(cfg.Backends.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load backends file: %w", err)
		}
		file.Apply(&cfg.Backends)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	if len(c.Backends.Priority) == 0 {
		return fmt.Errorf("backend priority list cannot be empty")
	}
	for endpoint, priority := range c.Backends.Endpoints {
		if len(priority) == 0 {
			return fmt.Errorf("backend priority for endpoint %q cannot be empty", endpoint)
		}
	}

	if err := c.validateTimeouts(); err != nil {
		return err
	}

	switch c.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}

	if c.Database != nil && c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// At least one backend credential is required in production
	if c.IsProduction() && c.Backends.Gemini.APIKey == "" && c.Backends.OpenAI.APIKey == "" {
		return fmt.Errorf("at least one model backend must be configured in production")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// validateTimeouts checks that the longest priority list can fail over on
// timeouts before the request deadline expires.
func (c *Config) validateTimeouts() error {
	request := c.Server.RequestTimeout
	if request <= 0 {
		return nil
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < request {
		return fmt.Errorf("server write timeout %s is shorter than request timeout %s", c.Server.WriteTimeout, request)
	}

	attempt := c.Backends.AttemptTimeout()
	longest := c.Backends.LongestPriority()
	if attempt > 0 && attempt*time.Duration(longest) > request {
		return fmt.Errorf("backend timeout %s x %d backends exceeds request timeout %s", attempt, longest, request)
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// PriorityFor returns the backend order for endpoint, falling back to the
// global priority list.
func (b *BackendsConfig) PriorityFor(endpoint string) []string {
	if p, ok := b.Endpoints[endpoint]; ok && len(p) > 0 {
		return p
	}
	return b.Priority
}

// AttemptTimeout returns the longest configured per-backend timeout
func (b *BackendsConfig) AttemptTimeout() time.Duration {
	return max(b.Gemini.Timeout, b.OpenAI.Timeout)
}

// LongestPriority returns the length of the longest priority list
func (b *BackendsConfig) LongestPriority() int {
	longest := len(b.Priority)
	for _, p := range b.Endpoints {
		longest = max(longest, len(p))
	}
	return longest
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig returns nil unless DATABASE_URL or DB_HOST is set
func loadDatabaseConfig() *DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return &pool
	}

	host := getEnv("DB_HOST", "")
	if host == "" {
		return nil
	}
	pool.Host = host
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return &pool
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 3000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 3000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping blank items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return splitList(valueStr)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
