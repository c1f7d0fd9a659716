package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, "public", cfg.Server.StaticDir)
				assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
				assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash-exp", "gemini-2.5-pro"}, cfg.Backends.Priority)
				assert.Equal(t, 20*time.Second, cfg.Backends.Gemini.Timeout)
				assert.Equal(t, 20*time.Second, cfg.Backends.OpenAI.Timeout)
				assert.Equal(t, 70*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.False(t, cfg.Server.TrustProxy)
				assert.Empty(t, cfg.Backends.OpenAI.Models)
				assert.Equal(t, CacheDriverMemory, cfg.Cache.Driver)
				assert.Equal(t, time.Hour, cfg.Cache.TTL)
				assert.Equal(t, time.Duration(0), cfg.Cache.CleanupInterval)
				assert.Equal(t, "climate", cfg.Cache.Namespace)
				assert.Nil(t, cfg.Database)
				assert.True(t, cfg.RateLimit.Enabled)
				assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
				assert.Equal(t, 10, cfg.RateLimit.Burst)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
				assert.True(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "production configuration with gemini",
			envVars: map[string]string{
				"ENVIRONMENT":      "production",
				"SERVER_PORT":      "9000",
				"GEMINI_API_KEY":   "AIza-test",
				"BACKEND_PRIORITY": "gemini-2.5-pro, openai/gpt-4o-mini ,",
				"OPENAI_API_KEY":   "sk-xxxxx",
				"OPENAI_MODELS":    "gpt-4o-mini",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "AIza-test", cfg.Backends.Gemini.APIKey)
				assert.Equal(t, []string{"gemini-2.5-pro", "openai/gpt-4o-mini"}, cfg.Backends.Priority)
				assert.Equal(t, []string{"gpt-4o-mini"}, cfg.Backends.OpenAI.Models)
			},
		},
		{
			name: "database from DB_HOST",
			envVars: map[string]string{
				"DB_HOST":           "db.internal",
				"DB_PORT":           "5433",
				"DB_USER":           "climate",
				"DB_NAME":           "climate",
				"DB_MAX_OPEN_CONNS": "50",
			},
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Database)
				assert.Equal(t, "db.internal", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
			},
		},
		{
			name: "database from DATABASE_URL",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://u:p@db:5432/climate?sslmode=disable",
			},
			check: func(t *testing.T, cfg *Config) {
				require.NotNil(t, cfg.Database)
				assert.Equal(t, "postgres://u:p@db:5432/climate?sslmode=disable", cfg.Database.DSN())
				assert.Equal(t, "host=db port=5432 database=climate", cfg.Database.LogString())
			},
		},
		{
			name: "redis cache",
			envVars: map[string]string{
				"CACHE_DRIVER":    "Redis",
				"REDIS_ADDR":      "localhost:6379",
				"REDIS_DB":        "2",
				"CACHE_TTL":       "15m",
				"CACHE_NAMESPACE": "cap",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, CacheDriverRedis, cfg.Cache.Driver)
				assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
				assert.Equal(t, 2, cfg.Cache.Redis.DB)
				assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
				assert.Equal(t, "cap", cfg.Cache.Namespace)
			},
		},
		{
			name: "custom timeouts and rate limits",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "120s",
				"GEMINI_TIMEOUT":       "30s",
				"REQUEST_TIMEOUT":      "100s",
				"RATE_LIMIT_ENABLED":   "false",
				"RATE_LIMIT_RPM":       "120",
				"TRUST_PROXY":          "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 30*time.Second, cfg.Backends.Gemini.Timeout)
				assert.Equal(t, 100*time.Second, cfg.Server.RequestTimeout)
				assert.False(t, cfg.RateLimit.Enabled)
				assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
				assert.True(t, cfg.Server.TrustProxy)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "8080",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "redis driver without address",
			envVars: map[string]string{
				"CACHE_DRIVER": "redis",
			},
			wantErr: true,
		},
		{
			name: "unknown cache driver",
			envVars: map[string]string{
				"CACHE_DRIVER": "memcached",
			},
			wantErr: true,
		},
		{
			name: "production without any backend",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "backend timeouts exceed the request deadline",
			envVars: map[string]string{
				"GEMINI_TIMEOUT":  "60s",
				"REQUEST_TIMEOUT": "60s",
			},
			wantErr: true,
		},
		{
			name: "missing backends file",
			envVars: map[string]string{
				"BACKENDS_FILE": "/nonexistent/backends.yaml",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNew_WithBackendsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
priority: [gemini-2.5-pro, gemini-2.5-flash]
endpoints:
  news: [gemini-2.5-flash]
openai_models: [gpt-4o-mini]
`), 0o600))

	os.Clearenv()
	os.Setenv("BACKENDS_FILE", path)
	os.Setenv("OPENAI_MODELS", "ignored")

	cfg, err := New(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, cfg.Backends.Priority)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.Backends.PriorityFor("news"))
	assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, cfg.Backends.PriorityFor("assistant"))
	assert.Equal(t, []string{"gpt-4o-mini"}, cfg.Backends.OpenAI.Models)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:   "development",
			Server:        ServerConfig{Port: 3000},
			Backends:      BackendsConfig{Priority: DefaultPriority},
			Cache:         CacheConfig{Driver: CacheDriverMemory},
			Observability: ObservabilityConfig{LogLevel: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid development config",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "out of range",
		},
		{
			name:    "empty priority",
			mutate:  func(c *Config) { c.Backends.Priority = nil },
			wantErr: true,
			errMsg:  "priority list cannot be empty",
		},
		{
			name:    "empty endpoint override",
			mutate:  func(c *Config) { c.Backends.Endpoints = map[string][]string{"news": {}} },
			wantErr: true,
			errMsg:  `endpoint "news"`,
		},
		{
			name: "missing database user",
			mutate: func(c *Config) {
				c.Database = &DatabaseConfig{Host: "localhost", Database: "db"}
			},
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name: "database url needs no fields",
			mutate: func(c *Config) {
				c.Database = &DatabaseConfig{ConnectionString: "postgres://db/climate"}
			},
		},
		{
			name: "every backend can time out within the request deadline",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 70 * time.Second
				c.Backends.Gemini.Timeout = 20 * time.Second
			},
		},
		{
			name: "backend timeouts exceed the request deadline",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 60 * time.Second
				c.Backends.Gemini.Timeout = 60 * time.Second
			},
			wantErr: true,
			errMsg:  "backend timeout 1m0s x 3 backends exceeds request timeout 1m0s",
		},
		{
			name: "longest endpoint override counts",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 70 * time.Second
				c.Backends.OpenAI.Timeout = 20 * time.Second
				c.Backends.Endpoints = map[string][]string{"news": {"a", "b", "c", "d"}}
			},
			wantErr: true,
			errMsg:  "x 4 backends",
		},
		{
			name: "write timeout shorter than request timeout",
			mutate: func(c *Config) {
				c.Server.RequestTimeout = 70 * time.Second
				c.Server.WriteTimeout = 30 * time.Second
			},
			wantErr: true,
			errMsg:  "write timeout",
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: true,
			errMsg:  "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
	assert.NotContains(t, cfg.LogString(), "testpass")
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "0.0.0.0", Port: 3000}
	assert.Equal(t, "0.0.0.0:3000", cfg.Address())
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty uses default", "", []string{"d"}},
		{"single", "a", []string{"a"}},
		{"trims and drops blanks", " a, ,b ,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_LIST", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"d"}))
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "42", 10, 42},
		{"empty value", "", 10, 10},
		{"invalid int", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_INT", tt.value)
			}
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT", tt.defaultValue))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	os.Clearenv()
	os.Setenv("TEST_DURATION", "bogus")
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION", time.Second))

	os.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("TEST_DURATION", time.Second))
}
