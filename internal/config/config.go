package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	RecordAPI RecordAPIConfig `json:"record_api"`
	Auth      AuthConfig      `json:"auth"`
	Session   SessionConfig   `json:"session"`
	Log       LogConfig       `json:"log"`
	Security  SecurityConfig  `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `json:"port"`
	Environment     string        `json:"environment"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// RecordAPIConfig holds the settings of the remote freight-document API
type RecordAPIConfig struct {
	BaseURL      string        `json:"base_url"`
	ResourcePath string        `json:"resource_path"`
	Timeout      time.Duration `json:"timeout"`
}

// AuthConfig holds the identity provider settings
type AuthConfig struct {
	Domain         string        `json:"domain"`
	ClientID       string        `json:"client_id"`
	ClientSecret   string        `json:"-"`
	RedirectURI    string        `json:"redirect_uri"`
	LogoutReturnTo string        `json:"logout_return_to"`
	Scopes         []string      `json:"scopes"`
	LoginTimeout   time.Duration `json:"login_timeout"`
}

// SessionConfig holds browser session settings
type SessionConfig struct {
	CookieName string        `json:"cookie_name"`
	TTL        time.Duration `json:"ttl"`
	Secure     bool          `json:"secure"`
	KeyPrefix  string        `json:"key_prefix"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string      `json:"allowed_origins"`
	AllowedMethods   []string      `json:"allowed_methods"`
	AllowedHeaders   []string      `json:"allowed_headers"`
	AllowCredentials bool          `json:"allow_credentials"`
	MaxAge           time.Duration `json:"max_age"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	port := getEnvAsInt("PORT", 8080)

	cfg := &Config{
		Server: ServerConfig{
			Port:            port,
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RecordAPI: RecordAPIConfig{
			BaseURL:      strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3000/api"), "/"),
			ResourcePath: strings.Trim(getEnv("API_RESOURCE_PATH", "tabela"), "/"),
			Timeout:      getEnvAsDuration("API_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			Domain:         getEnv("AUTH_DOMAIN", ""),
			ClientID:       getEnv("AUTH_CLIENT_ID", ""),
			ClientSecret:   getEnv("AUTH_CLIENT_SECRET", ""),
			RedirectURI:    getEnv("AUTH_REDIRECT_URI", fmt.Sprintf("http://localhost:%d/callback", port)),
			LogoutReturnTo: getEnv("AUTH_LOGOUT_RETURN_TO", fmt.Sprintf("http://localhost:%d/", port)),
			Scopes:         getEnvAsSlice("AUTH_SCOPES", []string{"openid", "profile", "email"}),
			LoginTimeout:   getEnvAsDuration("AUTH_LOGIN_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "cte_session"),
			TTL:        getEnvAsDuration("SESSION_TTL", 8*time.Hour),
			Secure:     getEnvAsBool("SESSION_SECURE", false),
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "session:"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 300),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 30),
				CleanupInterval:   getEnvAsDuration("RATE_LIMIT_CLEANUP", 60*time.Second),
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
				AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
				MaxAge:           24 * time.Hour,
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the required fields
func (c *Config) Validate() error {
	if c.RecordAPI.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.RecordAPI.BaseURL); err != nil {
		return fmt.Errorf("API_BASE_URL is invalid: %w", err)
	}
	if c.Auth.Domain == "" {
		return fmt.Errorf("AUTH_DOMAIN is required")
	}
	if c.Auth.ClientID == "" {
		return fmt.Errorf("AUTH_CLIENT_ID is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// RedisAddr returns the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
