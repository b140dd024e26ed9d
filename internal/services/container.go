package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// sessionCleanupInterval is how often expired in-memory sessions are dropped
const sessionCleanupInterval = time.Minute

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	sessions    *SessionService

	Sessions SessionStore
	Records  RecordTransport
	Auth     IdentityGate
	Edits    EditStore
	Metrics  MetricsRecorder
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	// Redis is optional
	container.initRedis()

	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis connects to Redis; sessions stay in memory when it is unreachable
func (c *Container) initRedis() {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, sessions kept in memory")
		return
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         c.config.RedisAddr(),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout)
	defer cancel()

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithField("error", err.Error()).Warn("Redis connection failed, sessions kept in memory")
		c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.WithField("addr", c.config.RedisAddr()).Info("Redis connection established")
	}
}

// initServices initializes all services
func (c *Container) initServices() error {
	if c.config.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	// Session store
	c.sessions = NewSessionService(c.redisClient, c.config.Session.TTL, c.config.Session.KeyPrefix, c.logger)
	c.sessions.StartCleanupRoutine(sessionCleanupInterval)
	c.Sessions = c.sessions

	// Record API client and counters
	c.Records = NewRecordClient(c.config.RecordAPI, c.logger)
	c.Metrics = NewMetrics()

	// Identity and editing on top of the session store
	provider := NewAuth0Provider(c.config.Auth)
	c.Auth = NewAuthService(provider, c.Sessions, c.config.Auth.LoginTimeout, c.logger)
	c.Edits = NewEditService(c.Sessions, c.Records, c.Metrics, c.logger)

	return nil
}

// Close closes all service connections
func (c *Container) Close() error {
	if c.sessions != nil {
		c.sessions.Close()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.Sessions != nil {
		health["session_store"] = c.Sessions.Health()
	}

	if c.Records != nil {
		health["record_api"] = c.Records.Health()
	}

	// Identity provider is only checked for configuration
	identity := map[string]interface{}{
		"status": "healthy",
		"domain": c.config.Auth.Domain,
	}
	if c.config.Auth.Domain == "" || c.config.Auth.ClientID == "" {
		identity["status"] = "unhealthy"
		identity["error"] = "identity provider not configured"
	}
	health["identity"] = identity

	return health
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
