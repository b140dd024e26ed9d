package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// AuthStatus is the login progress of a session
type AuthStatus string

const (
	AuthAnonymous     AuthStatus = "anonymous"
	AuthPending       AuthStatus = "pending"
	AuthAuthenticated AuthStatus = "authenticated"
	AuthFailed        AuthStatus = "failed"
)

// AuthSession is the identity part of a session
type AuthSession struct {
	Status       AuthStatus   `json:"status"`
	State        string       `json:"state,omitempty"`
	Verifier     string       `json:"verifier,omitempty"`
	PendingSince time.Time    `json:"pending_since,omitempty"`
	User         *models.User `json:"user,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Session is the server-side state of one browser
type Session struct {
	ID        string          `json:"id"`
	Auth      AuthSession     `json:"auth"`
	Records   []models.Record `json:"records"`
	Edits     EditState       `json:"edits"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionService stores sessions in Redis, falling back to memory
type SessionService struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *logrus.Logger

	// In-memory fallback when Redis is not available
	memCache map[string]sessionItem
	memMutex sync.RWMutex

	// Per-session locks serialize Update and Delete. An entry lives while
	// someone holds or waits for it.
	locks     map[string]*sessionLock
	locksMu   sync.Mutex
	stopClean chan struct{}
	stopOnce  sync.Once
}

type sessionLock struct {
	sync.Mutex
	refs int
}

type sessionItem struct {
	value     []byte
	expiresAt time.Time
}

// NewSessionService creates a new session service. client may be nil.
func NewSessionService(client *redis.Client, ttl time.Duration, keyPrefix string, logger *logrus.Logger) *SessionService {
	return &SessionService{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		logger:    logger,
		memCache:  make(map[string]sessionItem),
		locks:     make(map[string]*sessionLock),
		stopClean: make(chan struct{}),
	}
}

// Create starts a new empty session
func (s *SessionService) Create(ctx context.Context) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		Auth:      AuthSession{Status: AuthAnonymous},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithField("session_id", session.ID).Debug("Session created")
	return session, nil
}

// Get loads a session
func (s *SessionService) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	data, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, nil
}

// Update applies fn to the session under its lock and persists the result
func (s *SessionService) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	lock := s.acquire(id)
	defer s.release(id, lock)

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// A failing fn writes nothing
	if err := fn(session); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes a session. It waits for an Update in progress, which
// therefore cannot write the session back afterwards.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	lock := s.acquire(id)
	defer s.release(id, lock)

	if s.client != nil {
		if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Redis delete error")
		}
	}

	s.memMutex.Lock()
	delete(s.memCache, id)
	s.memMutex.Unlock()

	s.logger.WithField("session_id", id).Debug("Session deleted")
	return nil
}

// GetStats returns session store statistics
func (s *SessionService) GetStats(ctx context.Context) map[string]interface{} {
	stats := make(map[string]interface{})

	if s.client != nil {
		count, err := s.countRedisSessions(ctx)
		if err == nil {
			stats["redis"] = map[string]interface{}{
				"available": true,
				"sessions":  count,
			}
		} else {
			stats["redis"] = map[string]interface{}{
				"available": false,
				"error":     err.Error(),
			}
		}
	} else {
		stats["redis"] = map[string]interface{}{
			"available": false,
		}
	}

	s.memMutex.RLock()
	memSize := len(s.memCache)
	s.memMutex.RUnlock()

	stats["memory"] = map[string]interface{}{
		"sessions": memSize,
		"ttl":      s.ttl.String(),
	}

	return stats
}

// Health returns session store health status
func (s *SessionService) Health() map[string]interface{} {
	if s.client == nil {
		return map[string]interface{}{
			"status":  "healthy",
			"backend": "memory",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		// Memory fallback keeps sessions working
		return map[string]interface{}{
			"status":  "degraded",
			"backend": "memory",
			"error":   err.Error(),
		}
	}
	return map[string]interface{}{
		"status":  "healthy",
		"backend": "redis",
	}
}

// StartCleanupRoutine periodically drops expired in-memory sessions
func (s *SessionService) StartCleanupRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-s.stopClean:
				return
			}
		}
	}()
}

// Close stops the cleanup routine
func (s *SessionService) Close() {
	s.stopOnce.Do(func() { close(s.stopClean) })
}

func (s *SessionService) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}

	// Try Redis first
	if s.client != nil {
		err := s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
		if err == nil {
			return nil
		}
		s.logger.WithFields(logrus.Fields{
			"session_id": session.ID,
			"error":      err.Error(),
		}).Warn("Redis set error, falling back to memory store")
	}

	// Fall back to memory
	s.memMutex.Lock()
	s.memCache[session.ID] = sessionItem{
		value:     data,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.memMutex.Unlock()
	return nil
}

func (s *SessionService) load(ctx context.Context, id string) ([]byte, error) {
	if s.client != nil {
		val, err := s.client.Get(ctx, s.key(id)).Bytes()
		if err == nil {
			// Sliding expiration
			s.client.Expire(ctx, s.key(id), s.ttl)
			return val, nil
		}
		if err != redis.Nil {
			s.logger.WithFields(logrus.Fields{
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Redis get error, falling back to memory store")
		}
	}

	// Check memory cache
	s.memMutex.RLock()
	item, exists := s.memCache[id]
	s.memMutex.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(item.expiresAt) {
		s.memMutex.Lock()
		delete(s.memCache, id)
		s.memMutex.Unlock()
		return nil, ErrSessionNotFound
	}

	return item.value, nil
}

// acquire locks the session, creating its lock entry on first use
func (s *SessionService) acquire(id string) *sessionLock {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sessionLock{}
		s.locks[id] = lock
	}
	lock.refs++
	s.locksMu.Unlock()

	lock.Lock()
	return lock
}

// release unlocks the session and drops the entry once nobody needs it
func (s *SessionService) release(id string, lock *sessionLock) {
	lock.Unlock()

	s.locksMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, id)
	}
	s.locksMu.Unlock()
}

func (s *SessionService) activeLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func (s *SessionService) key(id string) string {
	return s.keyPrefix + id
}

func (s *SessionService) countRedisSessions(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

// cleanupExpired removes expired items from memory store
func (s *SessionService) cleanupExpired() {
	s.memMutex.Lock()
	defer s.memMutex.Unlock()

	now := time.Now()
	for id, item := range s.memCache {
		if now.After(item.expiresAt) {
			delete(s.memCache, id)
		}
	}
}
