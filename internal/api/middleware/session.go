package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/sirupsen/logrus"
)

// Context keys set by Session
const (
	SessionKey   = "session"
	SessionIDKey = "session_id"
)

// Session loads the browser session named by the cookie, starting a new one
// when the cookie is missing or the session expired.
func Session(store services.SessionStore, cfg config.SessionConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Load the session named by the cookie
		var session *services.Session
		if id, err := c.Cookie(cfg.CookieName); err == nil && id != "" {
			session, err = store.Get(ctx, id)
			if err != nil && !errors.Is(err, services.ErrSessionNotFound) {
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"error":      err.Error(),
				}).Warn("Failed to load session")
			}
		}

		// Start a new one otherwise
		if session == nil {
			created, err := store.Create(ctx)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString("request_id"),
					"error":      err.Error(),
				}).Error("Failed to create session")

				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:     "Session unavailable",
					Message:   "Could not start a session",
					Code:      "SESSION_UNAVAILABLE",
					Timestamp: time.Now(),
					Path:      c.Request.URL.Path,
				})
				return
			}
			session = created
		}

		// Refresh the cookie and expose the session to handlers
		SetSessionCookie(c, cfg, session.ID)
		c.Set(SessionKey, session)
		c.Set(SessionIDKey, session.ID)
		c.Next()
	}
}

// SetSessionCookie (re)issues the session cookie, sliding its expiry
func SetSessionCookie(c *gin.Context, cfg config.SessionConfig, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, id, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
}

// CurrentSession returns the session loaded by Session
func CurrentSession(c *gin.Context) *services.Session {
	if value, ok := c.Get(SessionKey); ok {
		if session, ok := value.(*services.Session); ok {
			return session
		}
	}
	return nil
}

// RequireAuth rejects API calls from sessions that are not logged in
func RequireAuth(gate services.IdentityGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := gate.State(CurrentSession(c))
		if !state.IsAuthenticated || state.Error != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:     "Unauthorized",
				Message:   "Login required",
				Code:      "UNAUTHORIZED",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}
		c.Next()
	}
}

// RequireAuthPage sends pages posted by sessions that are not logged in back
// to the index, which shows the right screen.
func RequireAuthPage(gate services.IdentityGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := gate.State(CurrentSession(c))
		if !state.IsAuthenticated || state.Error != nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
