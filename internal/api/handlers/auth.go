package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/api/middleware"
	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/sirupsen/logrus"
)

// AuthHandler runs the login flow against the identity provider
type AuthHandler struct {
	auth     services.IdentityGate
	session  config.SessionConfig
	returnTo string
	logger   *logrus.Logger
}

// NewAuthHandler creates a new auth handler. returnTo is where the provider
// sends the browser after logout.
func NewAuthHandler(auth services.IdentityGate, session config.SessionConfig, returnTo string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		session:  session,
		returnTo: returnTo,
		logger:   logger,
	}
}

// Login redirects to the provider login page
func (h *AuthHandler) Login(c *gin.Context) {
	loginURL, err := h.auth.Login(c.Request.Context(), c.GetString(middleware.SessionIDKey))
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to start login")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Redirect(http.StatusFound, loginURL)
}

// Callback completes the login and goes back to the index, which shows the
// table or the access-denied screen.
func (h *AuthHandler) Callback(c *gin.Context) {
	if err := h.auth.Callback(c.Request.Context(), c.GetString(middleware.SessionIDKey), c.Request.URL.Query()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"session_id": c.GetString(middleware.SessionIDKey),
			"error":      err.Error(),
		}).Warn("Login callback failed")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout ends the session and redirects to the provider logout
func (h *AuthHandler) Logout(c *gin.Context) {
	logoutURL, err := h.auth.Logout(c.Request.Context(), c.GetString(middleware.SessionIDKey), h.returnTo)
	middleware.ClearSessionCookie(c, h.session)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to end session")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Redirect(http.StatusFound, logoutURL)
}

// Session returns the identity signals of the current session
// @Summary Current session
// @Description Identity signals of the browser session: authenticated, loading, error and user
// @Tags Session
// @Produce json
// @Success 200 {object} models.SessionResponse
// @Router /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	state := h.auth.State(middleware.CurrentSession(c))

	resp := models.SessionResponse{
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		User:            state.User,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	c.JSON(http.StatusOK, resp)
}
