package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/api/middleware"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/nexconsult/controle-cte/internal/view"
	"github.com/sirupsen/logrus"
)

// PagesHandler serves the HTML screens and their form posts. Form posts
// always redirect back to the index; failures are only logged.
type PagesHandler struct {
	auth   services.IdentityGate
	edits  services.EditStore
	logger *logrus.Logger
}

// NewPagesHandler creates a new pages handler
func NewPagesHandler(auth services.IdentityGate, edits services.EditStore, logger *logrus.Logger) *PagesHandler {
	return &PagesHandler{
		auth:   auth,
		edits:  edits,
		logger: logger,
	}
}

// Index renders the screen picked from the identity signals. The table
// screen refetches the record list on every load.
func (h *PagesHandler) Index(c *gin.Context) {
	// Pick the screen from the identity signals
	session := middleware.CurrentSession(c)
	state := h.auth.State(session)
	screen := view.SelectScreen(state)

	var table view.Table
	if screen == view.ScreenTable {
		records, err := h.edits.Fetch(c.Request.Context(), session.ID)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"session_id": session.ID,
				"error":      err.Error(),
			}).Error("Failed to load record list")
		}
		// An empty table is still rendered when the fetch failed
		table = view.BuildTable(records, session.Edits)
	}

	c.HTML(http.StatusOK, screen.Template(), view.NewPage(screen, state, table))
}

// Edit puts a field in edit mode, seeded with the posted value or the
// field's current value.
func (h *PagesHandler) Edit(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	ctx := c.Request.Context()
	sessionID := c.GetString(middleware.SessionIDKey)
	field := c.DefaultPostForm("field", models.FieldDtLib)

	// Seed from the form when a value was posted
	var err error
	if value, posted := c.GetPostForm("value"); posted {
		err = h.edits.EnableEditMode(ctx, sessionID, id, field, value)
	} else {
		err = h.edits.EnableEditModeCurrent(ctx, sessionID, id, field)
	}
	h.logFailure(c, id, "Enable edit mode failed", err)

	c.Redirect(http.StatusSeeOther, "/")
}

// Stage replaces the staged value of the field in edit mode
func (h *PagesHandler) Stage(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	err := h.edits.UpdateStaged(c.Request.Context(), c.GetString(middleware.SessionIDKey), id, c.PostForm("field"), c.PostForm("value"))
	h.logFailure(c, id, "Stage failed", err)

	c.Redirect(http.StatusSeeOther, "/")
}

// Save saves the record, staging the posted value first under the same lock
func (h *PagesHandler) Save(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	ctx := c.Request.Context()
	sessionID := c.GetString(middleware.SessionIDKey)

	// The form posts the input's current value with the save
	var err error
	if value, posted := c.GetPostForm("value"); posted {
		_, err = h.edits.SaveValue(ctx, sessionID, id, c.PostForm("field"), value)
	} else {
		_, err = h.edits.SaveField(ctx, sessionID, id)
	}
	h.logFailure(c, id, "Failed to save record", err)

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PagesHandler) logFailure(c *gin.Context, id int64, msg string, err error) {
	if err == nil {
		return
	}
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"session_id": c.GetString(middleware.SessionIDKey),
		"record_id":  id,
		"error":      err.Error(),
	}).Warn(msg)
}
