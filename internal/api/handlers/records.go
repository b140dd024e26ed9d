package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/api/middleware"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/sirupsen/logrus"
)

// RecordsHandler serves the JSON record API
type RecordsHandler struct {
	edits    services.EditStore
	sessions services.SessionStore
	logger   *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(edits services.EditStore, sessions services.SessionStore, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{
		edits:    edits,
		sessions: sessions,
		logger:   logger,
	}
}

// List refetches the record list and returns it with the edit state
// @Summary List records
// @Description Fetch the freight-document list from the record API into the session and return it with the session's edit state
// @Tags Records
// @Produce json
// @Success 200 {object} models.RecordsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /records [get]
func (h *RecordsHandler) List(c *gin.Context) {
	start := time.Now()
	sessionID := c.GetString(middleware.SessionIDKey)

	records, err := h.edits.Fetch(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Record list unavailable")
		respondServiceError(c, err)
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	edits := make([]models.EditStateResponse, 0)
	for _, id := range session.Edits.IDs() {
		edits = append(edits, editStateResponse(session, id, false))
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"records":    len(records),
		"duration":   time.Since(start),
	}).Debug("Records listed")

	c.JSON(http.StatusOK, models.RecordsResponse{
		Records: records,
		Edits:   edits,
		Total:   len(records),
	})
}

// Edit puts a field of a record in edit mode
// @Summary Enable edit mode
// @Description Put a field of a record in edit mode. Without a value the field's current value is staged. The field defaults to ZB1_DTLIB.
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Record id"
// @Param request body models.EditRequest false "Field and optional seed value"
// @Success 200 {object} models.EditStateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /records/{id}/edit [post]
func (h *RecordsHandler) Edit(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid record id", "Record id must be an integer", "INVALID_ID")
		return
	}

	var req models.EditRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request body", err.Error(), "INVALID_REQUEST")
			return
		}
	}
	if req.Field == "" {
		req.Field = models.FieldDtLib
	}

	ctx := c.Request.Context()
	sessionID := c.GetString(middleware.SessionIDKey)

	var err error
	if req.Value != nil {
		err = h.edits.EnableEditMode(ctx, sessionID, id, req.Field, *req.Value)
	} else {
		err = h.edits.EnableEditModeCurrent(ctx, sessionID, id, req.Field)
	}
	if err != nil {
		h.logFailure(c, id, "Enable edit mode failed", err)
		respondServiceError(c, err)
		return
	}

	h.respondEditState(c, id, false)
}

// Stage replaces the staged value of the field in edit mode
// @Summary Stage a value
// @Description Replace the staged value of the field in edit mode. The value is kept as typed.
// @Tags Records
// @Accept json
// @Produce json
// @Param id path int true "Record id"
// @Param request body models.StageRequest true "Field and value"
// @Success 200 {object} models.EditStateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /records/{id}/staged [put]
func (h *RecordsHandler) Stage(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid record id", "Record id must be an integer", "INVALID_ID")
		return
	}

	var req models.StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error(), "INVALID_REQUEST")
		return
	}

	err := h.edits.UpdateStaged(c.Request.Context(), c.GetString(middleware.SessionIDKey), id, req.Field, req.Value)
	if err != nil {
		h.logFailure(c, id, "Stage failed", err)
		respondServiceError(c, err)
		return
	}

	h.respondEditState(c, id, false)
}

// Save sends the record with its staged values to the record API
// @Summary Save a record
// @Description Merge the staged values into the record, send it with PUT and leave edit mode. On failure the edit state is kept for a retry.
// @Tags Records
// @Produce json
// @Param id path int true "Record id"
// @Success 200 {object} models.EditStateResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /records/{id}/save [post]
func (h *RecordsHandler) Save(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid record id", "Record id must be an integer", "INVALID_ID")
		return
	}

	if _, err := h.edits.SaveField(c.Request.Context(), c.GetString(middleware.SessionIDKey), id); err != nil {
		h.logFailure(c, id, "Save failed", err)
		respondServiceError(c, err)
		return
	}

	h.respondEditState(c, id, true)
}

func (h *RecordsHandler) respondEditState(c *gin.Context, id int64, withRecord bool) {
	session, err := h.sessions.Get(c.Request.Context(), c.GetString(middleware.SessionIDKey))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, editStateResponse(session, id, withRecord))
}

func (h *RecordsHandler) logFailure(c *gin.Context, id int64, msg string, err error) {
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"session_id": c.GetString(middleware.SessionIDKey),
		"record_id":  id,
		"error":      err.Error(),
	}).Warn(msg)
}

func editStateResponse(session *services.Session, id int64, withRecord bool) models.EditStateResponse {
	resp := models.EditStateResponse{
		ID:     id,
		Phase:  string(session.Edits.Phase(id)),
		Staged: session.Edits.StagedFields(id),
	}
	resp.Field, _ = session.Edits.EditingField(id)

	if withRecord {
		if record, _, ok := models.FindRecord(session.Records, id); ok {
			resp.Record = &record
		}
	}
	return resp
}
