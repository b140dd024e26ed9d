package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
)

// errorMapping is the HTTP rendition of a service error
type errorMapping struct {
	target error
	status int
	title  string
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrRecordNotFound, http.StatusNotFound, "Record not found", "RECORD_NOT_FOUND"},
	{services.ErrUnknownField, http.StatusBadRequest, "Unknown field", "UNKNOWN_FIELD"},
	{services.ErrNotEditing, http.StatusConflict, "Record not in edit mode", "NOT_EDITING"},
	{services.ErrSaveInProgress, http.StatusConflict, "Save in progress", "SAVE_IN_PROGRESS"},
	{services.ErrSaveFailed, http.StatusBadGateway, "Save failed", "SAVE_FAILED"},
	{services.ErrFetchFailed, http.StatusBadGateway, "Fetch failed", "FETCH_FAILED"},
	{services.ErrSessionNotFound, http.StatusUnauthorized, "Session expired", "SESSION_EXPIRED"},
}

// respondServiceError writes the ErrorResponse for err
func respondServiceError(c *gin.Context, err error) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			respondError(c, mapping.status, mapping.title, err.Error(), mapping.code)
			return
		}
	}
	respondError(c, http.StatusInternalServerError, "Internal server error", err.Error(), "INTERNAL_ERROR")
}

func respondError(c *gin.Context, status int, title, message, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// recordID parses the :id path parameter
func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
