package handlers

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/nexconsult/controle-cte/internal/services"
	"github.com/sirupsen/logrus"
)

// StatsReporter exposes statistics of a component
type StatsReporter interface {
	GetStats() map[string]interface{}
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	metrics  services.MetricsRecorder
	sessions services.SessionStore
	limiter  StatsReporter
	logger   *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler. limiter may be nil.
func NewMetricsHandler(metrics services.MetricsRecorder, sessions services.SessionStore, limiter StatsReporter, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		metrics:  metrics,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Record API fetch and save counters, session store statistics and runtime figures
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snapshot := h.metrics.Snapshot()

	response := models.MetricsResponse{
		Fetches:  operationMetrics(snapshot.FetchSuccess, snapshot.FetchErrors, 0),
		Saves:    operationMetrics(snapshot.SaveSuccess, snapshot.SaveErrors, snapshot.SaveRejected),
		Sessions: h.sessions.GetStats(c.Request.Context()),
		System: models.SystemMetrics{
			MemoryUsage: float64(m.Alloc) / 1024 / 1024, // MB
			Goroutines:  runtime.NumGoroutine(),
		},
		Timestamp: time.Now(),
	}
	if h.limiter != nil {
		response.RateLimit = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, response)
}

func operationMetrics(success, errors, rejected int64) models.OperationMetrics {
	total := success + errors + rejected
	metrics := models.OperationMetrics{
		Total:    total,
		Success:  success,
		Errors:   errors,
		Rejected: rejected,
	}
	if total > 0 {
		metrics.SuccessRate = math.Round(float64(success)/float64(total)*10000) / 100
	}
	return metrics
}
