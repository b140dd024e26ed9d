package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/sirupsen/logrus"
)

// RecordClient is the HTTP client of the freight-document API
type RecordClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger

	mu        sync.RWMutex
	lastError error
	lastCall  time.Time
}

// NewRecordClient creates a new record API client
func NewRecordClient(cfg config.RecordAPIConfig, logger *logrus.Logger) *RecordClient {
	return &RecordClient{
		baseURL: fmt.Sprintf("%s/%s", cfg.BaseURL, cfg.ResourcePath),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// List fetches GET <base>/tabela
func (c *RecordClient) List(ctx context.Context) ([]models.Record, error) {
	start := time.Now()

	// Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, c.track(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	// Execute request
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.track(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	// Read response
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.track(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.track(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	// The body must be a JSON array
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, c.track(fmt.Errorf("failed to parse response: %w", err))
	}

	// A row that cannot be addressed by id is skipped, the rest still show
	records := make([]models.Record, 0, len(rows))
	skipped := 0
	for index, row := range rows {
		var record models.Record
		if err := json.Unmarshal(row, &record); err != nil {
			skipped++
			c.logger.WithFields(logrus.Fields{
				"row":   index,
				"error": err.Error(),
			}).Warn("Skipping unreadable record")
			continue
		}
		records = append(records, record)
	}

	c.logger.WithFields(logrus.Fields{
		"records":  len(records),
		"skipped":  skipped,
		"duration": time.Since(start),
	}).Debug("Records fetched")

	return records, c.track(nil)
}

// Update sends PUT <base>/tabela/{id}. The response body is ignored.
func (c *RecordClient) Update(ctx context.Context, id int64, record models.Record) error {
	start := time.Now()

	// Encode the whole record, untouched attributes included
	payload, err := json.Marshal(record)
	if err != nil {
		return c.track(fmt.Errorf("failed to encode record %d: %w", id, err))
	}

	url := fmt.Sprintf("%s/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return c.track(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Execute request
	resp, err := c.client.Do(req)
	if err != nil {
		return c.track(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	// Only the status matters, the body is kept for the error message
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.track(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	c.logger.WithFields(logrus.Fields{
		"record_id": id,
		"duration":  time.Since(start),
	}).Debug("Record updated")

	return c.track(nil)
}

// Health reports the outcome of the last call; the API is not probed
func (c *RecordClient) Health() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	health := map[string]interface{}{
		"status":   "healthy",
		"base_url": c.baseURL,
	}
	if !c.lastCall.IsZero() {
		health["last_call"] = c.lastCall
	}
	if c.lastError != nil {
		health["status"] = "degraded"
		health["error"] = c.lastError.Error()
	}
	return health
}

// track remembers the outcome of a call for Health
func (c *RecordClient) track(err error) error {
	c.mu.Lock()
	c.lastCall = time.Now()
	c.lastError = err
	c.mu.Unlock()
	return err
}

func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
