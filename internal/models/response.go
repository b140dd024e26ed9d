package models

import (
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Record not found"`
	Message   string    `json:"message" example:"No record with id 42 in the current list"`
	Code      string    `json:"code,omitempty" example:"RECORD_NOT_FOUND"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/records/42/save"`
}

// EditRequest enables edit mode on a field
type EditRequest struct {
	Field string  `json:"field" example:"ZB1_DTLIB"`
	Value *string `json:"value,omitempty" example:"2024-01-01"`
}

// StageRequest carries a staged value typed by the user
type StageRequest struct {
	Field string `json:"field" binding:"required" example:"ZB1_DTLIB"`
	Value string `json:"value" example:"2024-02-15"`
}

// EditStateResponse is the edit state of one record
type EditStateResponse struct {
	ID     int64             `json:"id" example:"1"`
	Phase  string            `json:"phase" example:"editing"`
	Field  string            `json:"field,omitempty" example:"ZB1_DTLIB"`
	Staged map[string]string `json:"staged,omitempty"`
	Record *Record           `json:"record,omitempty"`
}

// RecordsResponse is the record list together with its edit state
type RecordsResponse struct {
	Records []Record            `json:"records"`
	Edits   []EditStateResponse `json:"edits"`
	Total   int                 `json:"total" example:"3"`
}

// SessionResponse exposes the identity signals of the current session
type SessionResponse struct {
	IsAuthenticated bool   `json:"is_authenticated" example:"true"`
	IsLoading       bool   `json:"is_loading" example:"false"`
	Error           string `json:"error,omitempty"`
	User            *User  `json:"user,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents the status of one dependency
type ServiceInfo struct {
	Status    string    `json:"status" example:"healthy"`
	LastCheck time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	Error     string    `json:"error,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Fetches   OperationMetrics       `json:"fetches"`
	Saves     OperationMetrics       `json:"saves"`
	Sessions  map[string]interface{} `json:"sessions"`
	RateLimit map[string]interface{} `json:"rate_limit,omitempty"`
	System    SystemMetrics          `json:"system"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// OperationMetrics counts outcomes of one transport operation
type OperationMetrics struct {
	Total       int64   `json:"total" example:"150"`
	Success     int64   `json:"success" example:"145"`
	Errors      int64   `json:"errors" example:"5"`
	Rejected    int64   `json:"rejected,omitempty" example:"1"`
	SuccessRate float64 `json:"success_rate" example:"96.67"`
}

// SystemMetrics represents runtime metrics
type SystemMetrics struct {
	MemoryUsage float64 `json:"memory_usage" example:"12.5"`
	Goroutines  int     `json:"goroutines" example:"25"`
}
