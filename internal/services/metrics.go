package services

import (
	"sync/atomic"
)

// SaveOutcome classifies the result of a save
type SaveOutcome int

const (
	SaveSucceeded SaveOutcome = iota
	SaveFailed
	SaveRejected
)

// MetricsSnapshot is a point-in-time copy of the counters
type MetricsSnapshot struct {
	FetchSuccess int64
	FetchErrors  int64
	SaveSuccess  int64
	SaveErrors   int64
	SaveRejected int64
}

// Metrics keeps transport counters
type Metrics struct {
	fetchSuccess atomic.Int64
	fetchErrors  atomic.Int64
	saveSuccess  atomic.Int64
	saveErrors   atomic.Int64
	saveRejected atomic.Int64
}

// NewMetrics creates a new metrics recorder
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordFetch counts one list fetch
func (m *Metrics) RecordFetch(success bool) {
	if success {
		m.fetchSuccess.Add(1)
		return
	}
	m.fetchErrors.Add(1)
}

// RecordSave counts one save attempt
func (m *Metrics) RecordSave(outcome SaveOutcome) {
	switch outcome {
	case SaveSucceeded:
		m.saveSuccess.Add(1)
	case SaveFailed:
		m.saveErrors.Add(1)
	case SaveRejected:
		m.saveRejected.Add(1)
	}
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FetchSuccess: m.fetchSuccess.Load(),
		FetchErrors:  m.fetchErrors.Load(),
		SaveSuccess:  m.saveSuccess.Load(),
		SaveErrors:   m.saveErrors.Load(),
		SaveRejected: m.saveRejected.Load(),
	}
}
