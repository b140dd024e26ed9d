package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/sirupsen/logrus"
)

// EditService applies edit-state transitions to sessions and talks to the
// record API when the list is fetched or a record is saved.
type EditService struct {
	sessions  SessionStore
	transport RecordTransport
	metrics   MetricsRecorder
	logger    *logrus.Logger
}

// NewEditService creates a new edit service
func NewEditService(sessions SessionStore, transport RecordTransport, metrics MetricsRecorder, logger *logrus.Logger) *EditService {
	return &EditService{
		sessions:  sessions,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
	}
}

// Fetch replaces the session's list with the API's. On failure the list is
// left empty and the error is returned for logging.
func (s *EditService) Fetch(ctx context.Context, sessionID string) ([]models.Record, error) {
	start := time.Now()
	log := s.logger.WithField("session_id", sessionID)

	// Fetch from the API
	records, fetchErr := s.transport.List(ctx)
	s.metrics.RecordFetch(fetchErr == nil)
	if fetchErr != nil {
		log.WithFields(logrus.Fields{
			"error":    fetchErr.Error(),
			"duration": time.Since(start),
		}).Error("Failed to fetch records")
		records = []models.Record{}
	}

	// Replace the list even when the fetch failed
	_, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		session.Records = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fetchErr != nil {
		return records, fmt.Errorf("%w: %v", ErrFetchFailed, fetchErr)
	}

	log.WithFields(logrus.Fields{
		"records":  len(records),
		"duration": time.Since(start),
	}).Debug("Record list replaced")
	return records, nil
}

// EnableEditMode puts field of record id in edit mode seeded with value
func (s *EditService) EnableEditMode(ctx context.Context, sessionID string, id int64, field, value string) error {
	_, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		if _, _, ok := models.FindRecord(session.Records, id); !ok {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}
		return session.Edits.Enable(id, field, value)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"record_id":  id,
		"field":      field,
	}).Debug("Edit mode enabled")
	return nil
}

// EnableEditModeCurrent enables edit mode seeded with the field's current value
func (s *EditService) EnableEditModeCurrent(ctx context.Context, sessionID string, id int64, field string) error {
	_, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		record, _, ok := models.FindRecord(session.Records, id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}
		value, ok := record.Field(field)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		return session.Edits.Enable(id, field, value)
	})
	return err
}

// UpdateStaged replaces the staged value of the field being edited
func (s *EditService) UpdateStaged(ctx context.Context, sessionID string, id int64, field, value string) error {
	_, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		return session.Edits.Update(id, field, value)
	})
	return err
}

// SaveField merges every staged field of record id into the record, sends
// it and leaves edit mode. A failed send leaves the edit state as it was.
func (s *EditService) SaveField(ctx context.Context, sessionID string, id int64) (models.Record, error) {
	return s.save(ctx, sessionID, id, nil)
}

// SaveValue stages value for field and saves in one step, so no other stage
// can land between the two.
func (s *EditService) SaveValue(ctx context.Context, sessionID string, id int64, field, value string) (models.Record, error) {
	return s.save(ctx, sessionID, id, func(edits *EditState) error {
		return edits.Update(id, field, value)
	})
}

func (s *EditService) save(ctx context.Context, sessionID string, id int64, stage func(*EditState) error) (models.Record, error) {
	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"record_id":  id,
	})

	// Stage, merge and mark as saving under one lock
	var body models.Record
	_, err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		if session.Edits.Phase(id) == PhaseSaving {
			return ErrSaveInProgress
		}
		if stage != nil {
			if err := stage(&session.Edits); err != nil {
				return err
			}
		}
		if session.Edits.Phase(id) == PhaseViewing {
			return fmt.Errorf("%w: record %d", ErrNotEditing, id)
		}
		original, _, ok := models.FindRecord(session.Records, id)
		if !ok {
			return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}

		// Staged values over the record as loaded
		merged, err := original.Merge(session.Edits.StagedFields(id))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
		if _, err := session.Edits.BeginSave(id); err != nil {
			return err
		}
		body = merged
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSaveInProgress) {
			s.metrics.RecordSave(SaveRejected)
		} else if errors.Is(err, ErrSaveFailed) {
			s.metrics.RecordSave(SaveFailed)
		}
		log.WithField("error", err.Error()).Warn("Save not started")
		return models.Record{}, err
	}

	// Send outside the lock
	sendErr := s.transport.Update(ctx, id, body)

	// The finishing write must land even if the request context is gone,
	// otherwise the record would stay in saving.
	finishCtx := context.WithoutCancel(ctx)
	_, err = s.sessions.Update(finishCtx, sessionID, func(session *Session) error {
		session.Edits.FinishSave(id, sendErr == nil)
		if sendErr == nil {
			if _, index, ok := models.FindRecord(session.Records, id); ok {
				session.Records[index] = body
			}
		}
		return nil
	})
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to record save outcome")
	}

	if sendErr != nil {
		s.metrics.RecordSave(SaveFailed)
		log.WithFields(logrus.Fields{
			"error":    sendErr.Error(),
			"duration": time.Since(start),
		}).Error("Failed to update record")
		return models.Record{}, fmt.Errorf("%w: %v", ErrSaveFailed, sendErr)
	}

	s.metrics.RecordSave(SaveSucceeded)
	log.WithField("duration", time.Since(start)).Info("Record updated")
	return body, nil
}
