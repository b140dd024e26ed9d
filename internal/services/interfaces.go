package services

import (
	"context"
	"net/url"

	"github.com/nexconsult/controle-cte/internal/models"
)

// RecordTransport defines the remote freight-document API
type RecordTransport interface {
	// List returns the records in the order the API returns them
	List(ctx context.Context) ([]models.Record, error)

	// Update persists a full record under its id
	Update(ctx context.Context, id int64, record models.Record) error

	// Health returns transport health status
	Health() map[string]interface{}
}

// SessionStore defines storage for browser sessions
type SessionStore interface {
	// Create starts a new empty session
	Create(ctx context.Context) (*Session, error)

	// Get loads a session; ErrSessionNotFound when absent or expired
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies fn to the session atomically and persists the result.
	// Nothing is written when fn returns an error.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// GetStats returns storage statistics
	GetStats(ctx context.Context) map[string]interface{}

	// Health returns session store health status
	Health() map[string]interface{}
}

// IdentityProvider defines the OpenID Connect provider used to log users in
type IdentityProvider interface {
	// AuthCodeURL builds the provider login URL
	AuthCodeURL(state, verifier string) string

	// Exchange trades an authorization code for the user identity
	Exchange(ctx context.Context, code, verifier string) (*models.User, error)

	// LogoutURL builds the provider logout URL
	LogoutURL(returnTo string) string
}

// IdentityGate exposes the identity signals of a session and the login flow
type IdentityGate interface {
	// State derives the identity signals from a session
	State(session *Session) models.AuthState

	// Login records a pending login and returns the provider URL to redirect to
	Login(ctx context.Context, sessionID string) (string, error)

	// Callback completes a login from the provider redirect query
	Callback(ctx context.Context, sessionID string, query url.Values) error

	// Logout ends the session and returns the provider logout URL
	Logout(ctx context.Context, sessionID, returnTo string) (string, error)
}

// EditStore defines the edit-state operations over a session
type EditStore interface {
	// Fetch replaces the session's record list with the API's
	Fetch(ctx context.Context, sessionID string) ([]models.Record, error)

	// EnableEditMode puts field of record id in edit mode seeded with value
	EnableEditMode(ctx context.Context, sessionID string, id int64, field, value string) error

	// EnableEditModeCurrent is EnableEditMode seeded with the record's current value
	EnableEditModeCurrent(ctx context.Context, sessionID string, id int64, field string) error

	// UpdateStaged replaces the staged value of the field being edited
	UpdateStaged(ctx context.Context, sessionID string, id int64, field, value string) error

	// SaveField sends the merged record and leaves edit mode on success
	SaveField(ctx context.Context, sessionID string, id int64) (models.Record, error)

	// SaveValue stages value for field and saves, atomically
	SaveValue(ctx context.Context, sessionID string, id int64, field, value string) (models.Record, error)
}

// MetricsRecorder defines the counters kept for the metrics endpoint
type MetricsRecorder interface {
	RecordFetch(success bool)
	RecordSave(outcome SaveOutcome)
	Snapshot() MetricsSnapshot
}
