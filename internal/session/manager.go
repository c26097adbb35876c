package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content_pipeline_poc/internal/storage"
	"content_pipeline_poc/pkg"
)

// EventProducer yields the ordered event stream for one turn. The runner
// implements it; tests substitute canned streams.
type EventProducer interface {
	Run(ctx context.Context, userID, sessionID, message string) pkg.EventStream
}

// Manager owns session lifecycle and drives turns through the event
// producer. It is an explicitly constructed service: callers inject the
// store and producer rather than sharing a process-wide instance.
type Manager struct {
	store    storage.Store
	producer EventProducer
	log      zerolog.Logger
}

// NewManager creates a session manager
func NewManager(store storage.Store, producer EventProducer, log zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		producer: producer,
		log:      log,
	}
}

// CreateSession creates a session for the user, generating a fresh id when
// none is supplied, and returns the session id.
func (m *Manager) CreateSession(ctx context.Context, userID, sessionID string, initialState map[string]any) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if initialState == nil {
		initialState = map[string]any{}
	}
	if err := m.store.Create(ctx, userID, sessionID, initialState); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	m.log.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Msg("Session created")
	return sessionID, nil
}

// GetState returns the current artifact snapshot. It never fails: an absent
// session reads as empty state, and storage errors are logged and swallowed.
func (m *Manager) GetState(ctx context.Context, userID, sessionID string) map[string]any {
	state, err := m.store.Get(ctx, userID, sessionID)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			m.log.Error().Err(err).
				Str("session_id", sessionID).
				Msg("Error getting session state")
		}
		return map[string]any{}
	}
	return state
}

// UpdateState merges the update keys into the session state. A missing
// session is a silent no-op; other errors are logged, not propagated.
func (m *Manager) UpdateState(ctx context.Context, userID, sessionID string, update map[string]any) {
	err := m.store.Merge(ctx, userID, sessionID, update)
	if err == nil || errors.Is(err, storage.ErrSessionNotFound) {
		return
	}
	m.log.Error().Err(err).
		Str("session_id", sessionID).
		Msg("Error updating session state")
}

// ClearSession deletes the session. Errors are logged, not propagated.
func (m *Manager) ClearSession(ctx context.Context, userID, sessionID string) {
	if err := m.store.Delete(ctx, userID, sessionID); err != nil {
		m.log.Error().Err(err).
			Str("session_id", sessionID).
			Msg("Error clearing session")
	}
}

// WorkflowStatus derives the pipeline progress from the session's current
// artifact snapshot, independent of any in-flight turn.
func (m *Manager) WorkflowStatus(ctx context.Context, userID, sessionID string) pkg.WorkflowStatus {
	return StatusFromState(m.GetState(ctx, userID, sessionID))
}

// RunTurn processes one user message end to end and returns the aggregated
// turn report. Producer failures surface inside the report, never as errors.
func (m *Manager) RunTurn(ctx context.Context, userID, sessionID, message string) *pkg.TurnReport {
	report := ConsumeTurn(m.producer.Run(ctx, userID, sessionID, message))
	m.log.Info().
		Int("total_llm_calls", report.TotalLLMCalls).
		Int("total_agents", report.TotalAgents).
		Str("most_active_agent", report.Summary.MostActiveAgent).
		Msg("Turn completed")
	return report
}
