// Package api defines the JSON shapes shared by the gateway handlers and the
// voice client: token issuance and workout completion submission.
package api

import "time"

// SessionContext is an immutable snapshot of one training session's
// coaching-relevant fields. It is created per token request and never
// mutated.
type SessionContext struct {
	SessionID       string   `json:"session_id"`
	Name            string   `json:"name"`
	WorkoutType     string   `json:"workout_type"`
	PlannedDistance float64  `json:"planned_distance_km,omitempty"`
	PlannedDuration int      `json:"planned_duration_min,omitempty"`
	Intensity       string   `json:"intensity,omitempty"`
	CyclePhase      string   `json:"cycle_phase,omitempty"`
	PhaseGuidance   string   `json:"phase_guidance,omitempty"`
	Tips            []string `json:"tips,omitempty"`
}

// TokenRequest asks for a single-session connection credential. SessionID is
// optional: a session may start without linking to a planned workout.
type TokenRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// TokenResponse carries everything the client needs to connect directly to
// the live service: a short-lived ephemeral token, the connection target,
// and the rendered system instruction.
type TokenResponse struct {
	Token             string          `json:"token"`
	ConnectionTarget  string          `json:"connection_target"`
	ExpiresAt         time.Time       `json:"expires_at"`
	SessionContext    *SessionContext `json:"session_context,omitempty"`
	SystemInstruction string          `json:"system_instruction"`
	Model             string          `json:"model"`
}

// SessionRequest creates a planned training session.
type SessionRequest struct {
	WorkoutType     string    `json:"workout_type"`
	PlannedDistance *float64  `json:"planned_distance_km,omitempty"`
	PlannedDuration *int      `json:"planned_duration_min,omitempty"`
	Intensity       string    `json:"intensity,omitempty"`
	Tips            []string  `json:"tips,omitempty"`
	ScheduledFor    time.Time `json:"scheduled_for,omitempty"`
}

// SessionResponse describes a created session.
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	WorkoutType  string    `json:"workout_type"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// CompletionRequest submits the confirmed workout actuals for one session.
type CompletionRequest struct {
	SessionID      string   `json:"session_id"`
	ActualDistance *float64 `json:"actual_distance_km,omitempty"`
	ActualDuration *int     `json:"actual_duration_min,omitempty"`
	RPE            *int     `json:"rpe,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Transcript     string   `json:"transcript,omitempty"`
}

// CompletionResponse acknowledges a persisted completion.
type CompletionResponse struct {
	SessionID   string    `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}
