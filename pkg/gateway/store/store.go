// Package store persists users and training sessions.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user or session does not exist.
var ErrNotFound = errors.New("not found")

// User is an account with optional cycle tracking fields.
type User struct {
	ID                   string
	Name                 string
	CycleTrackingEnabled bool
	LastPeriodStart      *time.Time
	CycleLengthDays      int
}

// TrainingSession is one planned workout and, once completed, its outcome.
// TipsRaw holds the coaching tips as serialized text; the format is not
// trusted and readers must tolerate garbage in it.
type TrainingSession struct {
	ID                 string
	UserID             string
	WorkoutType        string
	PlannedDistanceKM  *float64
	PlannedDurationMin *int
	Intensity          string
	TipsRaw            string
	ScheduledFor       time.Time
	Status             string
	CompletedAt        *time.Time
	ActualDistanceKM   *float64
	ActualDurationMin  *int
	RPE                *int
	Notes              string
	Transcript         string
}

// Completion records the outcome of a session. UserID must match the
// session's owner or the write is refused.
type Completion struct {
	SessionID         string
	UserID            string
	ActualDistanceKM  *float64
	ActualDurationMin *int
	RPE               *int
	Notes             string
	Transcript        string
	CompletedAt       time.Time
}

// Store is the persistence surface the gateway handlers depend on.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetSession(ctx context.Context, id string) (*TrainingSession, error)
	CreateSession(ctx context.Context, s *TrainingSession) error
	CompleteSession(ctx context.Context, c Completion) (*TrainingSession, error)
	Ping(ctx context.Context) error
}
