package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	const q = `
		SELECT id, name, cycle_tracking_enabled, last_period_start, cycle_length_days
		FROM users
		WHERE id = $1`
	var u User
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Name, &u.CycleTrackingEnabled, &u.LastPeriodStart, &u.CycleLengthDays,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*TrainingSession, error) {
	const q = `
		SELECT id, user_id, workout_type, planned_distance_km, planned_duration_min,
		       intensity, tips, scheduled_for, status, completed_at,
		       actual_distance_km, actual_duration_min, rpe, notes, transcript
		FROM training_sessions
		WHERE id = $1`
	var s TrainingSession
	err := p.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.UserID, &s.WorkoutType, &s.PlannedDistanceKM, &s.PlannedDurationMin,
		&s.Intensity, &s.TipsRaw, &s.ScheduledFor, &s.Status, &s.CompletedAt,
		&s.ActualDistanceKM, &s.ActualDurationMin, &s.RPE, &s.Notes, &s.Transcript,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}

func (p *Postgres) CreateSession(ctx context.Context, s *TrainingSession) error {
	const q = `
		INSERT INTO training_sessions
			(id, user_id, workout_type, planned_distance_km, planned_duration_min,
			 intensity, tips, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := p.pool.Exec(ctx, q,
		s.ID, s.UserID, s.WorkoutType, s.PlannedDistanceKM, s.PlannedDurationMin,
		s.Intensity, s.TipsRaw, s.ScheduledFor, s.Status,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", s.ID, err)
	}
	return nil
}

func (p *Postgres) CompleteSession(ctx context.Context, c Completion) (*TrainingSession, error) {
	// The ownership predicate is part of the statement so a mismatched user
	// is indistinguishable from a missing session.
	const q = `
		UPDATE training_sessions
		SET status = 'completed',
		    completed_at = $3,
		    actual_distance_km = $4,
		    actual_duration_min = $5,
		    rpe = $6,
		    notes = $7,
		    transcript = $8
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, workout_type, planned_distance_km, planned_duration_min,
		          intensity, tips, scheduled_for, status, completed_at,
		          actual_distance_km, actual_duration_min, rpe, notes, transcript`
	var s TrainingSession
	err := p.pool.QueryRow(ctx, q,
		c.SessionID, c.UserID, c.CompletedAt,
		c.ActualDistanceKM, c.ActualDurationMin, c.RPE, c.Notes, c.Transcript,
	).Scan(
		&s.ID, &s.UserID, &s.WorkoutType, &s.PlannedDistanceKM, &s.PlannedDurationMin,
		&s.Intensity, &s.TipsRaw, &s.ScheduledFor, &s.Status, &s.CompletedAt,
		&s.ActualDistanceKM, &s.ActualDurationMin, &s.RPE, &s.Notes, &s.Transcript,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete session %s: %w", c.SessionID, err)
	}
	return &s, nil
}
