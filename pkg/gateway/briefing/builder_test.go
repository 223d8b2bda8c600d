package briefing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stridelabs/cadence/pkg/gateway/store"
)

type fakeStore struct {
	users    map[string]*store.User
	sessions map[string]*store.TrainingSession
	failUser bool
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	if f.failUser {
		return nil, fmt.Errorf("db down")
	}
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*store.TrainingSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, s *store.TrainingSession) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) CompleteSession(ctx context.Context, c store.Completion) (*store.TrainingSession, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func tempoRunStore() *fakeStore {
	dist := 8.0
	dur := 45
	return &fakeStore{
		users: map[string]*store.User{
			"user-1": {ID: "user-1", Name: "Maya"},
		},
		sessions: map[string]*store.TrainingSession{
			"S1": {
				ID:                 "S1",
				UserID:             "user-1",
				WorkoutType:        "Tempo Run",
				PlannedDistanceKM:  &dist,
				PlannedDurationMin: &dur,
				Intensity:          "moderate-hard",
				TipsRaw:            `["Settle in for the first kilometer","Relax your shoulders"]`,
			},
		},
	}
}

func TestBuildReturnsSessionContext(t *testing.T) {
	b := NewBuilder(tempoRunStore(), nil)
	sc := b.Build(context.Background(), "user-1", "S1")
	if sc == nil {
		t.Fatal("expected a context for the owner")
	}
	if sc.WorkoutType != "Tempo Run" || sc.PlannedDistance != 8.0 {
		t.Fatalf("context = %+v", sc)
	}
	if sc.Name != "Maya" {
		t.Fatalf("name = %q", sc.Name)
	}
	if len(sc.Tips) != 2 {
		t.Fatalf("tips = %v", sc.Tips)
	}
}

func TestBuildOwnershipMismatchReturnsNil(t *testing.T) {
	b := NewBuilder(tempoRunStore(), nil)
	if sc := b.Build(context.Background(), "user-2", "S1"); sc != nil {
		t.Fatalf("another user's session must yield nil context, got %+v", sc)
	}
}

func TestBuildMissingSessionReturnsNil(t *testing.T) {
	b := NewBuilder(tempoRunStore(), nil)
	if sc := b.Build(context.Background(), "user-1", "nope"); sc != nil {
		t.Fatalf("missing session must yield nil context, got %+v", sc)
	}
	if sc := b.Build(context.Background(), "user-1", ""); sc != nil {
		t.Fatalf("empty session id must yield nil context, got %+v", sc)
	}
}

func TestBuildSurvivesUserLookupFailure(t *testing.T) {
	st := tempoRunStore()
	st.failUser = true
	b := NewBuilder(st, nil)
	sc := b.Build(context.Background(), "user-1", "S1")
	if sc == nil {
		t.Fatal("session facts should survive a user lookup failure")
	}
	if sc.Name != "" {
		t.Fatalf("name should be empty when the user lookup fails, got %q", sc.Name)
	}
}

func TestBuildComputesCyclePhase(t *testing.T) {
	st := tempoRunStore()
	start := time.Now().AddDate(0, 0, -20)
	st.users["user-1"].CycleTrackingEnabled = true
	st.users["user-1"].LastPeriodStart = &start
	st.users["user-1"].CycleLengthDays = 28

	b := NewBuilder(st, nil)
	sc := b.Build(context.Background(), "user-1", "S1")
	if sc == nil {
		t.Fatal("expected context")
	}
	if sc.CyclePhase != "luteal" {
		t.Fatalf("phase = %q, want luteal at day 20 of 28", sc.CyclePhase)
	}
	if sc.PhaseGuidance == "" {
		t.Fatal("phase guidance missing")
	}
}

func TestCyclePhaseBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		daysAgo int
		want    string
	}{
		{0, "menstrual"},
		{4, "menstrual"},
		{5, "follicular"},
		{13, "follicular"},
		{14, "ovulatory"},
		{16, "ovulatory"},
		{17, "luteal"},
		{27, "luteal"},
		{28, "menstrual"}, // wraps into the next cycle
	}
	for _, tc := range cases {
		start := now.AddDate(0, 0, -tc.daysAgo)
		if got := cyclePhase(start, 28, now); got != tc.want {
			t.Fatalf("day %d: phase = %q, want %q", tc.daysAgo, got, tc.want)
		}
	}
}

func TestParseTipsFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`["a","b","c"]`, 3},
		{"first tip\nsecond tip\n", 2},
		{`["a",`, 0}, // truncated JSON degrades to no tips
		{"", 0},
		{"   ", 0},
		{`[]`, 0},
		{"single plain tip", 1},
	}
	for _, tc := range cases {
		got := ParseTips(tc.raw)
		if len(got) != tc.want {
			t.Fatalf("ParseTips(%q) = %v, want %d tips", tc.raw, got, tc.want)
		}
	}
}

func TestSystemInstructionContainsWorkoutFacts(t *testing.T) {
	b := NewBuilder(tempoRunStore(), nil)
	sc := b.Build(context.Background(), "user-1", "S1")
	text := SystemInstruction(sc)

	for _, want := range []string{"Tempo Run", "8.0 km", "Maya", "log_workout_completion"} {
		if !strings.Contains(text, want) {
			t.Fatalf("instruction missing %q:\n%s", want, text)
		}
	}
	// Both user intents and all four phase adjustments are always present.
	for _, want := range []string{"Logging a completed workout", "help mid-workout",
		"Menstrual:", "Follicular:", "Ovulatory:", "Luteal:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("instruction missing %q", want)
		}
	}
}

func TestSystemInstructionWithoutContext(t *testing.T) {
	text := SystemInstruction(nil)
	if strings.Contains(text, "Today's workout") {
		t.Fatal("nil context must not invent workout facts")
	}
	for _, want := range []string{"log_workout_completion", "Menstrual:"} {
		if !strings.Contains(text, want) {
			t.Fatalf("instruction missing %q", want)
		}
	}
}
