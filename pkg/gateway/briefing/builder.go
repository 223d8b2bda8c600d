// Package briefing assembles the per-session coaching context and the
// system instruction handed to the live voice service.
package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/gateway/store"
)

// Builder looks up session and user data and renders it for the coach.
type Builder struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder returns a context builder over st.
func NewBuilder(st store.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: st, logger: logger, now: time.Now}
}

// Build returns the coaching context for sessionID, or nil when the session
// is absent or owned by someone else. Ownership failures are deliberately
// indistinguishable from missing sessions; the caller still gets a usable
// (context-free) session either way.
func (b *Builder) Build(ctx context.Context, userID, sessionID string) *api.SessionContext {
	if sessionID == "" {
		return nil
	}
	sess, err := b.store.GetSession(ctx, sessionID)
	if err != nil {
		if err != store.ErrNotFound {
			b.logger.Warn("session lookup failed", "session_id", sessionID, "error", err)
		}
		return nil
	}
	if sess.UserID != userID {
		b.logger.Warn("session ownership mismatch", "session_id", sessionID)
		return nil
	}

	sc := &api.SessionContext{
		SessionID:   sess.ID,
		WorkoutType: sess.WorkoutType,
		Intensity:   sess.Intensity,
		Tips:        ParseTips(sess.TipsRaw),
	}
	if sess.PlannedDistanceKM != nil {
		sc.PlannedDistance = *sess.PlannedDistanceKM
	}
	if sess.PlannedDurationMin != nil {
		sc.PlannedDuration = *sess.PlannedDurationMin
	}

	user, err := b.store.GetUser(ctx, userID)
	if err != nil {
		// Session facts alone are still worth briefing the coach with.
		b.logger.Warn("user lookup failed", "user_id", userID, "error", err)
		return sc
	}
	sc.Name = user.Name
	if user.CycleTrackingEnabled && user.LastPeriodStart != nil {
		phase := cyclePhase(*user.LastPeriodStart, user.CycleLengthDays, b.now())
		sc.CyclePhase = phase
		sc.PhaseGuidance = phaseGuidance[phase]
	}
	return sc
}

// ParseTips decodes the stored tip text. The column has held a JSON array,
// newline-separated lines, and plain garbage at various points; anything
// unusable degrades to no tips rather than an error.
func ParseTips(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var tips []string
	if err := json.Unmarshal([]byte(raw), &tips); err == nil {
		return cleanTips(tips)
	}
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		// Looks like serialized data but does not decode: treat as garbage.
		return nil
	}
	return cleanTips(strings.Split(raw, "\n"))
}

func cleanTips(tips []string) []string {
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

const (
	phaseMenstrual  = "menstrual"
	phaseFollicular = "follicular"
	phaseOvulatory  = "ovulatory"
	phaseLuteal     = "luteal"
)

var phaseGuidance = map[string]string{
	phaseMenstrual:  "Energy may be low; validate taking it easier and focus on comfort over pace.",
	phaseFollicular: "Energy tends to climb; it is a good window to encourage pushing a little harder.",
	phaseOvulatory:  "Peak energy is common; support ambitious efforts but remind them to warm up well.",
	phaseLuteal:     "Perceived effort often runs higher than usual; reassure them that a hard-feeling easy pace is normal.",
}

func cyclePhase(lastPeriodStart time.Time, cycleLengthDays int, now time.Time) string {
	if cycleLengthDays <= 0 {
		cycleLengthDays = 28
	}
	days := int(now.Sub(lastPeriodStart).Hours()/24) % cycleLengthDays
	if days < 0 {
		days += cycleLengthDays
	}
	switch {
	case days < 5:
		return phaseMenstrual
	case days < 14:
		return phaseFollicular
	case days < 17:
		return phaseOvulatory
	default:
		return phaseLuteal
	}
}

// SystemInstruction renders the plain-text briefing sent verbatim to the
// live service. sc may be nil, in which case the coach gets the persona and
// behavior rules without workout facts.
func SystemInstruction(sc *api.SessionContext) string {
	var b strings.Builder

	b.WriteString("You are Cadence, a running coach speaking with a runner over voice. ")
	b.WriteString("Be brief, warm, and supportive. Use plain language and avoid training jargon. ")
	b.WriteString("Keep responses to a couple of sentences so the runner can keep moving.\n\n")

	if sc != nil {
		if sc.Name != "" {
			fmt.Fprintf(&b, "You are coaching %s.\n", sc.Name)
		}
		var facts []string
		if sc.WorkoutType != "" {
			facts = append(facts, fmt.Sprintf("Today's workout: %s.", sc.WorkoutType))
		}
		if sc.PlannedDistance > 0 {
			facts = append(facts, fmt.Sprintf("Planned distance: %.1f km.", sc.PlannedDistance))
		}
		if sc.PlannedDuration > 0 {
			facts = append(facts, fmt.Sprintf("Planned duration: %d minutes.", sc.PlannedDuration))
		}
		if sc.Intensity != "" {
			facts = append(facts, fmt.Sprintf("Target intensity: %s.", sc.Intensity))
		}
		if len(facts) > 0 {
			b.WriteString(strings.Join(facts, " "))
			b.WriteString("\n")
		}
		if len(sc.Tips) > 0 {
			b.WriteString("Session tips to weave in naturally:\n")
			for _, tip := range sc.Tips {
				fmt.Fprintf(&b, "- %s\n", tip)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Distinguish two kinds of requests:\n")
	b.WriteString("1. Logging a completed workout: gather distance covered, duration, effort on a 1-10 scale, and any notes, then call the log_workout_completion tool with what you learned.\n")
	b.WriteString("2. Asking for help mid-workout: give a short, empathetic, immediately actionable answer.\n\n")

	b.WriteString("Adjust your tone to the runner's cycle phase when known:\n")
	fmt.Fprintf(&b, "- Menstrual: %s\n", phaseGuidance[phaseMenstrual])
	fmt.Fprintf(&b, "- Follicular: %s\n", phaseGuidance[phaseFollicular])
	fmt.Fprintf(&b, "- Ovulatory: %s\n", phaseGuidance[phaseOvulatory])
	fmt.Fprintf(&b, "- Luteal: %s\n", phaseGuidance[phaseLuteal])
	if sc != nil && sc.CyclePhase != "" {
		fmt.Fprintf(&b, "Current phase: %s. %s\n", sc.CyclePhase, sc.PhaseGuidance)
	}

	return b.String()
}
