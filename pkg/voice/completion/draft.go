// Package completion turns the coach's log_workout_completion tool call into
// a confirmed workout record. The tool call only ever produces a draft; the
// user confirms or discards it before anything is written.
package completion

import (
	"fmt"
	"math"
	"strings"

	"github.com/stridelabs/cadence/pkg/voice/protocol"
)

// Draft holds the workout details the coach proposed. Every field except the
// session is optional; whatever the user did not mention stays unset.
type Draft struct {
	SessionID      string
	ActualDistance *float64 // kilometers
	ActualDuration *int     // minutes
	RPE            *int     // 1..10
	Notes          string
}

// DraftFromCall extracts a draft from the tool call arguments. Fields with
// unexpected types are dropped rather than failing the whole call; an RPE
// outside 1..10 is dropped too.
func DraftFromCall(sessionID string, call protocol.FunctionCall) (*Draft, error) {
	if call.Name != "log_workout_completion" {
		return nil, fmt.Errorf("unexpected tool call %q", call.Name)
	}
	d := &Draft{SessionID: sessionID}
	if v, ok := asFloat(call.Args["actualDistance"]); ok && v >= 0 {
		d.ActualDistance = &v
	}
	if v, ok := asInt(call.Args["actualDuration"]); ok && v >= 0 {
		d.ActualDuration = &v
	}
	if v, ok := asInt(call.Args["rpe"]); ok && v >= 1 && v <= 10 {
		d.RPE = &v
	}
	if s, ok := call.Args["notes"].(string); ok {
		d.Notes = strings.TrimSpace(s)
	}
	return d, nil
}

// Summary renders the draft for a confirmation prompt.
func (d *Draft) Summary() string {
	var parts []string
	if d.ActualDistance != nil {
		parts = append(parts, fmt.Sprintf("%.1f km", *d.ActualDistance))
	}
	if d.ActualDuration != nil {
		parts = append(parts, fmt.Sprintf("%d min", *d.ActualDuration))
	}
	if d.RPE != nil {
		parts = append(parts, fmt.Sprintf("RPE %d", *d.RPE))
	}
	if d.Notes != "" {
		parts = append(parts, fmt.Sprintf("notes: %s", d.Notes))
	}
	if len(parts) == 0 {
		return "workout completed (no details)"
	}
	return strings.Join(parts, ", ")
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return int(math.Round(n)), true
		}
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
