// Package session owns the live coaching connection: it requests a session
// token, opens the streaming connection, routes audio between the capture and
// playback pipelines, and drives the session state machine.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/gateway/api"
	"github.com/stridelabs/cadence/pkg/voice/capture"
	"github.com/stridelabs/cadence/pkg/voice/playback"
	"github.com/stridelabs/cadence/pkg/voice/protocol"
)

const defaultConnectTimeout = 15 * time.Second

// TokenClient issues one connection credential per session.
type TokenClient interface {
	IssueToken(ctx context.Context, sessionID string) (*api.TokenResponse, error)
}

// TranscriptEntry is one finalized line of conversation.
type TranscriptEntry struct {
	Role string // "user" or "assistant"
	Text string
}

// Callbacks surface session activity to the caller. All callbacks run on the
// network goroutine; they must not block and must not call back into Stop.
type Callbacks struct {
	OnStateChange func(from, to State)
	OnTranscript  func(entry TranscriptEntry)
	OnToolCall    func(call protocol.FunctionCall)
	OnError       func(err error)
}

// Orchestrator drives one voice coaching session at a time. Only one session
// may be active per Orchestrator; Start while non-idle is rejected, never
// queued.
type Orchestrator struct {
	tokens   TokenClient
	capture  *capture.Pipeline
	playback *playback.Pipeline
	cb       Callbacks

	mu         sync.Mutex
	state      State
	sessionID  string
	transcript []TranscriptEntry
	conn       *websocket.Conn
	cancel     context.CancelFunc

	writeMu  sync.Mutex
	stopping atomic.Bool
}

// New creates an idle orchestrator over the given pipelines.
func New(tokens TokenClient, cap *capture.Pipeline, play *playback.Pipeline, cb Callbacks) *Orchestrator {
	return &Orchestrator{
		tokens:   tokens,
		capture:  cap,
		playback: play,
		cb:       cb,
		state:    StateIdle,
	}
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SessionID returns the training session this connection is scoped to, if
// any.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// TranscriptEntries returns a snapshot of the finalized transcript.
func (o *Orchestrator) TranscriptEntries() []TranscriptEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]TranscriptEntry(nil), o.transcript...)
}

// Transcript returns the finalized transcript as one string.
func (o *Orchestrator) Transcript() string {
	entries := o.TranscriptEntries()
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Role)
		b.WriteString(": ")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Start requests a token, opens the streaming connection, sends session
// configuration, and begins routing audio. sessionID is optional. Starting
// while a session is active is rejected; starting from Error is the manual
// retry path.
func (o *Orchestrator) Start(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	if o.state != StateIdle && o.state != StateError {
		o.mu.Unlock()
		return core.NewInvalidRequestError(fmt.Sprintf("session already active (state %s)", o.state))
	}
	// Fresh session: nothing leaks from the previous one.
	o.sessionID = sessionID
	o.transcript = nil
	o.stopping.Store(false)
	sessCtx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.mu.Unlock()
	o.setState(StateConnecting)

	tok, err := o.tokens.IssueToken(ctx, sessionID)
	if err != nil {
		wrapped := core.NewTokenError(fmt.Sprintf("issue session token: %v", err))
		o.failStart(wrapped)
		return wrapped
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var dialCancel context.CancelFunc
		dialCtx, dialCancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer dialCancel()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, tok.ConnectionTarget, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("dial live service (status %d): %w", resp.StatusCode, err)
		}
		wrapped := core.NewTransportError(err.Error())
		o.failStart(wrapped)
		return wrapped
	}

	setup, err := protocol.EncodeSetup(protocol.Setup{
		Model:                    tok.Model,
		GenerationConfig:         &protocol.GenerationConfig{ResponseModalities: []string{protocol.ModalityAudio}},
		SystemInstruction:        &protocol.Content{Parts: []protocol.Part{{Text: tok.SystemInstruction}}},
		Tools:                    []protocol.Tool{completionTool},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	})
	if err != nil {
		_ = conn.Close()
		wrapped := core.NewTransportError(fmt.Sprintf("encode setup: %v", err))
		o.failStart(wrapped)
		return wrapped
	}
	if err := conn.WriteMessage(websocket.TextMessage, setup); err != nil {
		_ = conn.Close()
		wrapped := core.NewTransportError(fmt.Sprintf("send setup: %v", err))
		o.failStart(wrapped)
		return wrapped
	}

	// The service must acknowledge configuration before any audio moves.
	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		wrapped := core.NewTransportError(fmt.Sprintf("read setup ack: %v", err))
		o.failStart(wrapped)
		return wrapped
	}
	_ = conn.SetReadDeadline(time.Time{})
	events, err := protocol.DecodeServerFrame(payload)
	if err != nil || len(events) == 0 {
		_ = conn.Close()
		wrapped := core.NewTransportError("invalid setup ack frame")
		o.failStart(wrapped)
		return wrapped
	}
	if _, ok := events[0].(protocol.SetupCompleteEvent); !ok {
		_ = conn.Close()
		wrapped := core.NewTransportError("live service rejected session configuration")
		o.failStart(wrapped)
		return wrapped
	}

	if o.stopping.Load() {
		// Stop raced the connection attempt; the session never goes live.
		_ = conn.Close()
		o.setState(StateIdle)
		return nil
	}
	o.mu.Lock()
	o.conn = conn
	o.mu.Unlock()
	o.capture.Start()
	o.setState(StateListening)

	go o.readLoop(conn)
	go o.writeLoop(sessCtx, conn)
	return nil
}

// Stop tears the session down synchronously: capture stops, playback is
// flushed, the connection closes, and the state lands on Idle, in that
// order. It is idempotent and safe from any state, including Error.
func (o *Orchestrator) Stop() {
	o.stopping.Store(true)

	o.capture.Stop()
	o.drainCapture()
	o.playback.Flush()

	o.mu.Lock()
	conn := o.conn
	o.conn = nil
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	if conn != nil {
		o.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		o.writeMu.Unlock()
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
	}
	o.setState(StateIdle)
}

// failStart cleans up a connection attempt that never reached Listening.
func (o *Orchestrator) failStart(err error) {
	o.capture.Stop()
	o.drainCapture()
	o.playback.Flush()
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()
	if o.stopping.Load() {
		// The user stopped before the session went live; that is a clean
		// teardown, not a failure.
		o.setState(StateIdle)
		return
	}
	o.setState(StateError)
	if o.cb.OnError != nil {
		o.cb.OnError(err)
	}
}

// drainCapture discards frames that were queued but never delivered. Called
// only after capture has stopped, so the queue cannot refill and nothing can
// carry over into the next session.
func (o *Orchestrator) drainCapture() {
	for {
		select {
		case <-o.capture.Frames():
		default:
			return
		}
	}
}

// transitionError handles mid-session transport failure: everything is torn
// down, transcript and any draft are abandoned, and restart is manual. from
// identifies the failing connection so a loop left over from a previous
// session cannot tear down the current one.
func (o *Orchestrator) transitionError(from *websocket.Conn, err error) {
	if o.stopping.Load() {
		return
	}
	o.mu.Lock()
	if o.conn != from || o.state == StateIdle || o.state == StateError {
		o.mu.Unlock()
		return
	}
	o.conn = nil
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()

	o.capture.Stop()
	o.drainCapture()
	o.playback.Flush()
	_ = from.Close()
	o.setState(StateError)
	if o.cb.OnError != nil {
		o.cb.OnError(err)
	}
}

// writeLoop drains the capture queue onto the connection. It is the single
// consumer of the capture pipeline, so frames reach the transport in strict
// capture order with no buffering beyond the one frame in flight.
func (o *Orchestrator) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-o.capture.Frames():
			data, err := protocol.EncodeAudioFrame(frame.PCM)
			if err != nil {
				continue
			}
			o.writeMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, data)
			o.writeMu.Unlock()
			if err != nil {
				o.transitionError(conn, core.NewTransportError(fmt.Sprintf("send audio frame: %v", err)))
				return
			}
		}
	}
}

// readLoop decodes inbound frames and routes them: audio to playback, text
// to the transcript, tool calls to the caller, markers to the state machine.
func (o *Orchestrator) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if o.stopping.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				o.transitionError(conn, core.NewTransportError("live service closed the connection"))
				return
			}
			o.transitionError(conn, core.NewTransportError(fmt.Sprintf("read frame: %v", err)))
			return
		}
		events, err := protocol.DecodeServerFrame(payload)
		if err != nil {
			o.transitionError(conn, core.NewTransportError(fmt.Sprintf("decode frame: %v", err)))
			return
		}
		for _, event := range events {
			o.handleEvent(conn, event)
		}
	}
}

func (o *Orchestrator) handleEvent(conn *websocket.Conn, event protocol.Event) {
	switch e := event.(type) {
	case protocol.InterruptedEvent:
		// Barge-in: stale assistant audio must not be heard after this.
		o.playback.Flush()

	case protocol.InputTranscriptionEvent:
		if o.State() == StateListening {
			o.setState(StateProcessing)
		}
		if e.Finished && strings.TrimSpace(e.Text) != "" {
			o.appendTranscript(TranscriptEntry{Role: "user", Text: e.Text})
		}

	case protocol.AudioChunkEvent:
		o.playback.Write(e.PCM)
		o.markResponding()

	case protocol.TextEvent:
		// Model-turn text parts are complete fragments.
		o.appendTranscript(TranscriptEntry{Role: "assistant", Text: e.Text})
		o.markResponding()

	case protocol.OutputTranscriptionEvent:
		// Partial fragments are discarded rather than concatenated.
		if e.Finished && strings.TrimSpace(e.Text) != "" {
			o.appendTranscript(TranscriptEntry{Role: "assistant", Text: e.Text})
		}

	case protocol.TurnCompleteEvent:
		if s := o.State(); s == StateProcessing || s == StateResponding {
			o.setState(StateListening)
		}

	case protocol.ToolCallEvent:
		// Forwarded immediately; the handler must not wait for turn-complete.
		if o.cb.OnToolCall != nil {
			for _, call := range e.Calls {
				o.cb.OnToolCall(call)
			}
		}

	case protocol.GoAwayEvent:
		o.transitionError(conn, core.NewTransportError("live service is going away"))
	}
}

func (o *Orchestrator) markResponding() {
	if s := o.State(); s == StateListening || s == StateProcessing {
		o.setState(StateResponding)
	}
}

func (o *Orchestrator) appendTranscript(entry TranscriptEntry) {
	o.mu.Lock()
	o.transcript = append(o.transcript, entry)
	o.mu.Unlock()
	if o.cb.OnTranscript != nil {
		o.cb.OnTranscript(entry)
	}
}

func (o *Orchestrator) setState(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	if from != to && o.cb.OnStateChange != nil {
		o.cb.OnStateChange(from, to)
	}
}

// completionTool declares the workout logging tool the coach can invoke.
var completionTool = protocol.Tool{
	FunctionDeclarations: []protocol.FunctionDeclaration{
		{
			Name:        "log_workout_completion",
			Description: "Log that the user finished their workout. Call once the user has confirmed distance, duration, effort, and any notes.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"actualDistance": {"type": "number", "description": "Distance covered in kilometers"},
					"actualDuration": {"type": "number", "description": "Duration in minutes"},
					"rpe": {"type": "integer", "minimum": 1, "maximum": 10, "description": "Rating of perceived exertion, 1-10"},
					"notes": {"type": "string", "description": "Anything notable about the workout"}
				}
			}`),
		},
	},
}
