package session

// State is the orchestrator's lifecycle state. Exactly one instance exists
// per active session; it is mutated only under the session mutex and
// surfaced to callers through the state-change callback.
type State int

const (
	// StateIdle means no connection exists and no audio is flowing.
	StateIdle State = iota

	// StateConnecting covers token issuance, the websocket dial, and the
	// setup acknowledgement. No audio is sent or played yet.
	StateConnecting

	// StateListening means capture is active and outbound frames stream to
	// the service as they arrive.
	StateListening

	// StateProcessing means the service detected user speech and is forming
	// a response.
	StateProcessing

	// StateResponding means assistant audio or text is arriving.
	StateResponding

	// StateError is terminal for the session. Recovery is a manual restart.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateResponding:
		return "responding"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
