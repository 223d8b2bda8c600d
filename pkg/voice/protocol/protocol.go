// Package protocol defines the wire frames exchanged with the remote
// multimodal live service over its bidirectional WebSocket, and the typed
// events the session layer consumes.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// CaptureMimeType tags outbound microphone audio.
	CaptureMimeType = "audio/pcm;rate=16000"

	// PlaybackMimeType tags inbound assistant audio.
	PlaybackMimeType = "audio/pcm;rate=24000"

	// ModalityAudio requests spoken responses in session setup.
	ModalityAudio = "AUDIO"
)

// Blob is base64-framed binary data with a MIME tag.
type Blob struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Part is one element of a content turn: text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is an ordered list of parts attributed to a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// FunctionDeclaration describes one callable tool to the service.
type FunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Tool groups function declarations in session setup.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// GenerationConfig carries the requested response modality.
type GenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// Setup is the one-time session configuration message. It must be the first
// frame on the connection; audio may not be sent until the service
// acknowledges it.
type Setup struct {
	Model                    string            `json:"model"`
	GenerationConfig         *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *Content          `json:"systemInstruction,omitempty"`
	Tools                    []Tool            `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

// RealtimeInput streams live media toward the service.
type RealtimeInput struct {
	Audio *Blob `json:"audio,omitempty"`
}

type clientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
}

// EncodeSetup marshals the session-configuration frame.
func EncodeSetup(setup Setup) ([]byte, error) {
	if strings.TrimSpace(setup.Model) == "" {
		return nil, fmt.Errorf("setup model must not be empty")
	}
	return json.Marshal(clientMessage{Setup: &setup})
}

// EncodeAudioFrame marshals one outbound microphone frame. The PCM payload
// is base64-framed; capture order is preserved by the caller writing frames
// sequentially on one connection.
func EncodeAudioFrame(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("audio frame must not be empty")
	}
	return json.Marshal(clientMessage{
		RealtimeInput: &RealtimeInput{
			Audio: &Blob{
				MimeType: CaptureMimeType,
				Data:     base64.StdEncoding.EncodeToString(pcm),
			},
		},
	})
}

// Transcription is a speech-to-text fragment. Fragments without Finished set
// are partial and are discarded by the transcript accumulator.
type Transcription struct {
	Text     string `json:"text,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// ServerContent is the incremental model output frame.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// FunctionCall is one structured tool invocation from the service.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCallPayload groups tool invocations arriving mid-turn.
type ToolCallPayload struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// GoAway warns that the service is about to close the connection.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}        `json:"setupComplete,omitempty"`
	ServerContent *ServerContent   `json:"serverContent,omitempty"`
	ToolCall      *ToolCallPayload `json:"toolCall,omitempty"`
	GoAway        *GoAway          `json:"goAway,omitempty"`
}

// Event is a decoded inbound frame.
type Event interface {
	eventType() string
}

// SetupCompleteEvent acknowledges session configuration.
type SetupCompleteEvent struct{}

func (SetupCompleteEvent) eventType() string { return "setup_complete" }

// AudioChunkEvent carries decoded assistant PCM.
type AudioChunkEvent struct {
	PCM      []byte
	MimeType string
}

func (AudioChunkEvent) eventType() string { return "audio_chunk" }

// TextEvent carries a finalized assistant text fragment from the model turn.
type TextEvent struct {
	Text string
}

func (TextEvent) eventType() string { return "text" }

// InputTranscriptionEvent carries the user's transcribed speech. A frame
// with Finished=false signals speech in progress.
type InputTranscriptionEvent struct {
	Text     string
	Finished bool
}

func (InputTranscriptionEvent) eventType() string { return "input_transcription" }

// OutputTranscriptionEvent carries the assistant's transcribed speech.
type OutputTranscriptionEvent struct {
	Text     string
	Finished bool
}

func (OutputTranscriptionEvent) eventType() string { return "output_transcription" }

// TurnCompleteEvent marks the end of one assistant turn.
type TurnCompleteEvent struct{}

func (TurnCompleteEvent) eventType() string { return "turn_complete" }

// InterruptedEvent signals barge-in: the user spoke over the assistant and
// buffered playback must be flushed.
type InterruptedEvent struct{}

func (InterruptedEvent) eventType() string { return "interrupted" }

// ToolCallEvent carries structured tool invocations.
type ToolCallEvent struct {
	Calls []FunctionCall
}

func (ToolCallEvent) eventType() string { return "tool_call" }

// GoAwayEvent signals impending connection shutdown.
type GoAwayEvent struct {
	TimeLeft string
}

func (GoAwayEvent) eventType() string { return "go_away" }

// UnknownEvent preserves frames this client does not understand.
type UnknownEvent struct {
	Raw json.RawMessage
}

func (UnknownEvent) eventType() string { return "unknown" }

// DecodeServerFrame decodes one inbound frame into zero or more events, in
// wire order. A single serverContent frame can yield audio, text, and a
// turn-complete marker together.
func DecodeServerFrame(data []byte) ([]Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode server frame: %w", err)
	}

	switch {
	case msg.SetupComplete != nil:
		return []Event{SetupCompleteEvent{}}, nil

	case msg.ToolCall != nil:
		if len(msg.ToolCall.FunctionCalls) == 0 {
			return nil, nil
		}
		return []Event{ToolCallEvent{Calls: msg.ToolCall.FunctionCalls}}, nil

	case msg.GoAway != nil:
		return []Event{GoAwayEvent{TimeLeft: msg.GoAway.TimeLeft}}, nil

	case msg.ServerContent != nil:
		return decodeServerContent(msg.ServerContent)

	default:
		return []Event{UnknownEvent{Raw: append(json.RawMessage(nil), data...)}}, nil
	}
}

func decodeServerContent(sc *ServerContent) ([]Event, error) {
	var events []Event

	// Interrupted comes first so the playback flush happens before any
	// same-frame bookkeeping.
	if sc.Interrupted {
		events = append(events, InterruptedEvent{})
	}
	if sc.InputTranscription != nil {
		events = append(events, InputTranscriptionEvent{
			Text:     sc.InputTranscription.Text,
			Finished: sc.InputTranscription.Finished,
		})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode inline audio: %w", err)
				}
				events = append(events, AudioChunkEvent{PCM: pcm, MimeType: part.InlineData.MimeType})
			}
			if part.Text != "" {
				events = append(events, TextEvent{Text: part.Text})
			}
		}
	}
	if sc.OutputTranscription != nil {
		events = append(events, OutputTranscriptionEvent{
			Text:     sc.OutputTranscription.Text,
			Finished: sc.OutputTranscription.Finished,
		})
	}
	if sc.TurnComplete {
		events = append(events, TurnCompleteEvent{})
	}
	return events, nil
}
