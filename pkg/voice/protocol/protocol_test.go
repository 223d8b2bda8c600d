package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeSetup(t *testing.T) {
	data, err := EncodeSetup(Setup{
		Model:             "models/gemini-2.0-flash-live-001",
		GenerationConfig:  &GenerationConfig{ResponseModalities: []string{ModalityAudio}},
		SystemInstruction: &Content{Parts: []Part{{Text: "You are a running coach."}}},
	})
	if err != nil {
		t.Fatalf("EncodeSetup: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if _, ok := decoded["setup"]; !ok {
		t.Fatalf("frame missing setup envelope: %s", data)
	}
	if strings.Contains(string(data), "realtimeInput") {
		t.Fatalf("setup frame leaked realtimeInput: %s", data)
	}
}

func TestEncodeSetup_RequiresModel(t *testing.T) {
	if _, err := EncodeSetup(Setup{}); err == nil {
		t.Fatalf("EncodeSetup accepted empty model")
	}
}

func TestEncodeAudioFrame(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	data, err := EncodeAudioFrame(pcm)
	if err != nil {
		t.Fatalf("EncodeAudioFrame: %v", err)
	}
	var msg struct {
		RealtimeInput struct {
			Audio Blob `json:"audio"`
		} `json:"realtimeInput"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if msg.RealtimeInput.Audio.MimeType != CaptureMimeType {
		t.Fatalf("mime=%q, want %q", msg.RealtimeInput.Audio.MimeType, CaptureMimeType)
	}
	got, err := base64.StdEncoding.DecodeString(msg.RealtimeInput.Audio.Data)
	if err != nil || string(got) != string(pcm) {
		t.Fatalf("payload round trip failed: %v %v", got, err)
	}
}

func TestDecodeServerFrame_SetupComplete(t *testing.T) {
	events, err := DecodeServerFrame([]byte(`{"setupComplete":{}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if _, ok := events[0].(SetupCompleteEvent); !ok {
		t.Fatalf("got %T, want SetupCompleteEvent", events[0])
	}
}

func TestDecodeServerFrame_ContentWithAudioTextAndTurnComplete(t *testing.T) {
	pcm := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	frame := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + pcm + `"}},{"text":"Nice pace."}]},"turnComplete":true}}`

	events, err := DecodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %#v", len(events), events)
	}
	audio, ok := events[0].(AudioChunkEvent)
	if !ok || len(audio.PCM) != 4 {
		t.Fatalf("events[0]=%#v, want 4-byte AudioChunkEvent", events[0])
	}
	text, ok := events[1].(TextEvent)
	if !ok || text.Text != "Nice pace." {
		t.Fatalf("events[1]=%#v, want TextEvent", events[1])
	}
	if _, ok := events[2].(TurnCompleteEvent); !ok {
		t.Fatalf("events[2]=%#v, want TurnCompleteEvent", events[2])
	}
}

func TestDecodeServerFrame_InterruptedOrderedFirst(t *testing.T) {
	frame := `{"serverContent":{"interrupted":true,"turnComplete":true}}`
	events, err := DecodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if _, ok := events[0].(InterruptedEvent); !ok {
		t.Fatalf("events[0]=%#v, want InterruptedEvent first", events[0])
	}
}

func TestDecodeServerFrame_ToolCall(t *testing.T) {
	frame := `{"toolCall":{"functionCalls":[{"id":"fc-1","name":"log_workout_completion","args":{"actualDistance":8.2,"rpe":7}}]}}`
	events, err := DecodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	call, ok := events[0].(ToolCallEvent)
	if !ok || len(call.Calls) != 1 {
		t.Fatalf("events[0]=%#v, want one-call ToolCallEvent", events[0])
	}
	if call.Calls[0].Name != "log_workout_completion" {
		t.Fatalf("name=%q", call.Calls[0].Name)
	}
	if got := call.Calls[0].Args["actualDistance"]; got != 8.2 {
		t.Fatalf("actualDistance=%v, want 8.2", got)
	}
}

func TestDecodeServerFrame_InputTranscription(t *testing.T) {
	frame := `{"serverContent":{"inputTranscription":{"text":"how am I","finished":false}}}`
	events, err := DecodeServerFrame([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	in, ok := events[0].(InputTranscriptionEvent)
	if !ok || in.Finished || in.Text != "how am I" {
		t.Fatalf("events[0]=%#v", events[0])
	}
}

func TestDecodeServerFrame_UnknownFramePreserved(t *testing.T) {
	events, err := DecodeServerFrame([]byte(`{"usageMetadata":{"totalTokenCount":12}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := events[0].(UnknownEvent); !ok {
		t.Fatalf("events[0]=%#v, want UnknownEvent", events[0])
	}
}

func TestDecodeServerFrame_Malformed(t *testing.T) {
	if _, err := DecodeServerFrame([]byte(`{`)); err == nil {
		t.Fatalf("malformed frame decoded without error")
	}
}
