package playback

import (
	"encoding/binary"
	"testing"

	"github.com/stridelabs/cadence/pkg/voice/audio"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestPipeline_WriteDecodesToFloat(t *testing.T) {
	p := NewPipeline(256)
	p.Write(pcm16(-32768, 0, 32767))

	if got := p.BufferedSamples(); got != 3 {
		t.Fatalf("BufferedSamples=%d, want 3", got)
	}
	// Pad to a full quantum so the read succeeds.
	p.Write(make([]byte, (audio.RenderQuantum-3)*2))

	quantum := make([]float32, audio.RenderQuantum)
	if !p.Render(quantum) {
		t.Fatalf("Render returned false with a full quantum buffered")
	}
	if quantum[0] != -1.0 || quantum[1] != 0.0 || quantum[2] != 1.0 {
		t.Fatalf("decoded quantum head %v, want [-1 0 1]", quantum[:3])
	}
}

func TestPipeline_UnderrunIsFullSilence(t *testing.T) {
	p := NewPipeline(1024)
	p.Write(make([]byte, 10*2)) // 10 samples, less than one quantum

	quantum := make([]float32, audio.RenderQuantum)
	quantum[5] = 0.7
	if p.Render(quantum) {
		t.Fatalf("Render returned true on underrun")
	}
	for i, v := range quantum {
		if v != 0 {
			t.Fatalf("quantum[%d]=%v on underrun, want 0", i, v)
		}
	}
	if got := p.BufferedSamples(); got != 10 {
		t.Fatalf("underrun consumed samples: BufferedSamples=%d, want 10", got)
	}
}

func TestPipeline_FlushSilencesNextQuantum(t *testing.T) {
	p := NewPipeline(4096)
	p.Write(pcm16(1000, 2000, 3000))
	p.Write(make([]byte, audio.RenderQuantum*4))
	p.Flush()

	quantum := make([]float32, audio.RenderQuantum)
	if p.Render(quantum) {
		t.Fatalf("Render returned true immediately after Flush")
	}
	for i, v := range quantum {
		if v != 0 {
			t.Fatalf("quantum[%d]=%v after flush, want 0", i, v)
		}
	}
}

func TestPipeline_OverflowKeepsNewest(t *testing.T) {
	p := NewPipeline(audio.RenderQuantum)

	// Two quanta into a one-quantum ring: the first quantum is discarded.
	first := make([]int16, audio.RenderQuantum)
	second := make([]int16, audio.RenderQuantum)
	for i := range second {
		second[i] = 16384
	}
	p.Write(pcm16(first...))
	p.Write(pcm16(second...))

	if got := p.BufferedSamples(); got != audio.RenderQuantum {
		t.Fatalf("BufferedSamples=%d, want %d", got, audio.RenderQuantum)
	}
	quantum := make([]float32, audio.RenderQuantum)
	if !p.Render(quantum) {
		t.Fatalf("Render returned false with a full ring")
	}
	if quantum[0] == 0 {
		t.Fatalf("oldest audio survived overflow; want newest-wins")
	}
}

func TestRenderReader_ServesWholeQuanta(t *testing.T) {
	p := NewPipeline(4096)
	samples := make([]int16, audio.RenderQuantum)
	for i := range samples {
		samples[i] = 8192
	}
	p.Write(pcm16(samples...))

	r := &renderReader{pipeline: p}
	buf := make([]byte, audio.RenderQuantum*2*2) // two quanta worth
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read n=%d, want %d", n, len(buf))
	}
	// First quantum carries audio, second is underrun silence.
	if got := int16(binary.LittleEndian.Uint16(buf[0:])); got == 0 {
		t.Fatalf("first quantum is silent, want audio")
	}
	if got := int16(binary.LittleEndian.Uint16(buf[audio.RenderQuantum*2:])); got != 0 {
		t.Fatalf("second quantum=%d, want silence", got)
	}
}
