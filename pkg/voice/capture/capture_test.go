package capture

import (
	"testing"
)

func block(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestPipeline_InactiveIgnoresBlocks(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.OnDeviceBlock(block(1, 256))

	select {
	case f := <-p.Frames():
		t.Fatalf("inactive pipeline produced a frame of %d bytes", len(f.PCM))
	default:
	}
}

func TestPipeline_DeliversInCaptureOrder(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.Start()

	for i := 0; i < 5; i++ {
		p.OnDeviceBlock(block(byte(i), 256))
	}
	for i := 0; i < 5; i++ {
		f := <-p.Frames()
		if f.PCM[0] != byte(i) {
			t.Fatalf("frame %d has marker %d, want %d", i, f.PCM[0], i)
		}
		if f.SampleRate != 16000 || f.Channels != 1 {
			t.Fatalf("frame %d tagged %d Hz / %d ch", i, f.SampleRate, f.Channels)
		}
	}
}

func TestPipeline_CopiesDeviceBlock(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.Start()

	buf := block(7, 256)
	p.OnDeviceBlock(buf)
	buf[0] = 99 // device reuses its buffer between callbacks

	f := <-p.Frames()
	if f.PCM[0] != 7 {
		t.Fatalf("frame aliased the device buffer: marker=%d, want 7", f.PCM[0])
	}
}

func TestPipeline_StopDropsNewBlocks(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.Start()
	p.OnDeviceBlock(block(1, 256))
	p.Stop()
	p.OnDeviceBlock(block(2, 256))

	// The pre-stop frame is still queued; nothing after stop is accepted.
	f := <-p.Frames()
	if f.PCM[0] != 1 {
		t.Fatalf("unexpected frame marker %d", f.PCM[0])
	}
	select {
	case f := <-p.Frames():
		t.Fatalf("block after Stop produced a frame (marker %d)", f.PCM[0])
	default:
	}
	if p.Active() {
		t.Fatalf("pipeline still active after Stop")
	}
}

func TestPipeline_FullQueueNeverBlocks(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.Start()

	// Overfill without a consumer. OnDeviceBlock must return immediately and
	// count drops instead of blocking the device callback.
	for i := 0; i < queueDepth+10; i++ {
		p.OnDeviceBlock(block(byte(i), 256))
	}
	if got := p.Dropped(); got != 10 {
		t.Fatalf("Dropped=%d, want 10", got)
	}
}

func TestPipeline_RestartAfterStop(t *testing.T) {
	p := NewPipeline(16000, 1)
	p.Start()
	p.Stop()
	p.Start()
	p.OnDeviceBlock(block(3, 128))

	f := <-p.Frames()
	if f.PCM[0] != 3 {
		t.Fatalf("restarted pipeline frame marker=%d, want 3", f.PCM[0])
	}
}
