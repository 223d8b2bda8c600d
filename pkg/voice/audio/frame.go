// Package audio holds the sample-level building blocks of the voice
// pipelines: PCM frames, the 16-bit to float conversion used on the playback
// write path, and the lock-free ring buffer shared between the network and
// render contexts.
package audio

const (
	// CaptureSampleRateHz is the outbound (microphone) sample rate.
	CaptureSampleRateHz = 16000

	// PlaybackSampleRateHz is the inbound (assistant audio) sample rate.
	PlaybackSampleRateHz = 24000

	// RenderQuantum is the fixed block size of the render callback, in
	// samples. The playback read path emits exactly this many samples or a
	// full quantum of silence, never a partial block.
	RenderQuantum = 128
)

// Frame is one block of linear PCM samples. A frame is owned by its producer
// until it is handed to a single consumer queue and is never mutated after
// handoff.
type Frame struct {
	PCM        []byte // 16-bit signed little-endian samples
	SampleRate int
	Channels   int
}

// Samples returns the number of samples in the frame.
func (f Frame) Samples() int {
	if f.Channels <= 0 {
		return len(f.PCM) / 2
	}
	return len(f.PCM) / (2 * f.Channels)
}

// DurationMS returns the frame duration in milliseconds.
func (f Frame) DurationMS() int {
	if f.SampleRate <= 0 {
		return 0
	}
	return f.Samples() * 1000 / f.SampleRate
}
