// Package playback buffers inbound assistant audio and renders it to the
// speaker in fixed quanta despite network jitter.
package playback

import (
	"github.com/stridelabs/cadence/pkg/voice/audio"
)

// Pipeline is the playback half of the voice loop. The network goroutine
// pushes decoded PCM through Write; the render callback pulls fixed quanta
// through Render. The ring between them is the only state shared by the two
// contexts.
type Pipeline struct {
	ring *audio.Ring

	// decode scratch, touched only by the network goroutine.
	scratch []float32
}

// NewPipeline creates a pipeline with the given ring capacity in samples.
// capacity <= 0 selects the default (three minutes at 24 kHz).
func NewPipeline(capacity int) *Pipeline {
	return &Pipeline{ring: audio.NewRing(capacity)}
}

// Write decodes a 16-bit signed little-endian PCM packet into float samples
// and appends them to the ring. Network context only. When the ring would
// overflow, the oldest unread audio is discarded.
func (p *Pipeline) Write(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	p.scratch = audio.DecodePCM16(p.scratch[:0], pcm)
	p.ring.Write(p.scratch)
}

// Render fills one quantum of float samples. Render context only. On
// underrun the entire quantum is silence and nothing is consumed; the return
// value reports whether real audio was emitted.
func (p *Pipeline) Render(quantum []float32) bool {
	return p.ring.Read(quantum)
}

// Flush discards all buffered audio immediately. This is the barge-in path:
// after Flush returns, no residual audio reaches the speaker.
func (p *Pipeline) Flush() {
	p.ring.Flush()
}

// BufferedSamples returns the number of samples awaiting render.
func (p *Pipeline) BufferedSamples() int {
	return p.ring.Available()
}

// BufferedMS returns the buffered duration in milliseconds at the playback
// rate.
func (p *Pipeline) BufferedMS() int {
	return p.ring.Available() * 1000 / audio.PlaybackSampleRateHz
}
