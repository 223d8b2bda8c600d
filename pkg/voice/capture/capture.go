// Package capture turns microphone device callbacks into a restartable
// stream of outbound audio frames.
package capture

import (
	"sync/atomic"

	"github.com/stridelabs/cadence/pkg/voice/audio"
)

// queueDepth bounds outbound frames waiting for the network consumer. At
// 128-sample device blocks this is well under a second of backlog; the device
// callback must never block, so beyond this frames are dropped.
const queueDepth = 64

// Pipeline receives fixed-size input blocks from the audio device callback
// and hands copies to a single consumer. It is the producer half of a
// single-producer single-consumer queue: only the device callback calls
// OnDeviceBlock, only the session's network goroutine drains Frames.
type Pipeline struct {
	sampleRate int
	channels   int

	frames  chan audio.Frame
	active  atomic.Bool
	dropped atomic.Int64
}

// NewPipeline creates an inactive capture pipeline.
func NewPipeline(sampleRate, channels int) *Pipeline {
	if sampleRate <= 0 {
		sampleRate = audio.CaptureSampleRateHz
	}
	if channels <= 0 {
		channels = 1
	}
	return &Pipeline{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     make(chan audio.Frame, queueDepth),
	}
}

// Start marks the pipeline active. Blocks arriving before Start are ignored.
func (p *Pipeline) Start() {
	p.active.Store(true)
}

// Stop flips the active flag. There is no flush: frames already queued but
// not yet consumed stay queued, and blocks arriving after Stop are dropped so
// the device can release the stream promptly.
func (p *Pipeline) Stop() {
	p.active.Store(false)
}

// Active reports whether the pipeline is accepting device blocks.
func (p *Pipeline) Active() bool {
	return p.active.Load()
}

// Frames is the single-consumer queue of captured frames.
func (p *Pipeline) Frames() <-chan audio.Frame {
	return p.frames
}

// Dropped returns the number of blocks discarded because the consumer fell
// behind.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

// OnDeviceBlock runs inside the audio-device callback. It must not block,
// allocate unboundedly, or perform I/O: it copies the block and attempts a
// non-blocking handoff, counting a drop when the queue is full.
func (p *Pipeline) OnDeviceBlock(pcm []byte) {
	if !p.active.Load() || len(pcm) == 0 {
		return
	}
	frame := audio.Frame{
		PCM:        append([]byte(nil), pcm...),
		SampleRate: p.sampleRate,
		Channels:   p.channels,
	}
	select {
	case p.frames <- frame:
	default:
		p.dropped.Add(1)
	}
}
