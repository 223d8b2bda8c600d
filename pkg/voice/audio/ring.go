package audio

import (
	"sync/atomic"
)

// DefaultRingCapacity buffers three minutes of assistant audio at 24 kHz so
// inbound bursts never force a drop under normal operation.
const DefaultRingCapacity = 180 * PlaybackSampleRateHz

// Ring is a fixed-capacity circular store of float32 samples shared between
// exactly two goroutines: the network context writes, the render context
// reads. Instead of a separately maintained sample count it keeps two
// monotonically increasing cursors; availability is their difference, which
// removes the dual-writer hazard on the counter.
//
// Overflow discards the oldest unread audio (the write side advances the read
// cursor), so playback always prefers the newest audio over completeness.
type Ring struct {
	buf []float32

	writePos atomic.Int64
	readPos  atomic.Int64
}

// NewRing creates a ring with the given capacity in samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{buf: make([]float32, capacity)}
}

// Capacity returns the ring capacity in samples.
func (r *Ring) Capacity() int { return len(r.buf) }

// Available returns the number of unread samples. Always in [0, capacity].
func (r *Ring) Available() int {
	n := r.writePos.Load() - r.readPos.Load()
	if n < 0 {
		return 0
	}
	if n > int64(len(r.buf)) {
		return len(r.buf)
	}
	return int(n)
}

// Write appends samples at the write cursor. Called only from the network
// context. If the write would exceed capacity the read cursor is advanced
// past the overflow, clamping availability to capacity.
func (r *Ring) Write(samples []float32) {
	capacity := int64(len(r.buf))
	if capacity == 0 || len(samples) == 0 {
		return
	}
	// A single write larger than the ring keeps only the newest samples.
	if int64(len(samples)) > capacity {
		samples = samples[int64(len(samples))-capacity:]
	}

	pos := r.writePos.Load()
	for i, s := range samples {
		r.buf[(pos+int64(i))%capacity] = s
	}
	pos += int64(len(samples))
	r.writePos.Store(pos)

	// The render context may advance the read cursor concurrently, so the
	// overflow clamp must not rewind it: retry until the cursor is either
	// within capacity or ours to move.
	for {
		rp := r.readPos.Load()
		if pos-rp <= capacity || r.readPos.CompareAndSwap(rp, pos-capacity) {
			break
		}
	}
}

// Read fills dst from the read cursor. Called only from the render context.
// If fewer than len(dst) samples are available it fills dst with silence and
// leaves the cursors untouched: a full quantum or nothing, no partial-frame
// stutter.
func (r *Ring) Read(dst []float32) bool {
	capacity := int64(len(r.buf))
	if capacity == 0 || len(dst) == 0 {
		return false
	}
	pos := r.readPos.Load()
	if r.writePos.Load()-pos < int64(len(dst)) {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}
	for i := range dst {
		dst[i] = r.buf[(pos+int64(i))%capacity]
	}
	// If a flush (or an overflow clamp) moved the cursor while we copied,
	// the copy is stale. Leave the cursor where the other side put it and
	// emit silence instead of replaying the discarded backlog.
	if !r.readPos.CompareAndSwap(pos, pos+int64(len(dst))) {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}
	return true
}

// Flush discards all unread samples. This is the barge-in path: once Flush
// returns, the next render quantum sees an empty ring and emits silence.
func (r *Ring) Flush() {
	r.readPos.Store(r.writePos.Load())
}
