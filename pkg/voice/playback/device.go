package playback

import (
	"encoding/binary"
	"fmt"

	"github.com/ebitengine/oto/v3"

	"github.com/stridelabs/cadence/pkg/core"
	"github.com/stridelabs/cadence/pkg/voice/audio"
)

// Device renders a Pipeline to the speaker. oto pulls PCM through an
// io.Reader, which acts as the fixed-quantum render callback: each pull is
// served in whole 128-sample quanta, with silence on underrun.
type Device struct {
	ctx      *oto.Context
	player   *oto.Player
	pipeline *Pipeline
}

// OpenDevice initializes the speaker context. Failure is permanent; callers
// surface it as an Error state and never retry.
func OpenDevice(pipeline *Pipeline) (*Device, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   audio.PlaybackSampleRateHz,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms of device-side buffer keeps latency low without glitching.
		BufferSize: audio.PlaybackSampleRateHz / 10 * 2,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, core.NewDeviceError(fmt.Sprintf("open playback device: %v", err))
	}
	<-ready

	d := &Device{ctx: ctx, pipeline: pipeline}
	d.player = ctx.NewPlayer(&renderReader{pipeline: pipeline})
	return d, nil
}

// Start begins pulling audio from the pipeline.
func (d *Device) Start() {
	if d.player != nil {
		d.player.Play()
	}
}

// Close stops playback and releases the player.
func (d *Device) Close() {
	if d.player != nil {
		_ = d.player.Close()
		d.player = nil
	}
}

// renderReader adapts the pipeline's quantum render to oto's pull model.
type renderReader struct {
	pipeline *Pipeline
	quantum  [audio.RenderQuantum]float32
}

// Read fills p with 16-bit little-endian samples, one whole quantum at a
// time. It always satisfies the request: quanta the ring cannot cover come
// out as silence, never as partial audio.
func (r *renderReader) Read(p []byte) (int, error) {
	const quantumBytes = audio.RenderQuantum * 2
	n := 0
	for n+quantumBytes <= len(p) {
		r.pipeline.Render(r.quantum[:])
		for i, f := range r.quantum {
			binary.LittleEndian.PutUint16(p[n+2*i:], uint16(audio.FloatToSample(f)))
		}
		n += quantumBytes
	}
	if n == 0 && len(p) > 0 {
		// Request smaller than one quantum: pad with silence.
		for i := range p {
			p[i] = 0
		}
		n = len(p)
	}
	return n, nil
}
