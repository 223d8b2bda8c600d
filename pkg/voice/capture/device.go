package capture

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/stridelabs/cadence/pkg/core"
)

// Device owns the microphone capture device and feeds its callback blocks
// into a Pipeline.
type Device struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	pipeline *Pipeline
}

// OpenDevice initializes the audio backend and the capture device. Failure
// to open (permission denied, device busy) is permanent: callers surface it
// as an Error state and never retry.
func OpenDevice(pipeline *Pipeline) (*Device, error) {
	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	malgoCtx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, core.NewDeviceError(fmt.Sprintf("init audio context: %v", err))
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(pipeline.channels)
	deviceConfig.SampleRate = uint32(pipeline.sampleRate)
	deviceConfig.PeriodSizeInFrames = audio128

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			pipeline.OnDeviceBlock(input)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, core.NewDeviceError(fmt.Sprintf("open capture device: %v", err))
	}

	return &Device{ctx: malgoCtx, device: device, pipeline: pipeline}, nil
}

// audio128 matches the capture device's native block size.
const audio128 = 128

// Start begins the hardware stream and activates the pipeline.
func (d *Device) Start() error {
	d.pipeline.Start()
	if err := d.device.Start(); err != nil {
		d.pipeline.Stop()
		return core.NewDeviceError(fmt.Sprintf("start capture device: %v", err))
	}
	return nil
}

// Stop deactivates the pipeline and releases the hardware stream. Undelivered
// frames are dropped in favor of prompt disconnection.
func (d *Device) Stop() {
	d.pipeline.Stop()
	if d.device != nil {
		_ = d.device.Stop()
	}
}

// Close releases the device and audio context.
func (d *Device) Close() {
	d.Stop()
	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx = nil
	}
}
