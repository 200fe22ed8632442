package media

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// DefaultCaptureRate is the PCM sample rate captured segments are
// recorded at, matching the protocol's uplink format.
const DefaultCaptureRate = 16000

// MalgoCapture is a Capture backed by a miniaudio capture device.
// The device is opened once by Acquire and shared by every segment of
// the session; only the recording gate toggles per segment.
type MalgoCapture struct {
	// SampleRate defaults to DefaultCaptureRate.
	SampleRate int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	mu        sync.Mutex
	stop      func()
	acquired  bool
	recording bool
	segBuf    []byte
}

// Acquire implements Capture. Re-acquire after Release opens a fresh
// device.
func (c *MalgoCapture) Acquire(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.acquired {
		return nil
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return &CaptureError{Err: fmt.Errorf("init audio context: %w", err)}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.sampleRate())
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, inputSamples []byte, _ uint32) {
			c.onData(inputSamples)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return &PermissionError{Err: err}
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return &PermissionError{Err: err}
	}

	c.stop = func() {
		_ = device.Stop()
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}
	c.acquired = true
	c.logger().Debug("media: microphone acquired", "sample_rate", c.sampleRate())
	return nil
}

// onData is the device data callback.
func (c *MalgoCapture) onData(inputSamples []byte) {
	c.mu.Lock()
	if c.recording {
		c.segBuf = append(c.segBuf, inputSamples...)
	}
	c.mu.Unlock()
}

// CaptureSegment implements Capture.
func (c *MalgoCapture) CaptureSegment(ctx context.Context, maxDur time.Duration) (*Segment, error) {
	c.mu.Lock()
	if !c.acquired {
		c.mu.Unlock()
		return nil, ErrNotAcquired
	}
	if c.recording {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.recording = true
	c.segBuf = c.segBuf[:0]
	c.mu.Unlock()

	start := time.Now()
	timer := time.NewTimer(maxDur)
	defer timer.Stop()

	var canceled error
	select {
	case <-timer.C:
	case <-ctx.Done():
		canceled = ctx.Err()
	}

	c.mu.Lock()
	c.recording = false
	buf := make([]byte, len(c.segBuf))
	copy(buf, c.segBuf)
	c.segBuf = c.segBuf[:0]
	c.mu.Unlock()

	if canceled != nil {
		return nil, canceled
	}
	return &Segment{
		Bytes:      buf,
		Format:     fmt.Sprintf("audio/pcm;rate=%d", c.sampleRate()),
		CapturedAt: start,
	}, nil
}

// Release implements Capture. Stopping the device blocks until the
// audio worker thread drains its in-flight data callback, and that
// callback takes c.mu, so the device is torn down outside the lock.
func (c *MalgoCapture) Release() {
	c.mu.Lock()
	if !c.acquired {
		c.mu.Unlock()
		return
	}
	c.acquired = false
	c.recording = false
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.logger().Debug("media: microphone released")
}

func (c *MalgoCapture) sampleRate() int {
	if c.SampleRate > 0 {
		return c.SampleRate
	}
	return DefaultCaptureRate
}

func (c *MalgoCapture) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// CaptureDevices lists the available capture devices.
func CaptureDevices() ([]string, error) {
	return deviceNames(malgo.Capture)
}

// PlaybackDevices lists the available playback devices.
func PlaybackDevices() ([]string, error) {
	return deviceNames(malgo.Playback)
}

func deviceNames(kind malgo.DeviceType) ([]string, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	infos, err := malgoCtx.Devices(kind)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

var _ Capture = (*MalgoCapture)(nil)
