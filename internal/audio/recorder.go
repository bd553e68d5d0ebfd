// Package audio captures microphone samples into an in-memory buffer
// using malgo. The device callback hands frames to an internal queue
// drained by a separate goroutine, so device-thread delivery is never
// held up by buffer growth.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrDeviceUnavailable marks capture failures that are fatal to the
// current session only: no input device, or permission denied.
var ErrDeviceUnavailable = errors.New("audio: capture device unavailable")

// frameQueueSize is the number of callback frames the queue absorbs
// before the device callback has to wait on the drain goroutine.
// At typical 10ms periods this is several seconds of slack.
const frameQueueSize = 256

// Recorder captures audio from the default microphone into a float32
// buffer. The microphone handle is owned exclusively by the Recorder
// between Start and Stop.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	device    *malgo.Device
	buf       []float32
	recording bool

	frames  chan []float32
	drained chan struct{}
}

// NewRecorder creates a new audio recorder. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Start begins capturing audio from the default microphone. Errors
// wrap ErrDeviceUnavailable and leave the Recorder reusable for the
// next session.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: already recording")
	}
	r.buf = r.buf[:0] // reset buffer but keep capacity
	r.recording = true
	r.frames = make(chan []float32, frameQueueSize)
	r.drained = make(chan struct{})
	r.mu.Unlock()

	go r.drain(r.frames, r.drained)

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: r.onData,
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		r.abortStart()
		return fmt.Errorf("%w: initializing capture device: %v", ErrDeviceUnavailable, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.abortStart()
		return fmt.Errorf("%w: starting capture device: %v", ErrDeviceUnavailable, err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// abortStart rolls back Start after a device failure.
func (r *Recorder) abortStart() {
	r.mu.Lock()
	frames := r.frames
	drained := r.drained
	r.recording = false
	r.frames = nil
	r.drained = nil
	r.mu.Unlock()

	close(frames)
	<-drained
}

// Stop ends the audio capture and returns an immutable snapshot of the
// recorded samples. Returns nil if not recording. The device handle is
// released before the snapshot is taken.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	device := r.device
	frames := r.frames
	drained := r.drained
	r.device = nil
	r.frames = nil
	r.drained = nil
	r.recording = false
	r.mu.Unlock()

	// Uninit stops callbacks, so closing the queue afterwards is safe.
	if device != nil {
		device.Uninit()
	}
	close(frames)
	<-drained

	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]float32, len(r.buf))
	copy(result, r.buf)
	return result
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	if r.IsRecording() {
		r.Stop()
	}

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninitializing audio context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}

	return nil
}

// drain moves frames from the queue into the sample buffer until the
// queue is closed.
func (r *Recorder) drain(frames <-chan []float32, drained chan<- struct{}) {
	defer close(drained)
	for frame := range frames {
		r.mu.Lock()
		r.buf = append(r.buf, frame...)
		r.mu.Unlock()
	}
}

// onData is the malgo callback invoked on the device thread when audio
// data is available. pSample contains captured frames as raw bytes in
// float32 format. The copy is mandatory: malgo reuses the byte slice.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	r.mu.Lock()
	frames := r.frames
	r.mu.Unlock()
	if frames == nil {
		return
	}

	sampleCount := frameCount * r.channels
	samples := bytesToFloat32(pSample, sampleCount)

	// A blocking send is acceptable here: the queue holds seconds of
	// audio and the drain goroutine outlives every callback.
	frames <- samples
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
