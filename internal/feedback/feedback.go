// Package feedback plays the short confirmation sounds marking session
// transitions. Configured WAV assets are decoded once, pre-scaled by
// the configured volume, and cached for the process lifetime; playback
// is fire-and-forget so it never gates the dictation pipeline. Without
// a configured asset a plain system beep is used instead.
package feedback

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/gen2brain/malgo"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// Default beep tones, distinct per transition so start, stop and error
// are audibly different without shipping any assets.
const (
	startFreq = 880.0
	stopFreq  = 587.0
	errorFreq = 220.0
	beepMs    = 120
)

// asset is a decoded, pre-scaled feedback sound.
type asset struct {
	pcm        []byte // little-endian signed 16-bit frames
	sampleRate uint32
	channels   uint32
}

// Player owns the feedback asset cache. When disabled, the cache is
// never populated and every Play call is a no-op.
type Player struct {
	enabled bool
	volume  float64
	start   string
	stop    string
	errPath string
	log     zerolog.Logger

	mu     sync.Mutex
	cache  map[string]*asset
	failed map[string]bool
	ctx    *malgo.AllocatedContext
}

// NewPlayer creates a Player. Empty paths select the built-in beep for
// that transition. volume is in [0, 1] and is baked into the cached
// samples.
func NewPlayer(enabled bool, volume float64, startPath, stopPath, errorPath string, log zerolog.Logger) *Player {
	return &Player{
		enabled: enabled,
		volume:  volume,
		start:   startPath,
		stop:    stopPath,
		errPath: errorPath,
		log:     log,
		cache:   make(map[string]*asset),
		failed:  make(map[string]bool),
	}
}

// PlayStart plays the recording-started cue.
func (p *Player) PlayStart() { p.play(p.start, startFreq) }

// PlayStop plays the recording-stopped cue.
func (p *Player) PlayStop() { p.play(p.stop, stopFreq) }

// PlayError plays the failure cue.
func (p *Player) PlayError() { p.play(p.errPath, errorFreq) }

// Close releases the playback context.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		err := p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
		return err
	}
	return nil
}

// play triggers the sound for one transition and returns immediately.
func (p *Player) play(path string, fallbackFreq float64) {
	if !p.enabled {
		return
	}
	go func() {
		if path == "" {
			if err := beeep.Beep(fallbackFreq, beepMs); err != nil {
				p.log.Debug().Err(err).Msg("feedback beep failed")
			}
			return
		}
		a, err := p.load(path)
		if err != nil {
			p.warnOnce(path, err)
			return
		}
		if err := p.playPCM(a); err != nil {
			p.log.Debug().Err(err).Str("path", path).Msg("feedback playback failed")
		}
	}()
}

// warnOnce logs a missing or undecodable asset the first time only.
func (p *Player) warnOnce(path string, err error) {
	p.mu.Lock()
	seen := p.failed[path]
	p.failed[path] = true
	p.mu.Unlock()
	if !seen {
		p.log.Warn().Err(err).Str("path", path).Msg("feedback sound unavailable")
	}
}

// load returns the cached asset for path, decoding and pre-scaling it
// on first use.
func (p *Player) load(path string) (*asset, error) {
	p.mu.Lock()
	if a, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return a, nil
	}
	p.mu.Unlock()

	a, err := decodeAsset(path, p.volume)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[path] = a
	p.mu.Unlock()
	return a, nil
}

// CachedAssets reports how many assets are currently cached.
func (p *Player) CachedAssets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// decodeAsset reads a WAV file and renders it as volume-scaled 16-bit
// PCM ready for the playback device.
func decodeAsset(path string, volume float64) (*asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feedback: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("feedback: decode %s: %w", path, err)
	}
	if !dec.WasPCMAccessed() || buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("feedback: %s holds no PCM data", path)
	}

	pcm := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		scaled := int(float64(v) * volume)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(scaled)))
	}

	return &asset{
		pcm:        pcm,
		sampleRate: dec.SampleRate,
		channels:   uint32(dec.NumChans),
	}, nil
}

// playbackContext lazily initializes the shared malgo context.
func (p *Player) playbackContext() (*malgo.AllocatedContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return p.ctx, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("feedback: init playback context: %w", err)
	}
	p.ctx = ctx
	return ctx, nil
}

// playPCM streams a cached asset through a one-shot playback device
// and blocks until it finishes. Callers run it on their own goroutine.
func (p *Player) playPCM(a *asset) error {
	ctx, err := p.playbackContext()
	if err != nil {
		return err
	}

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceCfg.Playback.Format = malgo.FormatS16
	deviceCfg.Playback.Channels = a.channels
	deviceCfg.SampleRate = a.sampleRate

	done := make(chan struct{})
	var once sync.Once
	offset := 0

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := copy(out, a.pcm[offset:])
			offset += n
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if offset >= len(a.pcm) {
				once.Do(func() { close(done) })
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceCfg, callbacks)
	if err != nil {
		return fmt.Errorf("feedback: init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("feedback: start playback device: %w", err)
	}

	<-done
	return nil
}
