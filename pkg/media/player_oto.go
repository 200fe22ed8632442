package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultPlaybackRate is the PCM sample rate of agent audio on the
// downlink.
const DefaultPlaybackRate = 24000

// OtoPlayer is a Player backed by an oto output context. The context is
// opened lazily on first Play and shared for the process lifetime (oto
// allows a single context).
type OtoPlayer struct {
	// SampleRate defaults to DefaultPlaybackRate.
	SampleRate int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	initOnce sync.Once
	initErr  error
	otoCtx   *oto.Context

	mu      sync.Mutex
	playing bool
	closed  bool
}

func (p *OtoPlayer) init() error {
	p.initOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   p.sampleRate(),
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			p.initErr = &PlaybackError{Err: fmt.Errorf("init output device: %w", err)}
			return
		}
		<-ready
		p.otoCtx = ctx
	})
	return p.initErr
}

// Play implements Player. It blocks until the audio has audibly drained
// or ctx is canceled.
func (p *OtoPlayer) Play(ctx context.Context, audio []byte, format string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return &PlaybackError{Err: fmt.Errorf("player closed")}
	}
	if p.playing {
		p.mu.Unlock()
		return ErrBusy
	}
	p.playing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	if len(audio) == 0 {
		return nil
	}
	if err := p.init(); err != nil {
		return err
	}

	pcm, err := DecodePCM(audio, format)
	if err != nil {
		return err
	}

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			_ = player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	if err := player.Close(); err != nil {
		return &PlaybackError{Err: err}
	}
	p.logger().Debug("media: playback complete", "bytes", len(pcm))
	return nil
}

// Close implements Player. The shared oto context stays open; Close only
// rejects further Play calls.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *OtoPlayer) sampleRate() int {
	if p.SampleRate > 0 {
		return p.SampleRate
	}
	return DefaultPlaybackRate
}

func (p *OtoPlayer) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

var _ Player = (*OtoPlayer)(nil)
