package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/peragwin/recorder/audio/scratch"
)

// FilePlayer plays a scratch recording on the default output device.
type FilePlayer struct {
	blockSize int

	// openSink is NewSink; tests swap it for a fake device.
	openSink func(context.Context, *Config, <-chan []float32) (<-chan error, error)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewFilePlayer returns a player writing blockSize frames per buffer.
func NewFilePlayer(blockSize int) *FilePlayer {
	return &FilePlayer{blockSize: blockSize, openSink: NewSink}
}

// Start loads the recording at path and starts playing it. onComplete is called from
// the playback goroutine once the recording has played to the end. It is not called when
// playback is stopped early. Any playback already in progress is stopped first.
func (p *FilePlayer) Start(path string, onComplete func()) error {
	rec, err := scratch.Load(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}

	cfg := &Config{
		BlockSize:  p.blockSize,
		Channels:   rec.Channels,
		SampleRate: float64(rec.SampleRate),
	}
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []float32)
	errc, err := p.openSink(ctx, cfg, frames)
	if err != nil {
		cancel()
		p.cancel = nil
		return fmt.Errorf("open playback device: %w", err)
	}
	p.cancel = cancel

	go func() {
		defer close(frames)
		step := cfg.samplesPerBlock()
		for i := 0; i < len(rec.Samples); i += step {
			end := i + step
			if end > len(rec.Samples) {
				end = len(rec.Samples)
			}
			select {
			case frames <- rec.Samples[i:end]:
			case <-ctx.Done():
				return
			}
		}
	}()

	glog.Infof("player: playing %s (%v)", path, rec.Duration())

	go func() {
		failed := false
		for err := range errc {
			glog.Errorf("player: %v", err)
			failed = true
		}
		if ctx.Err() != nil {
			return
		}
		if !failed {
			glog.V(2).Infof("player: finished %s", path)
		}
		cancel()
		if onComplete != nil {
			onComplete()
		}
	}()

	return nil
}

// Stop ends playback early. It is safe to call when nothing is playing.
func (p *FilePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	return nil
}
