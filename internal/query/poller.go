package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller runs fn on a fixed interval until stopped
type Poller struct {
	name     string
	interval time.Duration
	fn       func(context.Context) error

	paused atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller
func NewPoller(name string, interval time.Duration, fn func(context.Context) error) *Poller {
	return &Poller{name: name, interval: interval, fn: fn}
}

// Start begins ticking; it is a no-op when already running. The poller
// stops on its own when ctx ends.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)

	log.Debug().Str("poller", p.name).Dur("interval", p.interval).Msg("Poller started")
}

// Stop cancels the loop and waits for an in-flight tick to return
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Debug().Str("poller", p.name).Msg("Poller stopped")
}

// Pause skips ticks until Resume
func (p *Poller) Pause() { p.paused.Store(true) }

// Resume re-enables ticks
func (p *Poller) Resume() { p.paused.Store(false) }

// Paused reports whether ticks are skipped
func (p *Poller) Paused() bool { return p.paused.Load() }

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.paused.Load() {
				continue
			}
			if err := p.fn(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("poller", p.name).Msg("Poll failed")
			}
		}
	}
}
