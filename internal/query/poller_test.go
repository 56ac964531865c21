package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller("test", 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	p.Start(context.Background())
	p.Start(context.Background())
	waitFor(t, func() bool { return ticks.Load() >= 3 })
	p.Stop()

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Errorf("ticks went from %d to %d after Stop", after, got)
	}
	p.Stop()
}

func TestPoller_PauseResume(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller("test", 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	p.Pause()
	p.Start(context.Background())
	defer p.Stop()

	time.Sleep(30 * time.Millisecond)
	if got := ticks.Load(); got != 0 {
		t.Errorf("ticks = %d while paused", got)
	}
	if !p.Paused() {
		t.Error("Paused() = false")
	}

	p.Resume()
	waitFor(t, func() bool { return ticks.Load() > 0 })
}

func TestPoller_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	p := NewPoller("test", 5*time.Millisecond, func(context.Context) error {
		ticks.Add(1)
		return nil
	})
	p.Start(ctx)
	waitFor(t, func() bool { return ticks.Load() > 0 })
	cancel()

	time.Sleep(10 * time.Millisecond)
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != after {
		t.Errorf("ticks kept going after context cancel: %d -> %d", after, got)
	}
	p.Stop()
}

func TestPoller_RefreshesObservedQuery(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("admin-overview")
	var n atomic.Int32
	fetch := func(context.Context) (int32, error) { return n.Add(1), nil }

	Fetch(context.Background(), c, key, fetch)
	unsub := c.Subscribe(key, func(Key, Snapshot) {})
	defer unsub()

	p := NewPoller("overview", 5*time.Millisecond, func(ctx context.Context) error {
		return c.Invalidate(ctx, "admin-overview")
	})
	p.Start(context.Background())
	defer p.Stop()

	waitFor(t, func() bool {
		v, ok := Cached[int32](c, key)
		return ok && v >= 3
	})
}
