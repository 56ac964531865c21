package query

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shyness-client/internal/services"
)

var testGraph = map[string][]string{
	"video.upload":   {"my-videos", "dashboard"},
	"profile.update": {"rewards", "stats"},
}

func TestFetch_LastToResolveWins(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("my-videos", 1)

	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			<-releaseFirst
			return "first", nil
		})
	}()
	go func() {
		defer wg.Done()
		Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			<-releaseSecond
			return "second", nil
		})
	}()

	// the later-issued request answers first
	close(releaseSecond)
	waitFor(t, func() bool { return c.Get(key).Data == "second" })
	close(releaseFirst)
	wg.Wait()

	snap := c.Get(key)
	if snap.Data != "first" {
		t.Errorf("Data = %v, want the value that resolved last", snap.Data)
	}
	if snap.Fetching {
		t.Error("Fetching = true after both requests resolved")
	}
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	c := NewClient(Options{Retry: 3}, nil)

	var calls atomic.Int32
	v, err := Fetch(context.Background(), c, NewKey("stats"), func(context.Context) (int, error) {
		if calls.Add(1) < 3 {
			return 0, services.ErrNetwork
		}
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("Fetch() = %v, %v", v, err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch_NoRetryOnClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", &services.APIError{StatusCode: http.StatusUnauthorized}},
		{"not found", &services.APIError{StatusCode: http.StatusNotFound}},
		{"bad request", &services.APIError{StatusCode: http.StatusBadRequest}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Options{Retry: 3}, nil)
			var calls atomic.Int32
			_, err := Fetch(context.Background(), c, NewKey("x"), func(context.Context) (int, error) {
				calls.Add(1)
				return 0, tt.err
			})
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v", err)
			}
			if calls.Load() != 1 {
				t.Errorf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestFetch_ErrorKeepsData(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("dashboard")

	Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "ok", nil })
	Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "", services.ErrNetwork })

	snap := c.Get(key)
	if snap.Data != "ok" || !errors.Is(snap.Err, services.ErrNetwork) {
		t.Errorf("Snapshot = %+v", snap)
	}
	if rs := Render[string](snap, nil); rs.View != ViewPopulated || rs.Err == nil {
		t.Errorf("Render() = %+v, want populated with error", rs)
	}
}

func TestMutate_InvalidatesDeclaredResources(t *testing.T) {
	c := NewClient(Options{}, testGraph)
	ctx := context.Background()

	var videoFetches, rewardFetches atomic.Int32
	videos := NewKey("my-videos", 1, 10)
	rewards := NewKey("rewards")
	dashboard := NewKey("dashboard")

	Fetch(ctx, c, videos, func(context.Context) (int, error) { return int(videoFetches.Add(1)), nil })
	Fetch(ctx, c, rewards, func(context.Context) (int, error) { return int(rewardFetches.Add(1)), nil })
	Fetch(ctx, c, dashboard, func(context.Context) (string, error) { return "d", nil })

	unsub := c.Subscribe(videos, func(Key, Snapshot) {})
	defer unsub()
	c.Subscribe(rewards, func(Key, Snapshot) {})

	if _, err := Mutate(ctx, c, "video.upload", func(context.Context) (string, error) { return "v1", nil }); err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	if got := videoFetches.Load(); got != 2 {
		t.Errorf("my-videos fetched %d times, want a refetch", got)
	}
	if got := rewardFetches.Load(); got != 1 {
		t.Errorf("rewards fetched %d times, it was not invalidated", got)
	}
	// unobserved entries are only marked stale
	if !c.Get(dashboard).Stale {
		t.Error("dashboard not marked stale")
	}
	if _, ok := Cached[string](c, dashboard); ok {
		t.Error("Cached() returned a stale value")
	}
	if v, ok := Cached[int](c, videos); !ok || v != 2 {
		t.Errorf("Cached(my-videos) = %v, %v", v, ok)
	}
}

func TestMutate_FailureDoesNotInvalidate(t *testing.T) {
	c := NewClient(Options{}, testGraph)
	ctx := context.Background()
	key := NewKey("my-videos")
	Fetch(ctx, c, key, func(context.Context) (int, error) { return 1, nil })

	boom := errors.New("boom")
	if _, err := Mutate(ctx, c, "video.upload", func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("Mutate() error = %v", err)
	}
	if c.Get(key).Stale {
		t.Error("failed mutation invalidated my-videos")
	}

	if _, err := Mutate(ctx, c, "nope", func(context.Context) (int, error) { return 0, nil }); !errors.Is(err, ErrUnknownMutation) {
		t.Errorf("Mutate(unknown) error = %v", err)
	}
}

func TestSubscribe_ReceivesUpdates(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("topics")

	var mu sync.Mutex
	var views []View
	unsub := c.Subscribe(key, func(_ Key, s Snapshot) {
		mu.Lock()
		views = append(views, Render[[]string](s, func(v []string) bool { return len(v) == 0 }).View)
		mu.Unlock()
	})

	Fetch(context.Background(), c, key, func(context.Context) ([]string, error) { return nil, nil })
	unsub()
	Fetch(context.Background(), c, key, func(context.Context) ([]string, error) { return []string{"a"}, nil })

	mu.Lock()
	defer mu.Unlock()
	want := []View{ViewLoading, ViewEmpty}
	if len(views) != len(want) {
		t.Fatalf("views = %v, want %v", views, want)
	}
	for i := range want {
		if views[i] != want[i] {
			t.Errorf("views[%d] = %s, want %s", i, views[i], want[i])
		}
	}
}

func TestInvalidate_ObserverSeesOneFetchingSnapshot(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("admin-overview")

	var calls atomic.Int32
	fn := func(context.Context) (int32, error) { return calls.Add(1), nil }
	Fetch(context.Background(), c, key, fn)

	var mu sync.Mutex
	var seen []Snapshot
	unsub := c.Subscribe(key, func(_ Key, s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer unsub()

	if err := c.Invalidate(context.Background(), "admin-overview"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("observer got %d snapshots, want 2 (fetching, then resolved)", len(seen))
	}
	if !seen[0].Fetching || !seen[0].Stale {
		t.Errorf("first snapshot = %+v, want stale and fetching", seen[0])
	}
	if seen[1].Fetching || seen[1].Data != int32(2) {
		t.Errorf("second snapshot = %+v, want the refetched value", seen[1])
	}
}

func TestInvalidate_UnobservedEntryPublishesStale(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("dashboard")
	Fetch(context.Background(), c, key, func(context.Context) (string, error) { return "v1", nil })

	if err := c.Invalidate(context.Background(), "dashboard"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	snap := c.Get(key)
	if !snap.Stale || snap.Fetching {
		t.Errorf("snapshot = %+v, want stale and idle", snap)
	}
	if _, ok := Cached[string](c, key); ok {
		t.Error("stale entry served from cache")
	}
}

func TestClear_DropsInFlightResult(t *testing.T) {
	c := NewClient(Options{}, nil)
	key := NewKey("payments")

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		Fetch(context.Background(), c, key, func(context.Context) (string, error) {
			<-release
			return "old session", nil
		})
	}()
	waitFor(t, func() bool { return c.Get(key).Fetching })

	c.Clear()
	close(release)
	<-done

	if snap := c.Get(key); snap.HasData() || snap.Fetching {
		t.Fatalf("snapshot after Clear = %+v, want empty", snap)
	}

	// a fresh fetch must still report itself as in flight
	block := make(chan struct{})
	go Fetch(context.Background(), c, key, func(context.Context) (string, error) {
		<-block
		return "new session", nil
	})
	waitFor(t, func() bool { return c.Get(key).Fetching })
	close(block)
	waitFor(t, func() bool { return c.Get(key).Data == "new session" })
	if c.Get(key).Fetching {
		t.Error("Fetching = true after the fetch resolved")
	}
}

func TestRender(t *testing.T) {
	isEmpty := func(v []int) bool { return len(v) == 0 }
	tests := []struct {
		name string
		snap Snapshot
		want RenderState
	}{
		{"idle", Snapshot{}, RenderState{View: ViewLoading}},
		{"first load", Snapshot{Fetching: true}, RenderState{View: ViewLoading}},
		{"failed", Snapshot{Err: services.ErrNetwork}, RenderState{View: ViewError, Err: services.ErrNetwork}},
		{"empty", Snapshot{Data: []int{}}, RenderState{View: ViewEmpty}},
		{"populated", Snapshot{Data: []int{1}}, RenderState{View: ViewPopulated}},
		{"refreshing", Snapshot{Data: []int{1}, Fetching: true}, RenderState{View: ViewPopulated, Refreshing: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.snap, isEmpty); got != tt.want {
				t.Errorf("Render() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewKey(t *testing.T) {
	if NewKey("a", 1, "x") != NewKey("a", 1, "x") {
		t.Error("equal params produced different keys")
	}
	if NewKey("a", 1) == NewKey("a", 2) {
		t.Error("different params produced equal keys")
	}
	if got := NewKey("a").String(); got != "a" {
		t.Errorf("String() = %q", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
