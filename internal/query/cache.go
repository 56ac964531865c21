package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"shyness-client/internal/services"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownMutation is returned by Mutate for a name with no declared
// invalidations
var ErrUnknownMutation = errors.New("unknown mutation")

// Key identifies one cached query: a resource name plus its parameters
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key from a resource and any JSON-encodable parameters
func NewKey(resource string, params ...any) Key {
	if len(params) == 0 {
		return Key{Resource: resource}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return Key{Resource: resource, Params: fmt.Sprint(params...)}
	}
	return Key{Resource: resource, Params: string(data)}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + k.Params
}

// Snapshot is the observable state of one entry
type Snapshot struct {
	Data      any
	Err       error
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// HasData reports whether a successful result was ever stored
func (s Snapshot) HasData() bool {
	return s.Data != nil
}

type entry struct {
	data      any
	err       error
	inFlight  int
	stale     bool
	updatedAt time.Time
	refetch   func(context.Context) (any, error)
}

// Options tunes fetching
type Options struct {
	// Retry is how many times a failed fetch is repeated
	Retry      int
	RetryDelay time.Duration
}

// Client is the process-wide query cache
type Client struct {
	mu            sync.Mutex
	entries       map[Key]*entry
	gen           uint64
	opts          Options
	hub           *hub
	invalidations map[string][]string
}

// NewClient creates a cache; invalidations maps a mutation name to the
// resources it makes stale
func NewClient(opts Options, invalidations map[string][]string) *Client {
	return &Client{
		entries:       make(map[Key]*entry),
		opts:          opts,
		hub:           newHub(),
		invalidations: invalidations,
	}
}

// Fetch runs fn for key, retrying transient failures, and stores the
// outcome. Concurrent fetches for the same key all write their result in
// the order they resolve, so the last to resolve is what remains.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	refetch := func(ctx context.Context) (any, error) {
		return fn(ctx)
	}

	gen := c.begin(key, refetch)
	v, err := withRetry(ctx, c.opts, key, fn)
	if err != nil {
		c.resolve(key, gen, nil, err)
		return v, err
	}
	c.resolve(key, gen, v, nil)
	return v, nil
}

// Load returns the cached value when it is fresh and fetches otherwise
func Load[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := Cached[T](c, key); ok {
		return v, nil
	}
	return Fetch(ctx, c, key, fn)
}

// Cached returns the stored value for key if it is present and not stale
func Cached[T any](c *Client, key Key) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.data == nil || e.stale {
		return zero, false
	}
	v, ok := e.data.(T)
	return v, ok
}

// Get returns the snapshot of key
func (c *Client) Get(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(key)
}

// Subscribe observes key until the returned func is called. Observed
// entries are refetched when invalidated.
func (c *Client) Subscribe(key Key, fn Listener) func() {
	id := c.hub.register(key, fn)
	var once sync.Once
	return func() {
		once.Do(func() { c.hub.unregister(key, id) })
	}
}

// Invalidate marks every entry of the given resources stale and refetches
// the observed ones concurrently. Observers of a refetched entry see one
// Fetching snapshot and then the result.
func (c *Client) Invalidate(ctx context.Context, resources ...string) error {
	type job struct {
		key Key
		fn  func(context.Context) (any, error)
	}

	var jobs []job
	var idle []Key

	c.mu.Lock()
	for key, e := range c.entries {
		if !slices.Contains(resources, key.Resource) {
			continue
		}
		e.stale = true
		if e.refetch != nil && c.hub.observed(key) {
			jobs = append(jobs, job{key: key, fn: e.refetch})
		} else {
			idle = append(idle, key)
		}
	}
	c.mu.Unlock()

	// refetched keys publish from Fetch itself
	for _, key := range idle {
		c.hub.publish(key, c.Get(key))
	}

	log.Debug().
		Strs("resources", resources).
		Int("marked", len(idle)+len(jobs)).
		Int("refetching", len(jobs)).
		Msg("Queries invalidated")

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			_, err := Fetch(gctx, c, j.key, j.fn)
			return err
		})
	}
	return g.Wait()
}

// Mutate runs a named write and, on success, invalidates the resources
// declared for it. The write's error is returned unchanged.
func Mutate[T any](ctx context.Context, c *Client, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	resources, ok := c.invalidations[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownMutation, name)
	}

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}

	if err := c.Invalidate(ctx, resources...); err != nil {
		log.Warn().Err(err).Str("mutation", name).Msg("Refetch after mutation failed")
	}
	return v, nil
}

// Clear drops every entry, used when a session ends. Fetches still in
// flight resolve into nothing.
func (c *Client) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.gen++
	c.mu.Unlock()
}

func (c *Client) begin(key Key, refetch func(context.Context) (any, error)) uint64 {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.inFlight++
	e.refetch = refetch
	gen := c.gen
	snap := c.snapshotLocked(key)
	c.mu.Unlock()

	c.hub.publish(key, snap)
	return gen
}

func (c *Client) resolve(key Key, gen uint64, data any, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		log.Debug().Str("query", key.String()).Msg("Dropping result of a cleared query")
		return
	}
	e := c.entryLocked(key)
	e.inFlight--
	if err != nil {
		// keep the last good data so views can show it next to the error
		e.err = err
	} else {
		e.data = data
		e.err = nil
		e.stale = false
	}
	e.updatedAt = time.Now()
	snap := c.snapshotLocked(key)
	c.mu.Unlock()

	c.hub.publish(key, snap)
}

func (c *Client) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Client) snapshotLocked(key Key) Snapshot {
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Data:      e.data,
		Err:       e.err,
		Fetching:  e.inFlight > 0,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}
}

func withRetry[T any](ctx context.Context, opts Options, key Key, fn func(context.Context) (T, error)) (T, error) {
	var v T
	attempt := 0
	op := func() error {
		attempt++
		var err error
		v, err = fn(ctx)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.Debug().
			Err(err).
			Str("query", key.String()).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("Query failed, retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.RetryDelay), uint64(max(opts.Retry, 0))), ctx)
	err := backoff.RetryNotify(op, b, notify)
	return v, err
}

// retryable excludes errors another attempt cannot fix
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch services.Classify(err) {
	case services.KindNetwork, services.KindServer:
		return true
	}
	return false
}
