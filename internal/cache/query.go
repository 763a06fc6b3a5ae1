package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradedesk_go/internal/infra"
)

// State is the lifecycle state of one query entry.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Options control freshness and lifecycle per query.
type Options struct {
	// StaleTime is how long a successful result counts as fresh.
	StaleTime time.Duration
	// GCTime is how long an entry without subscribers survives before the
	// background sweep evicts it.
	GCTime time.Duration
	// RefetchOnSubscribe triggers a background refetch when a subscriber
	// attaches to a stale entry. Disabled for quasi-static resources.
	RefetchOnSubscribe bool
	// Retries is the number of additional fetch attempts after a failure.
	// Zero for everything that must not be silently replayed, which is the
	// default and covers the current-user read and all mutations.
	Retries int
}

type fetchFunc func(ctx context.Context) (interface{}, error)

// entry is the per-key cache record.
type entry struct {
	key  Key
	opts Options

	state     State
	data      interface{}
	hasData   bool
	err       error
	fetchedAt time.Time
	stale     bool

	// fetch is the last registered fetcher, used for invalidation-triggered
	// refetches while the entry has active subscribers.
	fetch    fetchFunc
	inflight chan struct{}

	subscribers map[int]chan struct{}
	nextSubID   int
	lastActive  time.Time
}

// staleLocked reports whether the entry needs a fetch on next access.
func (e *entry) staleLocked(now time.Time) bool {
	switch e.state {
	case StateSuccess:
		return e.stale || now.Sub(e.fetchedAt) >= e.opts.StaleTime
	case StateError, StateIdle:
		return true
	default:
		return false
	}
}

// Cache is the in-memory query cache: one entry per key, at most one
// in-flight fetch per key, staleness windows, declarative invalidation and
// a background sweep for inactive entries. Process-wide singleton in
// practice; all methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	defaults      Options
	sweepInterval time.Duration

	metrics *infra.Metrics
	logger  *slog.Logger

	ctx    context.Context // background context for invalidation refetches
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a query cache with the given default options.
func New(defaults Options, sweepInterval time.Duration) *Cache {
	if defaults.StaleTime <= 0 {
		defaults.StaleTime = 30 * time.Second
	}
	if defaults.GCTime <= 0 {
		defaults.GCTime = 5 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Cache{
		entries:       make(map[string]*entry),
		defaults:      defaults,
		sweepInterval: sweepInterval,
		metrics:       infra.GlobalMetrics,
		logger:        slog.Default().With("module", "query_cache"),
	}
}

// Start launches the background sweep goroutine. Invalidation-triggered
// refetches also use the context passed here.
func (c *Cache) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.ctx = ctx

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Cache sweep panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Cache sweep stopped")
				return
			case <-ticker.C:
				c.sweepOnce(time.Now())
			}
		}
	}()
}

// Stop halts the sweep goroutine.
func (c *Cache) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
	}
}

// sweepOnce evicts entries that have no subscribers and have been inactive
// longer than their GC window.
func (c *Cache) sweepOnce(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if len(e.subscribers) > 0 || e.state == StateFetching {
			continue
		}
		if now.Sub(e.lastActive) > e.opts.GCTime {
			delete(c.entries, id)
		}
	}
}

// resolve fills zero Options fields from the cache defaults.
func (c *Cache) resolve(opts *Options) Options {
	if opts == nil {
		return c.defaults
	}
	o := *opts
	if o.StaleTime <= 0 {
		o.StaleTime = c.defaults.StaleTime
	}
	if o.GCTime <= 0 {
		o.GCTime = c.defaults.GCTime
	}
	return o
}

// ensureEntry returns the entry for key, creating it if absent.
// Caller must hold c.mu.
func (c *Cache) ensureEntry(key Key, opts Options) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{
			key:         key,
			opts:        opts,
			state:       StateIdle,
			subscribers: make(map[int]chan struct{}),
			lastActive:  time.Now(),
		}
		c.entries[id] = e
	}
	return e
}

// Fetch resolves a typed query through the cache: a fresh entry answers
// from memory, an in-flight fetch is joined, anything else fetches.
func Fetch[T any](ctx context.Context, c *Cache, key Key, opts *Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.get(ctx, key, opts, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %q holds %T", key.String(), v)
	}
	return t, nil
}

func (c *Cache) get(ctx context.Context, key Key, opts *Options, fetch fetchFunc) (interface{}, error) {
	o := c.resolve(opts)
	now := time.Now()

	c.mu.Lock()
	e := c.ensureEntry(key, o)
	e.opts = o
	e.fetch = fetch
	e.lastActive = now

	// Fresh hit
	if e.state == StateSuccess && !e.staleLocked(now) {
		data := e.data
		c.mu.Unlock()
		c.metrics.RecordCacheHit()
		return data, nil
	}

	// Join the in-flight fetch for this key
	if e.state == StateFetching {
		ch := e.inflight
		c.mu.Unlock()
		c.metrics.RecordDedupJoin()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
		c.mu.Lock()
		data, err := e.data, e.err
		c.mu.Unlock()
		return data, err
	}

	c.metrics.RecordCacheMiss()
	return c.runFetchLocked(ctx, e)
}

// runFetchLocked executes the entry's fetcher. Caller must hold c.mu;
// the lock is released for the duration of the network call.
func (c *Cache) runFetchLocked(ctx context.Context, e *entry) (interface{}, error) {
	e.state = StateFetching
	e.inflight = make(chan struct{})
	c.notifyLocked(e)

	fetch := e.fetch
	retries := e.opts.Retries
	c.mu.Unlock()

	// A panicking fetcher must still close the inflight channel or every
	// joiner wedges and the entry stays fetching forever.
	safeFetch := func(ctx context.Context) (data interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Fetch panic recovered",
					slog.String("key", e.key.String()),
					slog.Any("panic", r),
				)
				err = fmt.Errorf("fetch panic: %v", r)
			}
		}()
		return fetch(ctx)
	}

	var data interface{}
	var err error
	for attempt := 0; ; attempt++ {
		data, err = safeFetch(ctx)
		if err == nil || attempt >= retries {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(infra.CalculateBackoff(attempt)):
			continue
		}
		break
	}

	c.mu.Lock()
	if err != nil {
		e.state = StateError
		e.err = err
	} else {
		e.state = StateSuccess
		e.data = data
		e.hasData = true
		e.err = nil
		e.fetchedAt = time.Now()
		e.stale = false
	}
	close(e.inflight)
	e.inflight = nil
	c.notifyLocked(e)
	c.mu.Unlock()

	return data, err
}

// refetch runs the registered fetcher for key in the background context.
func (c *Cache) refetch(key Key) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok || e.fetch == nil || e.state == StateFetching {
		c.mu.Unlock()
		return
	}
	c.metrics.RecordRefetch()
	if _, err := c.runFetchLocked(ctx, e); err != nil {
		c.logger.Warn("Background refetch failed",
			slog.String("key", key.String()),
			slog.Any("error", err),
		)
	}
}

// Invalidate marks each key stale. Keys with active subscribers are
// refetched in the background; the refetches are independent operations
// issued sequentially, not an atomic group.
func (c *Cache) Invalidate(keys ...Key) {
	for _, key := range keys {
		c.invalidateOne(key)
	}
}

func (c *Cache) invalidateOne(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	var refetch bool
	if ok {
		e.stale = true
		refetch = len(e.subscribers) > 0 && e.fetch != nil && e.state != StateFetching
		c.notifyLocked(e)
	}
	c.mu.Unlock()

	if refetch {
		go c.refetch(key)
	}
}

// InvalidatePrefix invalidates every key sharing the prefix, covering
// parameterized variants like {"notifications", id}.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	var matched []Key
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			matched = append(matched, e.key)
		}
	}
	c.mu.Unlock()

	for _, key := range matched {
		c.invalidateOne(key)
	}
}

// Remove drops entries entirely (logout, session expiry).
func (c *Cache) Remove(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key.String()]; ok {
			c.notifyLocked(e)
			delete(c.entries, key.String())
		}
	}
}

// notifyLocked signals every subscriber without blocking.
func (c *Cache) notifyLocked(e *entry) {
	for _, ch := range e.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscription is an active observer of one query key. It holds the entry
// alive against the GC sweep and makes it eligible for invalidation-
// triggered refetches.
type Subscription struct {
	c      *Cache
	key    Key
	id     int
	signal chan struct{}
	once   sync.Once
}

// Snapshot is a point-in-time view of a query entry.
type Snapshot struct {
	State        State
	Data         interface{}
	Err          error
	Stale        bool
	FetchedAt    time.Time
	IsLoading    bool // fetching with no previous data
	IsRefetching bool // fetching with previous data still shown
}

// Subscribe attaches an observer to key. If the entry is stale and its
// options allow it, a background refetch is kicked off immediately.
func (c *Cache) Subscribe(key Key) *Subscription {
	now := time.Now()

	c.mu.Lock()
	e := c.ensureEntry(key, c.resolve(nil))
	id := e.nextSubID
	e.nextSubID++
	ch := make(chan struct{}, 1)
	e.subscribers[id] = ch
	e.lastActive = now

	needRefetch := e.opts.RefetchOnSubscribe &&
		e.fetch != nil &&
		e.state != StateFetching &&
		e.staleLocked(now)
	c.mu.Unlock()

	c.metrics.IncrementSubscriptions()

	if needRefetch {
		go c.refetch(key)
	}

	return &Subscription{c: c, key: key, id: id, signal: ch}
}

// Updates signals whenever the underlying entry changes state. The channel
// never closes; drop-and-coalesce semantics.
func (s *Subscription) Updates() <-chan struct{} {
	return s.signal
}

// Snapshot returns the current view of the subscribed entry.
func (s *Subscription) Snapshot() Snapshot {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	e, ok := s.c.entries[s.key.String()]
	if !ok {
		return Snapshot{State: StateIdle}
	}
	return Snapshot{
		State:        e.state,
		Data:         e.data,
		Err:          e.err,
		Stale:        e.staleLocked(time.Now()),
		FetchedAt:    e.fetchedAt,
		IsLoading:    e.state == StateFetching && !e.hasData,
		IsRefetching: e.state == StateFetching && e.hasData,
	}
}

// Unsubscribe detaches the observer. In-flight fetches are not aborted;
// their results simply land in the cache with no one watching.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.c.mu.Lock()
		if e, ok := s.c.entries[s.key.String()]; ok {
			delete(e.subscribers, s.id)
			e.lastActive = time.Now()
		}
		s.c.mu.Unlock()
		s.c.metrics.DecrementSubscriptions()
	})
}

// PeekInfo is introspection data for one entry.
type PeekInfo struct {
	State       State
	Stale       bool
	Subscribers int
	HasData     bool
	FetchedAt   time.Time
}

// Peek reports the current state of a key without touching its lifecycle.
func (c *Cache) Peek(key Key) (PeekInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return PeekInfo{}, false
	}
	return PeekInfo{
		State:       e.state,
		Stale:       e.staleLocked(time.Now()),
		Subscribers: len(e.subscribers),
		HasData:     e.hasData,
		FetchedAt:   e.fetchedAt,
	}, true
}

// Len returns the number of live entries (for diagnostics and tests).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
