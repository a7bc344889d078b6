package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/intakehq/intake/internal/cachemanager"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/pubsub"
	"github.com/intakehq/intake/internal/tracing"
)

// FetchFunc performs one read. The context it receives is never cancelled by
// the client, even if the caller that started the fetch gives up.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is what a caller observes for one Fetch.
type Result[T any] struct {
	Data      T
	Err       error
	Status    Status
	IsLoading bool

	// Skipped is set when the call was disabled and nothing was fetched.
	Skipped bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithStore swaps the entry store.
func WithStore(store cachemanager.CacheManager[string, *Entry]) ClientOption {
	return func(c *Client) { c.store = store }
}

// WithClock overrides the clock used for LastFetchedAt.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// Client owns the entry store. The zero value is not usable; use NewClient.
type Client struct {
	// mu serialises every read-modify-write of entries and stamps.
	mu     sync.Mutex
	store  cachemanager.CacheManager[string, *Entry]
	seqs   map[string]uint64
	group  singleflight.Group
	broker *pubsub.Broker[Entry]
	now    func() time.Time
}

// NewClient returns a client with an empty in-memory store.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		store:  cachemanager.NewInMemoryCacheManager[string, *Entry]("query-entries"),
		seqs:   make(map[string]uint64),
		broker: pubsub.NewBroker[Entry](),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch resolves key from the cache or through fn.
//
// A successful entry is returned as-is unless WithRefetch is given.
// Otherwise the entry moves to loading and fn runs once; concurrent callers
// for the same key join that run instead of starting their own. When ctx
// ends first, Fetch returns ctx.Err() straight away and skips this caller's
// callbacks. The shared fetch keeps running and still updates the cache.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn FetchFunc[T], opts ...Option) Result[T] {
	o := newOptions(opts)

	if !o.enabled {
		log.Debug(log.CatQuery, "fetch skipped", "key", key)
		return Result[T]{Status: StatusIdle, Skipped: true}
	}
	if o.retry {
		log.Warn(log.CatQuery, "retry requested but disabled", "key", key)
	}

	if !o.refetch {
		if entry, ok := c.Entry(key); ok && entry.Status == StatusSuccess {
			log.Debug(log.CatQuery, "cache hit", "key", key)
			return resultFrom[T](entry)
		}
	}

	ks := key.String()
	flight := c.group.DoChan(ks, func() (any, error) {
		// A flight that finished between the hit check above and DoChan
		// has already filled the entry.
		if !o.refetch {
			if entry, ok := c.Entry(key); ok && entry.Status == StatusSuccess {
				return entry.Data, nil
			}
		}
		return c.run(ctx, key, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})

	select {
	case <-ctx.Done():
		log.Debug(log.CatQuery, "caller gone before fetch settled", "key", key)
		return Result[T]{Status: StatusLoading, IsLoading: true, Err: ctx.Err()}
	case res := <-flight:
		if res.Err != nil {
			if o.onError != nil {
				o.onError(res.Err)
			}
			out := Result[T]{Status: StatusError, Err: &FetchError{Key: key, Err: res.Err}}
			if entry, ok := c.Entry(key); ok && entry.HasData() {
				if data, ok := entry.Data.(T); ok {
					out.Data = data
				}
			}
			return out
		}
		return dataResult[T](key, res.Val)
	}
}

// Peek reports the cached state of key without fetching.
func Peek[T any](c *Client, key Key) Result[T] {
	entry, ok := c.Entry(key)
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	return resultFrom[T](entry)
}

func resultFrom[T any](entry Entry) Result[T] {
	out := Result[T]{
		Status:    entry.Status,
		IsLoading: entry.Status == StatusLoading,
	}
	if entry.Err != nil {
		out.Err = &FetchError{Key: entry.Key, Err: entry.Err}
	}
	if !entry.HasData() {
		return out
	}
	data, ok := entry.Data.(T)
	if !ok {
		out.Status = StatusError
		out.Err = mismatch[T](entry.Key, entry.Data)
		return out
	}
	out.Data = data
	return out
}

func dataResult[T any](key Key, val any) Result[T] {
	if val == nil {
		var zero T
		return Result[T]{Status: StatusSuccess, Data: zero}
	}
	data, ok := val.(T)
	if !ok {
		return Result[T]{Status: StatusError, Err: mismatch[T](key, val)}
	}
	return Result[T]{Status: StatusSuccess, Data: data}
}

func mismatch[T any](key Key, got any) error {
	var want T
	return &TypeMismatchError{Key: key, Want: fmt.Sprintf("%T", want), Got: fmt.Sprintf("%T", got)}
}

// run is the body of one shared fetch.
func (c *Client) run(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	seq := c.begin(key)

	ctx, span := tracing.Start(context.WithoutCancel(ctx), tracing.SpanQueryFetch,
		attribute.String(tracing.AttrCacheKey, key.String()),
		attribute.Int64(tracing.AttrCacheSeq, int64(seq)),
	)
	data, err := fetch(ctx)
	applied := c.settle(key, seq, data, err)
	span.SetAttributes(attribute.Bool(tracing.AttrStaleDiscard, !applied))
	tracing.End(span, err)

	return data, err
}

// begin stamps a new fetch and moves the entry to loading, keeping its data.
func (c *Client) begin(key Key) uint64 {
	ks := key.String()

	c.mu.Lock()
	c.seqs[ks]++
	seq := c.seqs[ks]

	next := Entry{Key: key, Status: StatusLoading}
	if prev, ok := c.store.Get(context.Background(), ks); ok {
		next.Data = prev.Data
		next.LastFetchedAt = prev.LastFetchedAt
		next.Seq = prev.Seq
	}
	c.store.Set(context.Background(), ks, &next)
	c.mu.Unlock()

	log.Debug(log.CatQuery, "fetch started", "key", key, "seq", seq)
	c.broker.Publish(pubsub.LoadingEvent, next)
	return seq
}

// settle applies a finished fetch unless a newer one has been stamped since.
func (c *Client) settle(key Key, seq uint64, data any, err error) bool {
	ks := key.String()

	c.mu.Lock()
	if c.seqs[ks] != seq {
		c.mu.Unlock()
		log.Debug(log.CatQuery, "stale fetch discarded", "key", key, "seq", seq)
		return false
	}

	next := Entry{Key: key, Seq: seq}
	if prev, ok := c.store.Get(context.Background(), ks); ok {
		next.Data = prev.Data
		next.LastFetchedAt = prev.LastFetchedAt
	}
	event := pubsub.SuccessEvent
	if err != nil {
		next.Status = StatusError
		next.Err = err
		event = pubsub.ErrorEvent
	} else {
		next.Status = StatusSuccess
		next.Data = data
		next.LastFetchedAt = c.now()
	}
	c.store.Set(context.Background(), ks, &next)
	c.mu.Unlock()

	if err != nil {
		log.ErrorErr(log.CatQuery, "fetch failed", err, "key", key, "seq", seq)
	} else {
		log.Debug(log.CatQuery, "fetch succeeded", "key", key, "seq", seq)
	}
	c.broker.Publish(event, next)
	return true
}

// Entry returns a snapshot of the entry for key.
func (c *Client) Entry(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.store.Get(context.Background(), key.String())
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Invalidate drops the entries for the given keys. A fetch already in flight
// for one of them still reaches its callers but no longer writes the cache.
func (c *Client) Invalidate(keys ...Key) {
	for _, key := range keys {
		c.drop(key.String(), key)
	}
}

// InvalidateKind drops every entry whose key has the given kind.
func (c *Client) InvalidateKind(kind string) {
	prefix := encode(kind, nil)
	prefix = strings.TrimSuffix(prefix, "]")

	c.mu.Lock()
	var matched []string
	for _, ks := range c.store.Keys(context.Background()) {
		if ks == prefix+"]" || strings.HasPrefix(ks, prefix+",") {
			matched = append(matched, ks)
		}
	}
	c.mu.Unlock()

	for _, ks := range matched {
		c.drop(ks, NewKey(kind))
	}
}

func (c *Client) drop(ks string, key Key) {
	c.mu.Lock()
	prev, ok := c.store.Get(context.Background(), ks)
	c.seqs[ks]++
	_ = c.store.Delete(context.Background(), ks)
	c.mu.Unlock()

	c.group.Forget(ks)
	if ok {
		key = prev.Key
	}
	log.Debug(log.CatQuery, "entry invalidated", "key", ks)
	c.broker.Publish(pubsub.InvalidatedEvent, Entry{Key: key, Status: StatusIdle})
}

// Reset empties the cache.
func (c *Client) Reset() {
	c.mu.Lock()
	keys := c.store.Keys(context.Background())
	for _, ks := range keys {
		c.seqs[ks]++
		c.group.Forget(ks)
	}
	_ = c.store.Flush(context.Background())
	c.mu.Unlock()
}

// Subscribe streams entry transitions until ctx is done.
func (c *Client) Subscribe(ctx context.Context) <-chan pubsub.Event[Entry] {
	return c.broker.Subscribe(ctx)
}

// Close stops all subscriptions.
func (c *Client) Close() {
	c.broker.Close()
}
