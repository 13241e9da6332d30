package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("live: bus closed")

// Bus notifies live subscriptions after committed mutations.
//
// Thread-safety: all methods are safe for concurrent use.
type Bus struct {
	reader Reader
	logger *slog.Logger
	ids    IDGenerator

	revision atomic.Uint64

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) { b.logger = l }
}

// WithIDGenerator overrides subscription id generation (for testing).
func WithIDGenerator(g IDGenerator) BusOption {
	return func(b *Bus) { b.ids = g }
}

// NewBus creates a bus whose subscriptions read from r.
func NewBus(r Reader, opts ...BusOption) *Bus {
	b := &Bus{
		reader: r,
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
		subs:   make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a live query and delivers its first snapshot before
// returning. Later snapshots follow every affecting Publish until the
// subscription is closed or ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, q Query) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Subscription{
		bus:     b,
		query:   q,
		updates: make(chan Snapshot, 1),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	s.id = b.ids.Generate()
	b.subs[s.id] = s
	b.mu.Unlock()

	// Registered before the first read, so a concurrent Publish triggers a
	// re-read rather than being missed.
	s.deliver(s.evaluate(ctx))

	go s.run(ctx)

	b.logger.Debug("subscription opened", "subscription", s.id, "query", q.String(), "active", b.size())
	return s, nil
}

// Publish records a committed mutation and wakes affected subscriptions.
// It never blocks on consumers.
func (b *Bus) Publish(ch Change) {
	rev := b.revision.Add(1)

	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.query.Affected(ch) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		s.notify()
	}

	b.logger.Debug("change published",
		"kind", ch.Kind.String(),
		"module", ch.Module,
		"count", ch.Count,
		"revision", rev,
		"subscribers", len(targets),
	)
}

// Revision returns the number of changes published so far.
func (b *Bus) Revision() uint64 {
	return b.revision.Load()
}

// size returns the number of live subscriptions.
func (b *Bus) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription and rejects new ones.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
