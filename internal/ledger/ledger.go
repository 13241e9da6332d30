package ledger

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/medinsight/internal/live"
	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/store"
	"github.com/roach88/medinsight/internal/telemetry"
)

// Recorder is what producers depend on to record their results.
type Recorder interface {
	AddHistoryEvent(ctx context.Context, d record.Draft)
}

var _ Recorder = (*Ledger)(nil)

// Ledger is the activity ledger: a store, its live query bus, and the
// mutation and import/export operations over them.
type Ledger struct {
	store  *store.Store
	bus    *live.Bus
	logger *slog.Logger
	clock  record.Clock
	tracer trace.Tracer

	pollMu      sync.Mutex
	polled      bool
	dataVersion int64
}

type options struct {
	logger *slog.Logger
	clock  record.Clock
	tp     trace.TracerProvider
	ids    live.IDGenerator
}

// Option configures a Ledger.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used to stamp appended events.
func WithClock(c record.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithIDGenerator overrides subscription id generation (for testing).
func WithIDGenerator(g live.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		clock:  record.SystemClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string, opts ...Option) (*Ledger, error) {
	o := buildOptions(opts)
	st, err := store.Open(path, store.WithClock(o.clock))
	if err != nil {
		return nil, newStorageError("open ledger", err)
	}
	return newLedger(st, o), nil
}

// New wraps an already opened store.
func New(st *store.Store, opts ...Option) *Ledger {
	return newLedger(st, buildOptions(opts))
}

func newLedger(st *store.Store, o options) *Ledger {
	busOpts := []live.BusOption{live.WithLogger(o.logger)}
	if o.ids != nil {
		busOpts = append(busOpts, live.WithIDGenerator(o.ids))
	}
	return &Ledger{
		store:  st,
		bus:    live.NewBus(st, busOpts...),
		logger: o.logger,
		clock:  o.clock,
		tracer: telemetry.Tracer(o.tp),
	}
}

// Close ends every subscription and closes the store.
func (l *Ledger) Close() error {
	l.bus.Close()
	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() *store.Store { return l.store }

// Append records d stamped with the current time and returns the stored
// event. Unlike AddHistoryEvent, failures are returned.
func (l *Ledger) Append(ctx context.Context, d record.Draft) (record.Event, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Append", trace.WithAttributes(
		attribute.String("event.module", d.Module),
		attribute.String("event.action", d.Action),
	))
	defer span.End()

	ev, err := l.store.Append(ctx, d.Stamp(l.clock.Now()))
	if err != nil {
		telemetry.RecordError(span, err)
		return record.Event{}, newStorageError("append", err)
	}
	span.SetAttributes(attribute.Int64("event.id", ev.ID))

	l.bus.Publish(live.Change{Kind: live.ChangeAppend, Module: ev.Module, Count: 1})
	l.logger.Debug("history event recorded", "id", ev.ID, "module", ev.Module, "action", ev.Action)
	return ev, nil
}

// AddHistoryEvent records d stamped with the current time. It never fails
// the caller: storage errors are logged and dropped.
func (l *Ledger) AddHistoryEvent(ctx context.Context, d record.Draft) {
	if _, err := l.Append(ctx, d); err != nil {
		l.logger.Error("failed to add history event",
			"module", d.Module,
			"action", d.Action,
			"err", err,
		)
	}
}

// DeleteHistoryEvent removes one event. It reports false, with no error,
// when the id does not exist.
func (l *Ledger) DeleteHistoryEvent(ctx context.Context, id int64) (bool, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.DeleteHistoryEvent", trace.WithAttributes(
		attribute.Int64("event.id", id),
	))
	defer span.End()

	deleted, err := l.store.Delete(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, newStorageError("delete history event", err)
	}
	span.SetAttributes(attribute.Bool("event.deleted", deleted))

	if !deleted {
		l.logger.Debug("delete of unknown history event ignored", "id", id)
		return false, nil
	}

	l.bus.Publish(live.Change{Kind: live.ChangeDelete, Count: 1})
	l.logger.Info("history event deleted", "id", id)
	return true, nil
}

// ClearHistory irreversibly removes every event.
func (l *Ledger) ClearHistory(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.ClearHistory")
	defer span.End()

	n, err := l.store.Clear(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return newStorageError("clear history", err)
	}
	span.SetAttributes(attribute.Int64("events.removed", n))

	l.bus.Publish(live.Change{Kind: live.ChangeClear, Count: int(n)})
	l.logger.Info("history cleared", "count", n)
	return nil
}

// Event returns one event by id.
func (l *Ledger) Event(ctx context.Context, id int64) (record.Event, error) {
	ev, err := l.store.Read(ctx, id)
	if err != nil {
		return record.Event{}, classify("read history event", err)
	}
	return ev, nil
}

// Count returns the number of recorded events.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	n, err := l.store.Count(ctx)
	if err != nil {
		return 0, newStorageError("count history events", err)
	}
	return n, nil
}

// Modules returns the distinct module labels that have recorded events.
func (l *Ledger) Modules(ctx context.Context) ([]string, error) {
	modules, err := l.store.Modules(ctx)
	if err != nil {
		return nil, newStorageError("list modules", err)
	}
	return modules, nil
}

// History returns every event, most recent first. A read failure is logged
// and degrades to an empty history.
func (l *Ledger) History(ctx context.Context) []record.Event {
	return l.query(ctx, live.All())
}

// HistoryByModule returns the events of one module, most recent first,
// degrading like History.
func (l *Ledger) HistoryByModule(ctx context.Context, module string) []record.Event {
	return l.query(ctx, live.ByModule(module))
}

func (l *Ledger) query(ctx context.Context, q live.Query) []record.Event {
	ctx, span := l.tracer.Start(ctx, "Ledger.History", trace.WithAttributes(
		attribute.String("query", q.String()),
	))
	defer span.End()

	events, err := q.Run(ctx, l.store)
	if err != nil {
		telemetry.RecordError(span, err)
		l.logger.Error("failed to get history events", "query", q.String(), "err", err)
		return []record.Event{}
	}
	span.SetAttributes(attribute.Int("events.count", len(events)))
	return events
}

// Poll checks whether another process committed to the ledger since the
// previous Poll and, if so, re-evaluates every subscription. The first call
// only records a baseline and reports false.
func (l *Ledger) Poll(ctx context.Context) (bool, error) {
	version, err := l.store.DataVersion(ctx)
	if err != nil {
		return false, newStorageError("poll", err)
	}

	l.pollMu.Lock()
	changed := l.polled && version != l.dataVersion
	l.polled = true
	l.dataVersion = version
	l.pollMu.Unlock()

	if changed {
		l.logger.Debug("external change detected")
		l.bus.Publish(live.Change{Kind: live.ChangeExternal})
	}
	return changed, nil
}

// Subscribe opens a live query. The first snapshot is available
// immediately; a new one follows every committed mutation.
func (l *Ledger) Subscribe(ctx context.Context, q live.Query) (*live.Subscription, error) {
	return l.bus.Subscribe(ctx, q)
}
