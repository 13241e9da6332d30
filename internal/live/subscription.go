package live

import (
	"context"
	"sync"

	"github.com/roach88/medinsight/internal/record"
)

// Snapshot is one delivered result of a live query.
type Snapshot struct {
	// Revision is the bus revision the read observed at least.
	Revision uint64
	// Events is the query result, never nil.
	Events []record.Event
	// Err is set when the read failed; Events is then empty.
	Err error
}

// Subscription is a live query registered on a Bus.
type Subscription struct {
	id    string
	query Query
	bus   *Bus

	updates chan Snapshot // buffered 1, latest wins
	signal  chan struct{} // buffered 1, coalesces notifications
	done    chan struct{}

	closeOnce sync.Once
}

// ID returns the subscription's id.
func (s *Subscription) ID() string { return s.id }

// Query returns the subscribed query.
func (s *Subscription) Query() Query { return s.query }

// Updates delivers snapshots. The channel is closed when the subscription ends.
func (s *Subscription) Updates() <-chan Snapshot { return s.updates }

// Done is closed when the subscription has been asked to stop.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.bus.remove(s.id)
		s.bus.logger.Debug("subscription closed", "subscription", s.id)
	})
}

// notify wakes the run loop. Non-blocking: pending signals coalesce.
func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// run re-evaluates the query on every signal. It is the only sender on
// updates and closes it on exit.
func (s *Subscription) run(ctx context.Context) {
	defer close(s.updates)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Close()
			return
		case <-s.signal:
			// select picks randomly when a signal and cancellation are both ready.
			if ctx.Err() != nil {
				s.Close()
				return
			}
			snap := s.evaluate(ctx)
			if ctx.Err() != nil {
				s.Close()
				return
			}
			select {
			case <-s.done:
				return
			default:
			}
			s.deliver(snap)
		}
	}
}

// evaluate runs the query; failures degrade to an empty snapshot.
func (s *Subscription) evaluate(ctx context.Context) Snapshot {
	rev := s.bus.Revision()
	events, err := s.query.Run(ctx, s.bus.reader)
	if err != nil {
		if ctx.Err() != nil {
			return Snapshot{Revision: rev, Events: []record.Event{}, Err: err}
		}
		s.bus.logger.Error("live query failed",
			"subscription", s.id,
			"query", s.query.String(),
			"err", err,
		)
		return Snapshot{Revision: rev, Events: []record.Event{}, Err: err}
	}
	if events == nil {
		events = []record.Event{}
	}
	return Snapshot{Revision: rev, Events: events}
}

// deliver places snap on updates, replacing an unconsumed older snapshot.
func (s *Subscription) deliver(snap Snapshot) {
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
