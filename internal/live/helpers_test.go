package live

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/testutil"
)

// memReader is an in-memory Reader with a switchable failure.
type memReader struct {
	mu     sync.Mutex
	events []record.Event
	nextID int64
	fail   error
	reads  int
}

func (m *memReader) add(module, action string, ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.events = append(m.events, record.Event{ID: m.nextID, Timestamp: ts, Module: module, Action: action})
}

func (m *memReader) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *memReader) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *memReader) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *memReader) ReadAll(ctx context.Context) ([]record.Event, error) {
	return m.filter("")
}

func (m *memReader) ReadByModule(ctx context.Context, module string) ([]record.Event, error) {
	return m.filter(module)
}

func (m *memReader) filter(module string) ([]record.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.fail != nil {
		return nil, m.fail
	}
	out := []record.Event{}
	for _, ev := range m.events {
		if module == "" || ev.Module == module {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

var errDiskGone = errors.New("disk gone")

const waitTimeout = 2 * time.Second

func newTestBus(t *testing.T, r Reader) *Bus {
	t.Helper()
	b := NewBus(r, WithIDGenerator(testutil.NewSequentialIDs("")))
	t.Cleanup(b.Close)
	return b
}

// next receives one snapshot or fails the test.
func next(t *testing.T, s *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-s.Updates():
		if !ok {
			t.Fatal("updates channel closed")
		}
		return snap
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

// waitFor receives snapshots until pred holds, tolerating coalesced updates.
func waitFor(t *testing.T, s *Subscription, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case snap, ok := <-s.Updates():
			if !ok {
				t.Fatal("updates channel closed")
			}
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
		}
	}
}

func actionsOf(events []record.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}

func hasLen(n int) func(Snapshot) bool {
	return func(s Snapshot) bool { return len(s.Events) == n }
}
