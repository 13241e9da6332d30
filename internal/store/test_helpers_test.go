package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/testutil"
)

// createTestStore creates a new store in a temp directory with a stepping clock.
func createTestStore(t *testing.T) (*Store, *testutil.SteppingClock) {
	t.Helper()
	clock := testutil.NewSteppingClock(time.Time{}, time.Second)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock))
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// createTestEvent creates an unpersisted event with minimal required fields.
func createTestEvent(module, action string, ts time.Time) record.Event {
	return record.Event{
		Timestamp: ts,
		Module:    module,
		Action:    action,
	}
}

// mustAppend appends ev and returns the stored copy.
func mustAppend(t *testing.T, s *Store, ev record.Event) record.Event {
	t.Helper()
	stored, err := s.Append(context.Background(), ev)
	require.NoError(t, err)
	return stored
}

// actions extracts the action labels in order.
func actions(events []record.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }

func testEpoch() time.Time { return testutil.Epoch }
