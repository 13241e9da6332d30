package ledger

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/roach88/medinsight/internal/live"
	"github.com/roach88/medinsight/internal/record"
	"github.com/roach88/medinsight/internal/testutil"
)

// testLedger bundles a ledger with the fakes it was built from.
type testLedger struct {
	*Ledger
	clock *testutil.SteppingClock
	spans *tracetest.SpanRecorder
	logs  *bytes.Buffer
}

// createTestLedger opens a ledger in a temp directory with a stepping
// clock, a span recorder and a captured log.
func createTestLedger(t *testing.T) *testLedger {
	t.Helper()
	clock := testutil.NewSteppingClock(time.Time{}, time.Second)
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path,
		WithClock(clock),
		WithLogger(logger),
		WithTracerProvider(tp),
		WithIDGenerator(testutil.NewSequentialIDs("")),
	)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() {
		l.Close()
		_ = tp.Shutdown(context.Background())
	})
	return &testLedger{Ledger: l, clock: clock, spans: spans, logs: logs}
}

func draft(module, action string) record.Draft {
	return record.Draft{Module: module, Action: action}
}

func mustAppend(t *testing.T, l *testLedger, d record.Draft) record.Event {
	t.Helper()
	ev, err := l.Append(context.Background(), d)
	require.NoError(t, err)
	return ev
}

func actions(events []record.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Action
	}
	return out
}

func spanNames(rec *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	return names
}

// waitForLen receives snapshots until one holds n events.
func waitForLen(t *testing.T, sub *live.Subscription, n int) live.Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-sub.Updates():
			require.True(t, ok, "updates channel closed")
			if len(snap.Events) == n {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d events", n)
		}
	}
}
