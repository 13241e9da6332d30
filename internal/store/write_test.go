package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/medinsight/internal/record"
)

func TestAppend_Basic(t *testing.T) {
	s, _ := createTestStore(t)
	ts := time.Date(2026, 2, 3, 4, 5, 6, 789000000, time.UTC)

	ev := record.Event{
		ID:            999, // ignored
		Timestamp:     ts,
		Module:        "Análisis de Imágenes Médicas",
		Action:        "Imagen Analizada",
		InputSummary:  record.Text("chest.png"),
		OutputSummary: record.Text("No acute findings."),
		Details:       rawJSON(`{"fileName": "chest.png", "contentType": "image/png"}`),
	}

	stored := mustAppend(t, s, ev)
	assert.Equal(t, int64(1), stored.ID, "caller-supplied id is discarded")

	got, err := s.Read(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, "chest.png", record.Deref(got.InputSummary))
	assert.Equal(t, `{"fileName":"chest.png","contentType":"image/png"}`, string(got.Details))
}

func TestAppend_StampsMissingTimestamp(t *testing.T) {
	s, clock := createTestStore(t)
	want := clock.Peek()

	stored := mustAppend(t, s, createTestEvent("A", "x", time.Time{}))
	assert.True(t, want.Equal(stored.Timestamp), "got %v want %v", stored.Timestamp, want)
}

func TestAppend_TruncatesToMillis(t *testing.T) {
	s, _ := createTestStore(t)
	ts := time.Date(2026, 2, 3, 4, 5, 6, 123456789, time.FixedZone("X", -5*3600))

	stored := mustAppend(t, s, createTestEvent("A", "x", ts))
	got, err := s.Read(context.Background(), stored.ID)
	require.NoError(t, err)

	assert.Equal(t, 123000000, got.Timestamp.Nanosecond())
	assert.Equal(t, time.UTC, got.Timestamp.Location())
	assert.Equal(t, stored.Timestamp, got.Timestamp)
}

func TestAppend_NullableFields(t *testing.T) {
	s, _ := createTestStore(t)

	stored := mustAppend(t, s, record.Event{
		Timestamp:    testEpoch(),
		Module:       "A",
		Action:       "x",
		InputSummary: record.Text("in"),
		Details:      rawJSON("null"),
	})

	got, err := s.Read(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "in", record.Deref(got.InputSummary))
	assert.Nil(t, got.OutputSummary)
	assert.Nil(t, got.Details, "JSON null details are stored as absent")

	empty := ""
	stored = mustAppend(t, s, record.Event{Timestamp: testEpoch(), Module: "A", Action: "y", InputSummary: &empty})
	got, err = s.Read(context.Background(), stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InputSummary, "empty string is distinct from absent")
	assert.Equal(t, "", *got.InputSummary)
}

func TestAppend_InvalidDetails(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.Append(context.Background(), record.Event{
		Timestamp: testEpoch(), Module: "A", Action: "x", Details: rawJSON("{oops"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDetails))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAppend_NormalizesLabels(t *testing.T) {
	s, _ := createTestStore(t)

	stored := mustAppend(t, s, createTestEvent(" Diagnóstico Inteligente ", " Diagnósticos Sugeridos", testEpoch()))
	assert.Equal(t, "Diagnóstico Inteligente", stored.Module)
	assert.Equal(t, "Diagnósticos Sugeridos", stored.Action)
}

func TestAppend_IDsStrictlyIncrease(t *testing.T) {
	s, _ := createTestStore(t)

	var last int64
	for i := 0; i < 20; i++ {
		// Timestamps deliberately go backwards; ids must not.
		ts := testEpoch().Add(-time.Duration(i) * time.Minute)
		stored := mustAppend(t, s, createTestEvent("A", "x", ts))
		assert.Greater(t, stored.ID, last)
		last = stored.ID
	}
}

func TestAppend_IDsNeverReused(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	first := mustAppend(t, s, createTestEvent("A", "x", testEpoch()))
	second := mustAppend(t, s, createTestEvent("A", "y", testEpoch()))

	_, err := s.Delete(ctx, second.ID)
	require.NoError(t, err)
	_, err = s.Clear(ctx)
	require.NoError(t, err)

	third := mustAppend(t, s, createTestEvent("A", "z", testEpoch()))
	assert.Greater(t, third.ID, second.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestAppend_Concurrent(t *testing.T) {
	s, _ := createTestStore(t)
	const n = 25

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, err := s.Append(context.Background(), createTestEvent("A", "x", time.Time{}))
			if assert.NoError(t, err) {
				ids <- stored.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestAppendBatch_Append(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustAppend(t, s, createTestEvent("A", "existing", testEpoch()))

	n, err := s.AppendBatch(ctx, []record.Event{
		createTestEvent("B", "b1", testEpoch().Add(time.Hour)),
		createTestEvent("B", "b2", testEpoch().Add(2*time.Hour)),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1", "existing"}, actions(events))
}

func TestAppendBatch_Replace(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustAppend(t, s, createTestEvent("A", "old1", testEpoch()))
	mustAppend(t, s, createTestEvent("A", "old2", testEpoch()))

	n, err := s.AppendBatch(ctx, []record.Event{
		createTestEvent("B", "new", testEpoch()),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, actions(events))
	assert.Greater(t, events[0].ID, int64(2), "fresh ids after replace")
}

func TestAppendBatch_ReplaceWithEmptyClears(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustAppend(t, s, createTestEvent("A", "old", testEpoch()))

	n, err := s.AppendBatch(ctx, nil, true)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAppendBatch_RollsBackOnFailure(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustAppend(t, s, createTestEvent("A", "kept", testEpoch()))

	// A trigger that aborts the third insert makes the engine fail mid-batch.
	_, err := s.db.Exec(`
		CREATE TRIGGER fail_third BEFORE INSERT ON history_events
		WHEN NEW.action = 'boom'
		BEGIN SELECT RAISE(ABORT, 'disk full'); END
	`)
	require.NoError(t, err)

	for _, replace := range []bool{false, true} {
		_, err = s.AppendBatch(ctx, []record.Event{
			createTestEvent("B", "b1", testEpoch()),
			createTestEvent("B", "b2", testEpoch()),
			createTestEvent("B", "boom", testEpoch()),
		}, replace)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStorageUnavailable))

		events, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, actions(events), "replace=%v must leave the ledger unchanged", replace)
	}
}

func TestAppendBatch_InvalidDetailsWritesNothing(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.AppendBatch(context.Background(), []record.Event{
		createTestEvent("B", "b1", testEpoch()),
		{Timestamp: testEpoch(), Module: "B", Action: "b2", Details: rawJSON("[1,")},
	}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDetails))
	assert.Contains(t, err.Error(), "event 1")
}

func TestDelete(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	a := mustAppend(t, s, createTestEvent("A", "a", testEpoch()))
	b := mustAppend(t, s, createTestEvent("A", "b", testEpoch()))

	deleted, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	events, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, b.ID, events[0].ID)
}

func TestDelete_MissingIsNoop(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	mustAppend(t, s, createTestEvent("A", "a", testEpoch()))

	deleted, err := s.Delete(ctx, 4242)
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClear(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		mustAppend(t, s, createTestEvent("A", "x", time.Time{}))
	}

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	events, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	n, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "clearing an empty ledger is fine")
}
