package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.Append(ctx, createTestEvent("A", "x", testEpoch()))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "events survive reopen")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"history_events",
	).Scan(&name)
	require.NoError(t, err, "table not found after idempotent opens")

	indexes := []string{
		"idx_history_events_timestamp",
		"idx_history_events_module",
		"idx_history_events_action",
	}
	for _, idx := range indexes {
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		assert.NoError(t, err, "index %q missing", idx)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Append(ctx, createTestEvent("A", "x", testEpoch()))
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "single connection keeps the in-memory database alive")
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	s.Close()

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestSchemaVersion(t *testing.T) {
	s, _ := createTestStore(t)

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)
}

func TestMigrateFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Simulate a pre-migration file: table only, user_version 0.
	s, err := Open(path)
	require.NoError(t, err)
	for _, stmt := range []string{
		"DROP INDEX idx_history_events_timestamp",
		"DROP INDEX idx_history_events_module",
		"DROP INDEX idx_history_events_action",
		"PRAGMA user_version = 0",
	} {
		_, err := s.db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = s.Append(context.Background(), createTestEvent("A", "kept", testEpoch()))
	require.NoError(t, err)
	s.Close()

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var count int
	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_history_events_%'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	events, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, actions(events), "migration preserves rows")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close(), "Close() on nil db should not error")
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	// Second close should not panic (though may error)
	_ = s.Close()
}

func TestClosedStore_ReportsUnavailable(t *testing.T) {
	s, _ := createTestStore(t)
	require.NoError(t, s.Close())
	ctx := context.Background()

	_, err := s.Append(ctx, createTestEvent("A", "x", testEpoch()))
	assert.True(t, errors.Is(err, ErrStorageUnavailable), "append: %v", err)

	_, err = s.ReadAll(ctx)
	assert.True(t, errors.Is(err, ErrStorageUnavailable), "read: %v", err)

	_, err = s.Delete(ctx, 1)
	assert.True(t, errors.Is(err, ErrStorageUnavailable), "delete: %v", err)

	_, err = s.Clear(ctx)
	assert.True(t, errors.Is(err, ErrStorageUnavailable), "clear: %v", err)
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s, _ := createTestStore(t)

	db := s.DB()
	require.NotNil(t, db)
	assert.NoError(t, db.Ping())
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s, _ := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.expected))
		})
	}
}

func TestDataVersion_ChangesOnlyForOtherConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	v0, err := s1.DataVersion(ctx)
	require.NoError(t, err)

	_, err = s1.Append(ctx, createTestEvent("A", "own", testEpoch()))
	require.NoError(t, err)
	v1, err := s1.DataVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, v0, v1, "own commits do not bump data_version")

	_, err = s2.Append(ctx, createTestEvent("A", "other", testEpoch()))
	require.NoError(t, err)
	v2, err := s1.DataVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2, "another connection's commit bumps data_version")
}
