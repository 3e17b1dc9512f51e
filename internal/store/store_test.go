package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &AgentRun{
		AgentID:  "calculator",
		Model:    "gpt-4o-mini",
		Message:  "2+3?",
		Response: "5",
		Steps:    json.RawMessage(`[{"turn":1,"tool":"add_numbers","arguments":"{\"a\":2,\"b\":3}","output":"5"}]`),
		Status:   StatusSuccess,
	}
	require.NoError(t, s.Save(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "calculator", got.AgentID)
	assert.Equal(t, "5", got.Response)
	assert.JSONEq(t, string(run.Steps), string(got.Steps))
}

func TestSaveDefaultsSteps(t *testing.T) {
	s := openTestStore(t)
	run := &AgentRun{AgentID: "a", Status: StatusError, Error: "boom"}
	require.NoError(t, s.Save(context.Background(), run))

	got, err := s.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(got.Steps))
	assert.Equal(t, "boom", got.Error)
}

func TestGetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "does-not-exist")
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
}

func TestListByAgent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, &AgentRun{
			AgentID:   "alpha",
			Message:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Save(ctx, &AgentRun{AgentID: "beta", CreatedAt: base}))

	runs, err := s.ListByAgent(ctx, "alpha", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "e", runs[0].Message)
	assert.Equal(t, "c", runs[2].Message)

	all, err := s.ListByAgent(ctx, "alpha", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := s.ListByAgent(ctx, "gamma", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thinky.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	run := &AgentRun{AgentID: "alpha"}
	require.NoError(t, s.Save(ctx, run))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.AgentID)
}

func TestOpenRejectsNonDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thinky.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a database ", 100)), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.NoError(t, os.Remove(path))
}

func TestCloseDBReleasesPool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	closeDB(db)
	assert.Error(t, sqlDB.Ping())
}
