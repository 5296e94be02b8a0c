package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobName = "main"

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	saved := &SyncStatus{
		Phase:        SyncPhaseComplete,
		Message:      "Synchronization completed",
		RunID:        "3f0c0f5e-5d1a-4c5e-9a3e-1f2b3c4d5e6f",
		LastAttempt:  &now,
		LastSyncTime: &now,
		SyncSchedule: "1h0m0s",
		Counts:       Counts{Added: 3, Skipped: 10, Duration: "1.5s"},
	}
	require.NoError(t, persistence.SaveStatus(ctx, testJobName, saved))

	_, err := os.Stat(filepath.Join(tmpDir, testJobName, StatusFileName))
	require.NoError(t, err)

	loaded, err := persistence.LoadStatus(ctx, testJobName)
	require.NoError(t, err)
	assert.Equal(t, saved.Phase, loaded.Phase)
	assert.Equal(t, saved.RunID, loaded.RunID)
	assert.Equal(t, saved.Counts, loaded.Counts)
	assert.True(t, saved.LastSyncTime.Equal(*loaded.LastSyncTime))
}

func TestFileStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(t.TempDir())
	loaded, err := persistence.LoadStatus(context.Background(), testJobName)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, SyncPhase(""), loaded.Phase)
}

func TestFileStatusPersistence_Corrupt(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "broken"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "broken", StatusFileName), []byte("{"), 0600))
	require.NoError(t, persistence.SaveStatus(ctx, testJobName, &SyncStatus{Phase: SyncPhaseFailed}))

	_, err := persistence.LoadStatus(ctx, "broken")
	require.Error(t, err)

	all, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "unreadable statuses are skipped")
	assert.Contains(t, all, testJobName)
}

func TestFileStatusPersistence_RejectsPathNames(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", "/abs"} {
		require.Error(t, persistence.SaveStatus(ctx, name, &SyncStatus{}), name)
		_, err := persistence.LoadStatus(ctx, name)
		require.Error(t, err, name)
	}
}

func TestFileStatusPersistence_LoadAllMissingDir(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(filepath.Join(t.TempDir(), "missing"))
	all, err := persistence.LoadAllStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNoopStatusPersistence(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence("")
	ctx := context.Background()
	require.NoError(t, persistence.SaveStatus(ctx, testJobName, &SyncStatus{Phase: SyncPhaseComplete}))

	loaded, err := persistence.LoadStatus(ctx, testJobName)
	require.NoError(t, err)
	assert.Equal(t, SyncPhase(""), loaded.Phase)

	all, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
