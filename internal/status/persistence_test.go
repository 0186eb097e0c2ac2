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

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", StatusFileName)
	persistence := NewFileStatusPersistence(path)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	testStatus := &BundleStatus{
		Phase:        SyncPhaseComplete,
		Message:      "updated",
		LastAttempt:  &now,
		LastSyncTime: &now,
		Version:      "v1.2.0",
	}
	require.NoError(t, persistence.SaveStatus(ctx, 7, testStatus))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	loaded, err := persistence.LoadStatus(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, testStatus.Phase, loaded.Phase)
	assert.Equal(t, testStatus.Version, loaded.Version)
	assert.True(t, now.Equal(*loaded.LastSyncTime))
}

func TestFileStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(filepath.Join(t.TempDir(), StatusFileName))

	loaded, err := persistence.LoadStatus(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, &BundleStatus{}, loaded)

	all, err := persistence.LoadAllStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStatusPersistence_LoadAllAndRemove(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(filepath.Join(t.TempDir(), StatusFileName))
	ctx := context.Background()

	for _, uid := range []int{0, 4, 9} {
		require.NoError(t, persistence.SaveStatus(ctx, uid, &BundleStatus{Phase: SyncPhaseUpToDate}))
	}
	require.NoError(t, persistence.RemoveStatus(ctx, 4, 100))

	all, err := persistence.LoadAllStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Contains(t, all, 0)
	assert.Contains(t, all, 9)
}

func TestFileStatusPersistence_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), StatusFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStatusPersistence(path).LoadAllStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal status data")
}

func TestBundleStatus_Record(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var s BundleStatus

	s.Record(SyncPhaseFailed, "timeout", "", at)
	s.Record(SyncPhaseFailed, "timeout", "", at.Add(time.Minute))
	assert.Equal(t, 2, s.AttemptCount)
	assert.Nil(t, s.LastSyncTime)

	s.Record(SyncPhaseComplete, "updated", "v2", at.Add(time.Hour))
	assert.Equal(t, 0, s.AttemptCount)
	assert.Equal(t, "v2", s.Version)
	require.NotNil(t, s.LastSyncTime)
	assert.Equal(t, at.Add(time.Hour), *s.LastSyncTime)

	s.Record(SyncPhaseCancelled, "", "", at.Add(2*time.Hour))
	assert.Equal(t, "v2", s.Version)
	assert.Equal(t, at.Add(time.Hour), *s.LastSyncTime)
}
