package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/metasync/internal/domain"
)

func newTestRepo(t *testing.T) (*FileRepository, *domain.Paths) {
	t.Helper()
	paths := domain.NewPaths(t.TempDir())
	return NewFileRepository(zerolog.Nop(), paths), paths
}

func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)

	_, err := repo.GetSnapshot(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = repo.GetCheckpoint(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileRepository_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)
	ctx := context.Background()

	id := 603
	now := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	snapshot := domain.NewCacheSnapshot()
	snapshot.Movies["the matrix|1999"] = domain.NewCacheEntry(&id, now)
	snapshot.Series["nothing|"] = domain.NewCacheEntry(nil, now)

	require.NoError(t, repo.StoreSnapshot(ctx, snapshot))

	body, err := os.ReadFile(paths.CachePath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "\n  \"movies\": {")
	assert.Contains(t, string(body), `"providerId": 603`)
	assert.Contains(t, string(body), `"providerId": null`)
	assert.Contains(t, string(body), `"lookupDate": "2026-02-03T04:05:06.000000007Z"`)

	_, err = os.Stat(paths.CachePath + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must be renamed away")

	got, err := repo.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Movies, "the matrix|1999")
	assert.Equal(t, 603, *got.Movies["the matrix|1999"].ProviderID)
	assert.True(t, got.Movies["the matrix|1999"].LookupDate.Equal(now))
	require.Contains(t, got.Series, "nothing|")
	assert.Nil(t, got.Series["nothing|"].ProviderID)
}

func TestFileRepository_MissingMembersDecodeEmpty(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)
	require.NoError(t, os.MkdirAll(paths.RootDir, 0755))
	require.NoError(t, os.WriteFile(paths.CachePath, []byte(`{"movies": null}`), 0644))
	require.NoError(t, os.WriteFile(paths.StatePath, []byte(`{"lastFullSync": "2026-01-01T00:00:00Z"}`), 0644))

	snapshot, err := repo.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Movies)
	assert.NotNil(t, snapshot.Series)

	cp, err := repo.GetCheckpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2026, cp.LastFullSync.Year())
	assert.True(t, cp.LastIncrementalSync.IsZero())
	assert.NotNil(t, cp.SeriesLastModified)
	assert.NotNil(t, cp.MoviesAdded)
}

func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)
	require.NoError(t, os.MkdirAll(paths.RootDir, 0755))
	require.NoError(t, os.WriteFile(paths.CachePath, []byte(`{"movies": {`), 0644))

	_, err := repo.GetSnapshot(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileRepository_CheckpointRoundTrip(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)
	ctx := context.Background()

	cp := domain.NewCheckpoint()
	cp.LastFullSync = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cp.LastIncrementalSync = cp.LastFullSync.Add(6 * time.Hour)
	cp.Record(domain.ClassSeries, 603, time.Unix(1700000000, 0))
	cp.Record(domain.ClassMovies, 11, time.Unix(1600000000, 0))

	require.NoError(t, repo.StoreCheckpoint(ctx, cp))

	body, err := os.ReadFile(paths.StatePath)
	require.NoError(t, err)
	for _, field := range []string{"lastFullSync", "lastIncrementalSync", "seriesLastModified", "moviesAdded"} {
		assert.Contains(t, string(body), `"`+field+`"`)
	}

	got, err := repo.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.True(t, got.LastFullSync.Equal(cp.LastFullSync))
	assert.True(t, got.LastIncrementalSync.Equal(cp.LastIncrementalSync))
	assert.False(t, got.Changed(domain.ClassSeries, 603, time.Unix(1700000000, 0)))
	assert.False(t, got.Changed(domain.ClassMovies, 11, time.Unix(1600000000, 0)))

	require.NoError(t, repo.DeleteCheckpoint(ctx))
	_, err = repo.GetCheckpoint(ctx)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// deleting twice is not an error
	require.NoError(t, repo.DeleteCheckpoint(ctx))
}

func TestFileRepository_Cancelled(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetSnapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = repo.StoreSnapshot(ctx, domain.NewCacheSnapshot())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(paths.CachePath)
	assert.True(t, os.IsNotExist(err), "a cancelled save must not write")
}

func TestFileRepository_PathIsDirectory(t *testing.T) {
	t.Parallel()

	repo, paths := newTestRepo(t)
	require.NoError(t, os.MkdirAll(paths.StatePath, 0755))

	_, err := repo.GetCheckpoint(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "directory"))
	assert.Equal(t, filepath.Join(paths.RootDir, "sync-state.json"), paths.StatePath)
}
