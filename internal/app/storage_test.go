package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/metasync/internal/domain"
)

func TestMigrateStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t, domain.StorageJSON)
	paths := domain.NewPaths(cfg.DataDir)

	src, err := openStorage(zerolog.Nop(), paths, domain.StorageJSON)
	require.NoError(t, err)

	id := 603
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snapshot := domain.NewCacheSnapshot()
	snapshot.Movies["the matrix|1999"] = domain.NewCacheEntry(&id, now)
	snapshot.Series["nothing|"] = domain.NewCacheEntry(nil, now)
	require.NoError(t, src.snapshots.StoreSnapshot(ctx, snapshot))

	cp := domain.NewCheckpoint()
	cp.LastFullSync = now
	cp.Record(domain.ClassSeries, 1, now)
	require.NoError(t, src.checkpoints.StoreCheckpoint(ctx, cp))

	result, err := MigrateStorage(ctx, zerolog.Nop(), cfg, domain.StorageJSON, domain.StorageSQLite)
	require.NoError(t, err)
	assert.Equal(t, &MigrationResult{
		From:          domain.StorageJSON,
		To:            domain.StorageSQLite,
		CacheMovies:   1,
		CacheSeries:   1,
		StateMigrated: true,
		SeriesTracked: 1,
	}, result)

	dst, err := openStorage(zerolog.Nop(), paths, domain.StorageSQLite)
	require.NoError(t, err)
	defer dst.Close()

	got, err := dst.snapshots.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Movies, "the matrix|1999")
	assert.Equal(t, 603, *got.Movies["the matrix|1999"].ProviderID)
	assert.True(t, got.Movies["the matrix|1999"].LookupDate.Equal(now))
	assert.Nil(t, got.Series["nothing|"].ProviderID)

	gotCp, err := dst.checkpoints.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.True(t, gotCp.LastFullSync.Equal(now))
	assert.False(t, gotCp.Changed(domain.ClassSeries, 1, now))
}

func TestMigrateStorage_EmptySource(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, domain.StorageJSON)
	result, err := MigrateStorage(context.Background(), zerolog.Nop(), cfg, domain.StorageSQLite, domain.StorageJSON)
	require.NoError(t, err)
	assert.False(t, result.StateMigrated)
	assert.Zero(t, result.CacheMovies)
}

func TestMigrateStorage_SameBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, domain.StorageJSON)
	_, err := MigrateStorage(context.Background(), zerolog.Nop(), cfg, domain.StorageJSON, domain.StorageJSON)
	assert.Error(t, err)
}

func TestMigrateStorage_SQLiteToBolt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t, domain.StorageSQLite)
	paths := domain.NewPaths(cfg.DataDir)

	src, err := openStorage(zerolog.Nop(), paths, domain.StorageSQLite)
	require.NoError(t, err)

	id := 81189
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	snapshot := domain.NewCacheSnapshot()
	snapshot.Series["breaking bad|2008"] = domain.NewCacheEntry(&id, now)
	require.NoError(t, src.snapshots.StoreSnapshot(ctx, snapshot))
	require.NoError(t, src.Close())

	result, err := MigrateStorage(ctx, zerolog.Nop(), cfg, domain.StorageSQLite, domain.StorageBolt)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CacheSeries)
	assert.False(t, result.StateMigrated)

	dst, err := openStorage(zerolog.Nop(), paths, domain.StorageBolt)
	require.NoError(t, err)
	defer dst.Close()

	got, err := dst.snapshots.GetSnapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Series, "breaking bad|2008")
	assert.Equal(t, 81189, *got.Series["breaking bad|2008"].ProviderID)
}
