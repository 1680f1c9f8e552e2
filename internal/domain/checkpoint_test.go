package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_Clone(t *testing.T) {
	t.Parallel()

	cp := NewCheckpoint()
	cp.LastFullSync = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cp.Record(ClassSeries, 1, time.Unix(100, 0))

	clone := cp.Clone()
	clone.Record(ClassSeries, 1, time.Unix(200, 0))
	clone.Record(ClassMovies, 2, time.Unix(300, 0))
	clone.LastFullSync = clone.LastFullSync.Add(time.Hour)

	ts, ok := cp.Watermark(ClassSeries, 1)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Unix(100, 0)))
	assert.Equal(t, 0, cp.Tracked(ClassMovies))
	assert.Equal(t, 2026, cp.LastFullSync.Year())
	assert.Equal(t, 0, cp.LastFullSync.Hour())
}

func TestCheckpoint_Changed(t *testing.T) {
	t.Parallel()

	cp := NewCheckpoint()
	cp.Record(ClassMovies, 10, time.Unix(1600000000, 0))

	assert.False(t, cp.Changed(ClassMovies, 10, time.Unix(1600000000, 0)))
	assert.False(t, cp.Changed(ClassMovies, 10, time.Unix(1600000000, 0).In(time.FixedZone("x", 3600))))
	assert.True(t, cp.Changed(ClassMovies, 10, time.Unix(1600000001, 0)))
	assert.True(t, cp.Changed(ClassMovies, 11, time.Unix(1600000000, 0)))
	assert.True(t, cp.Changed(ClassSeries, 10, time.Unix(1600000000, 0)))
}

func TestCheckpoint_IsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, NewCheckpoint().IsZero())
	assert.True(t, (&Checkpoint{}).IsZero())

	cp := NewCheckpoint()
	cp.Record(ClassSeries, 1, time.Time{})
	assert.False(t, cp.IsZero())
}

func TestCheckpoint_JSON(t *testing.T) {
	t.Parallel()

	cp := &Checkpoint{}
	require.NoError(t, json.Unmarshal([]byte(`{"lastFullSync": "2026-04-01T10:00:00Z", "seriesLastModified": {"603": "2023-11-14T22:13:20Z"}}`), cp))
	cp.Normalize()

	assert.Equal(t, 2026, cp.LastFullSync.Year())
	assert.True(t, cp.LastIncrementalSync.IsZero())
	assert.NotNil(t, cp.MoviesAdded)
	ts, ok := cp.Watermark(ClassSeries, 603)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), ts.Unix())
}
