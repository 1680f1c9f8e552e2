package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/metasync/internal/domain"
)

const seriesListing = `[
	{"series_id": 603, "name": " Breaking Bad ", "year": "2008", "last_modified": "1700000000"},
	{"series_id": 604, "name": "Dark", "releaseDate": "2017-12-01", "last_modified": 1700000500},
	{"series_id": 605, "name": "Unknown", "year": null, "last_modified": ""},
	{"series_id": 0, "name": "Broken"}
]`

const movieListing = `[
	{"stream_id": 11, "name": "The Matrix", "year": 1999, "added": "1600000000"},
	{"stream_id": 12, "name": "Heat", "release_date": "1995-12-15", "added": "garbage"}
]`

func TestReadSeries(t *testing.T) {
	t.Parallel()

	items, err := ReadSeries(strings.NewReader(seriesListing))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 603, items[0].ID)
	assert.Equal(t, "Breaking Bad", items[0].Name)
	require.NotNil(t, items[0].Year)
	assert.Equal(t, 2008, *items[0].Year)
	assert.Equal(t, int64(1700000000), items[0].Timestamp.Unix())

	require.NotNil(t, items[1].Year)
	assert.Equal(t, 2017, *items[1].Year)
	assert.Equal(t, int64(1700000500), items[1].Timestamp.Unix())

	assert.Nil(t, items[2].Year)
	assert.True(t, items[2].Timestamp.IsZero())
}

func TestReadMovies(t *testing.T) {
	t.Parallel()

	items, err := ReadMovies(strings.NewReader(movieListing))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].Year)
	assert.Equal(t, 1999, *items[0].Year)
	assert.Equal(t, int64(1600000000), items[0].Timestamp.Unix())

	require.NotNil(t, items[1].Year)
	assert.Equal(t, 1995, *items[1].Year)
	assert.True(t, items[1].Timestamp.IsZero())
}

func TestReadMovies_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := ReadMovies(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	t.Parallel()

	ts := func(secs int64) domain.UnixTime { return domain.UnixTime{Time: time.Unix(secs, 0).UTC()} }
	items := []Item{
		{ID: 1, Name: "unchanged", Timestamp: ts(100)},
		{ID: 2, Name: "modified", Timestamp: ts(250)},
		{ID: 3, Name: "new", Timestamp: ts(300)},
	}

	cp := domain.NewCheckpoint()
	cp.Record(domain.ClassSeries, 1, time.Unix(100, 0))
	cp.Record(domain.ClassSeries, 2, time.Unix(200, 0))

	tests := []struct {
		name string
		full bool
		want []int
	}{
		{name: "incremental", full: false, want: []int{2, 3}},
		{name: "full", full: true, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			planned := Plan(cp, domain.ClassSeries, items, tt.full)
			var ids []int
			for _, item := range planned {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPlan_ClassesAreIndependent(t *testing.T) {
	t.Parallel()

	cp := domain.NewCheckpoint()
	cp.Record(domain.ClassSeries, 7, time.Unix(100, 0))

	items := []Item{{ID: 7, Timestamp: domain.UnixTime{Time: time.Unix(100, 0)}}}
	assert.Empty(t, Plan(cp, domain.ClassSeries, items, false))
	assert.Len(t, Plan(cp, domain.ClassMovies, items, false), 1)
}

func TestCommit(t *testing.T) {
	t.Parallel()

	cp := domain.NewCheckpoint()
	items := []Item{
		{ID: 11, Timestamp: domain.UnixTime{Time: time.Unix(1600000000, 0)}},
		{ID: 12},
	}

	Commit(cp, domain.ClassMovies, items)

	assert.Equal(t, 2, cp.Tracked(domain.ClassMovies))
	assert.Equal(t, 0, cp.Tracked(domain.ClassSeries))
	assert.Empty(t, Plan(cp, domain.ClassMovies, items, false))
}
