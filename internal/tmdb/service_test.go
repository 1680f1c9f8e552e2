package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/metasync/internal/domain"
)

func intPtr(i int) *int { return &i }

func newTestService(t *testing.T, handler http.Handler) *service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewService(zerolog.Nop(), &domain.Config{
		TmdbApiKey:  "test-key",
		TmdbBaseURL: srv.URL + "/3/",
	}).(*service)
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return svc
}

func TestSearch_Movie(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "The Matrix", q.Get("query"))
		assert.Equal(t, "1999", q.Get("year"))
		assert.Equal(t, "en-US", q.Get("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page": 1, "results": [
			{"id": 603, "title": "The Matrix", "release_date": "1999-03-31"},
			{"id": 604, "title": "The Matrix Reloaded", "release_date": "2003-05-15"}
		], "total_results": 2}`))
	}))

	res, err := svc.Search(context.Background(), domain.SearchQuery{
		Class:    domain.ClassMovies,
		Title:    "The Matrix",
		Year:     intPtr(1999),
		Language: "en-US",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "The Matrix", res.Name)
	require.NotNil(t, res.Year)
	assert.Equal(t, 1999, *res.Year)
	assert.Equal(t, 603, *res.ProviderID(domain.ProviderTmdb))
	assert.Nil(t, res.ProviderID(domain.ProviderTvdb))
}

func TestSearch_Series(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/3/search/tv", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Breaking Bad", r.URL.Query().Get("query"))
		assert.Equal(t, "2008", r.URL.Query().Get("first_air_date_year"))
		_, _ = w.Write([]byte(`{"results": [{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20"}]}`))
	})
	mux.HandleFunc("/3/tv/1396/external_ids", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"id": 1396, "tvdb_id": 81189, "imdb_id": "tt0903747"}`))
	})

	svc := newTestService(t, mux)

	res, err := svc.Search(context.Background(), domain.SearchQuery{
		Class: domain.ClassSeries,
		Title: "Breaking Bad",
		Year:  intPtr(2008),
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 81189, *res.ProviderID(domain.ProviderTvdb))
	assert.Equal(t, 1396, *res.ProviderID(domain.ProviderTmdb))
	assert.Equal(t, 2008, *res.Year)
}

func TestSearch_SeriesWithoutTvdbID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/3/search/tv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"id": 5, "name": "Obscure", "first_air_date": ""}]}`))
	})
	mux.HandleFunc("/3/tv/5/external_ids", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 5, "tvdb_id": null}`))
	})

	svc := newTestService(t, mux)

	res, err := svc.Search(context.Background(), domain.SearchQuery{Class: domain.ClassSeries, Title: "Obscure"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.ProviderID(domain.ProviderTvdb))
	assert.Nil(t, res.Year)
}

func TestSearch_NoResults(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page": 1, "results": [], "total_results": 0}`))
	}))

	res, err := svc.Search(context.Background(), domain.SearchQuery{Class: domain.ClassMovies, Title: "Nothing"})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(`{"results": [{"id": 949, "title": "Heat", "release_date": "1995-12-15"}]}`))
		}
	}))

	res, err := svc.Search(context.Background(), domain.SearchQuery{Class: domain.ClassMovies, Title: "Heat"})
	require.NoError(t, err)
	assert.Equal(t, 949, *res.ProviderID(domain.ProviderTmdb))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_GivesUpAfterMaxTries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := svc.Search(context.Background(), domain.SearchQuery{Class: domain.ClassMovies, Title: "Heat"})
	require.Error(t, err)
	assert.Equal(t, int32(svc.maxTries), calls.Load())
}

func TestSearch_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := svc.Search(context.Background(), domain.SearchQuery{Class: domain.ClassMovies, Title: "Heat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_Cancelled(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, domain.SearchQuery{Class: domain.ClassMovies, Title: "Heat"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_UnsupportedClass(t *testing.T) {
	t.Parallel()

	svc := NewService(zerolog.Nop(), &domain.Config{})
	_, err := svc.Search(context.Background(), domain.SearchQuery{Class: "episodes", Title: "x"})
	assert.Error(t, err)
}

func TestGetYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1999, *getYear("1999-03-31"))
	assert.Nil(t, getYear(""))
	assert.Nil(t, getYear("unknown"))
}
