// Package lookup resolves catalog titles to TMDB/TVDB ids through a
// persistent, TTL-bound cache in front of a metadata search provider.
package lookup

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	// LookupMovie returns the TMDB id for a movie, or nil if none is known.
	// The error is only ever the context's error.
	LookupMovie(ctx context.Context, title string, year *int) (*int, error)
	// LookupSeries returns the TVDB id for a series, or nil if none is known.
	// The error is only ever the context's error.
	LookupSeries(ctx context.Context, title string, year *int) (*int, error)

	// LoadSnapshot hydrates the cache from the repository once.
	LoadSnapshot(ctx context.Context) error
	// SaveSnapshot writes the cache back. Failures are logged, not returned.
	SaveSnapshot(ctx context.Context) error

	Clear()
	Stats() domain.CacheStats
}

type service struct {
	log      zerolog.Logger
	repo     domain.SnapshotRepository
	provider domain.SearchProvider
	language string

	movies entryMap
	series entryMap

	loaded atomic.Bool
	group  singleflight.Group

	now func() time.Time
}

func NewService(log zerolog.Logger, repo domain.SnapshotRepository, provider domain.SearchProvider, language string) Service {
	return &service{
		log:      log.With().Str("module", "lookup").Logger(),
		repo:     repo,
		provider: provider,
		language: language,
		now:      time.Now,
	}
}

func (s *service) LookupMovie(ctx context.Context, title string, year *int) (*int, error) {
	return s.lookup(ctx, domain.ClassMovies, title, year)
}

func (s *service) LookupSeries(ctx context.Context, title string, year *int) (*int, error) {
	return s.lookup(ctx, domain.ClassSeries, title, year)
}

func (s *service) entries(class domain.ItemClass) *entryMap {
	if class == domain.ClassSeries {
		return &s.series
	}
	return &s.movies
}

func (s *service) lookup(ctx context.Context, class domain.ItemClass, title string, year *int) (*int, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}

	if err := s.LoadSnapshot(ctx); err != nil {
		return nil, err
	}

	key := domain.CacheKey(title, year)
	entries := s.entries(class)

	if cached, ok := entries.get(key); ok && !cached.IsExpiredAt(s.now().UTC()) {
		withItem(s.log.Debug(), class, title, year).
			Interface("provider_id", cached.ProviderID).
			Msg("cache hit")
		return cached.ProviderID, nil
	}

	result, err := s.provider.Search(ctx, domain.SearchQuery{
		Class:    class,
		Title:    strings.TrimSpace(title),
		Year:     year,
		Language: s.language,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// not cached so the next sync pass retries
		withItem(s.log.Warn().Err(err), class, title, year).Msg("metadata lookup failed")
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	id := result.ProviderID(class.ProviderKey())
	entries.set(key, domain.NewCacheEntry(id, s.now()))

	if id != nil {
		withItem(s.log.Debug(), class, title, year).Int("provider_id", *id).Msg("lookup found id")
	} else {
		withItem(s.log.Debug(), class, title, year).Msg("lookup found nothing")
	}

	return id, nil
}

func (s *service) LoadSnapshot(ctx context.Context) error {
	for {
		if s.loaded.Load() {
			return nil
		}

		ch := s.group.DoChan("load", func() (any, error) {
			return nil, s.load(ctx)
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the shared load was cancelled by another caller, run our own
		}
	}
}

// load returns an error only when ctx is done; every other failure leaves
// the cache empty and marks it loaded.
func (s *service) load(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}

	snapshot, err := s.repo.GetSnapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Msg("No metadata cache found, starting empty")
		} else {
			s.log.Warn().Err(err).Msg("Failed to load metadata cache, starting empty")
		}
		s.loaded.Store(true)
		return nil
	}

	snapshot.Normalize()
	for key, entry := range snapshot.Movies {
		s.movies.set(key, entry)
	}
	for key, entry := range snapshot.Series {
		s.series.set(key, entry)
	}
	s.loaded.Store(true)

	s.log.Info().
		Int("movies", len(snapshot.Movies)).
		Int("series", len(snapshot.Series)).
		Msg("Loaded metadata cache")

	return nil
}

func (s *service) SaveSnapshot(ctx context.Context) error {
	// saving before the first load would overwrite the persisted cache
	if err := s.LoadSnapshot(ctx); err != nil {
		return err
	}

	snapshot := &domain.CacheSnapshot{
		Movies: s.movies.copy(),
		Series: s.series.copy(),
	}

	if err := s.repo.StoreSnapshot(ctx, snapshot); err != nil {
		if ctx.Err() != nil {
			s.log.Debug().Msg("metadata cache save cancelled")
			return ctx.Err()
		}
		s.log.Warn().Err(err).Msg("Failed to save metadata cache")
		return nil
	}

	s.log.Debug().
		Int("movies", len(snapshot.Movies)).
		Int("series", len(snapshot.Series)).
		Msg("Saved metadata cache")

	return nil
}

func (s *service) Clear() {
	s.movies.clear()
	s.series.clear()
	s.log.Info().Msg("Metadata cache cleared")
}

func (s *service) Stats() domain.CacheStats {
	now := s.now().UTC()
	movies, expiredMovies := s.movies.count(now)
	series, expiredSeries := s.series.count(now)

	return domain.CacheStats{
		Movies:  movies,
		Series:  series,
		Expired: expiredMovies + expiredSeries,
	}
}

func withItem(e *zerolog.Event, class domain.ItemClass, title string, year *int) *zerolog.Event {
	e = e.Str("class", string(class)).Str("title", title)
	if year != nil {
		e = e.Int("year", *year)
	}
	return e
}
