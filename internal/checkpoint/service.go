// Package checkpoint owns the sync checkpoint: the last full and incremental
// sync times plus per-item change watermarks.
package checkpoint

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
	"golang.org/x/sync/semaphore"
)

type Service interface {
	// LoadState returns the authoritative checkpoint, reading it from the
	// repository on first use. Read failures yield a fresh checkpoint; only
	// cancellation is returned as an error.
	LoadState(ctx context.Context) (*domain.Checkpoint, error)
	// SaveState persists the checkpoint and makes it the authoritative one.
	SaveState(ctx context.Context, checkpoint *domain.Checkpoint) error
	// ResetState discards the checkpoint in memory and on disk.
	ResetState(ctx context.Context) error
	// Invalidate drops the in-memory checkpoint so the next load re-reads it.
	Invalidate()
}

type service struct {
	log  zerolog.Logger
	repo domain.CheckpointRepository

	// lock serialises every load, save and reset against the repository
	lock   *semaphore.Weighted
	cached atomic.Pointer[domain.Checkpoint]
}

func NewService(log zerolog.Logger, repo domain.CheckpointRepository) Service {
	return &service{
		log:  log.With().Str("module", "checkpoint").Logger(),
		repo: repo,
		lock: semaphore.NewWeighted(1),
	}
}

func (s *service) LoadState(ctx context.Context) (*domain.Checkpoint, error) {
	if cp := s.cached.Load(); cp != nil {
		return cp, nil
	}

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.lock.Release(1)

	if cp := s.cached.Load(); cp != nil {
		return cp, nil
	}

	cp, err := s.repo.GetCheckpoint(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Info().Msg("No sync state found, starting fresh")
		} else {
			s.log.Warn().Err(err).Msg("Error loading sync state, starting fresh")
		}
		cp = domain.NewCheckpoint()
		s.cached.Store(cp)
		return cp, nil
	}

	cp.Normalize()
	s.log.Info().
		Time("last_full_sync", cp.LastFullSync).
		Int("series", len(cp.SeriesLastModified)).
		Int("movies", len(cp.MoviesAdded)).
		Msg("Loaded sync state")

	s.cached.Store(cp)
	return cp, nil
}

func (s *service) SaveState(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if checkpoint == nil {
		return errors.New("cannot save nil sync state")
	}

	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	checkpoint.Normalize()
	if err := s.repo.StoreCheckpoint(ctx, checkpoint); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error().Err(err).Msg("Failed to save sync state")
		return errors.Wrap(err, "failed to save sync state")
	}
	s.cached.Store(checkpoint)

	s.log.Debug().
		Time("last_full_sync", checkpoint.LastFullSync).
		Int("series", len(checkpoint.SeriesLastModified)).
		Int("movies", len(checkpoint.MoviesAdded)).
		Msg("Saved sync state")

	return nil
}

func (s *service) ResetState(ctx context.Context) error {
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.lock.Release(1)

	s.cached.Store(domain.NewCheckpoint())

	if err := s.repo.DeleteCheckpoint(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(err, "failed to delete sync state")
	}

	s.log.Info().Msg("Sync state reset")
	return nil
}

func (s *service) Invalidate() {
	s.cached.Store(nil)
}

// NeedsFullSync reports whether the next sync must be a full one
func NeedsFullSync(checkpoint *domain.Checkpoint, intervalHours int) bool {
	return NeedsFullSyncAt(checkpoint, intervalHours, time.Now().UTC())
}

// NeedsFullSyncAt is NeedsFullSync evaluated at the given instant
func NeedsFullSyncAt(checkpoint *domain.Checkpoint, intervalHours int, now time.Time) bool {
	if checkpoint == nil || never(checkpoint.LastFullSync) {
		return true
	}
	return now.Sub(checkpoint.LastFullSync) >= time.Duration(intervalHours)*time.Hour
}

// never treats both Go's zero time and the unix epoch as "not yet"
func never(t time.Time) bool {
	return t.IsZero() || t.Equal(time.Unix(0, 0))
}
