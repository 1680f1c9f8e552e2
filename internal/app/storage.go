package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/database"
	"github.com/varoOP/metasync/internal/domain"
	"github.com/varoOP/metasync/internal/repository"
)

// storage bundles the repositories of one backend
type storage struct {
	backend     domain.StorageBackend
	closer      io.Closer
	snapshots   domain.SnapshotRepository
	checkpoints domain.CheckpointRepository
}

func openStorage(log zerolog.Logger, paths *domain.Paths, backend domain.StorageBackend) (*storage, error) {
	switch backend {
	case domain.StorageSQLite:
		db, err := database.NewDB(paths.DatabasePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return &storage{
			backend:     backend,
			closer:      db,
			snapshots:   database.NewCacheRepo(log, db),
			checkpoints: database.NewStateRepo(log, db),
		}, nil
	case domain.StorageBolt:
		boltRepo, err := repository.NewBoltRepository(log, paths.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt storage: %w", err)
		}
		return &storage{
			backend:     backend,
			closer:      boltRepo,
			snapshots:   boltRepo,
			checkpoints: boltRepo,
		}, nil
	case domain.StorageJSON, "":
		fileRepo := repository.NewFileRepository(log, paths)
		return &storage{
			backend:     domain.StorageJSON,
			snapshots:   fileRepo,
			checkpoints: fileRepo,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

// Close is safe to call more than once
func (s *storage) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// MigrationResult reports what MigrateStorage copied
type MigrationResult struct {
	From          domain.StorageBackend `json:"from" yaml:"from"`
	To            domain.StorageBackend `json:"to" yaml:"to"`
	CacheMovies   int                   `json:"cache_movies" yaml:"cache_movies"`
	CacheSeries   int                   `json:"cache_series" yaml:"cache_series"`
	StateMigrated bool                  `json:"state_migrated" yaml:"state_migrated"`
	SeriesTracked int                   `json:"series_tracked" yaml:"series_tracked"`
	MoviesTracked int                   `json:"movies_tracked" yaml:"movies_tracked"`
}

// MigrateStorage copies the persisted cache and checkpoint from one backend
// to another. Data missing in the source is skipped, the destination is
// overwritten otherwise.
func MigrateStorage(ctx context.Context, log zerolog.Logger, cfg *domain.Config, from, to domain.StorageBackend) (*MigrationResult, error) {
	if from == to {
		return nil, errors.Errorf("source and destination backend are both %s", from)
	}

	paths := domain.NewPaths(cfg.DataDir)

	src, err := openStorage(log, paths, from)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := openStorage(log, paths, to)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	result := &MigrationResult{From: src.backend, To: dst.backend}

	log.Info().
		Str("from", string(src.backend)).
		Str("to", string(dst.backend)).
		Str("data_dir", paths.RootDir).
		Msg("Starting storage migration")

	snapshot, err := src.snapshots.GetSnapshot(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info().Msg("No metadata cache to migrate")
	case err != nil:
		return nil, errors.Wrap(err, "failed to read metadata cache")
	default:
		snapshot.Normalize()
		if err := dst.snapshots.StoreSnapshot(ctx, snapshot); err != nil {
			return nil, errors.Wrap(err, "failed to write metadata cache")
		}
		result.CacheMovies = len(snapshot.Movies)
		result.CacheSeries = len(snapshot.Series)
	}

	cp, err := src.checkpoints.GetCheckpoint(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info().Msg("No sync state to migrate")
	case err != nil:
		return nil, errors.Wrap(err, "failed to read sync state")
	default:
		cp.Normalize()
		if err := dst.checkpoints.StoreCheckpoint(ctx, cp); err != nil {
			return nil, errors.Wrap(err, "failed to write sync state")
		}
		result.StateMigrated = true
		result.SeriesTracked = cp.Tracked(domain.ClassSeries)
		result.MoviesTracked = cp.Tracked(domain.ClassMovies)
	}

	log.Info().
		Int("movies", result.CacheMovies).
		Int("series", result.CacheSeries).
		Bool("state", result.StateMigrated).
		Msg("Storage migration complete")

	return result, nil
}
