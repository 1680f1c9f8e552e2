package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/checkpoint"
	"github.com/varoOP/metasync/internal/domain"
	"github.com/varoOP/metasync/internal/lookup"
	"github.com/varoOP/metasync/internal/notification"
	"github.com/varoOP/metasync/internal/tmdb"
)

// App represents the main application with all dependencies initialized
type App struct {
	log    zerolog.Logger
	config *domain.Config
	paths  *domain.Paths
	store  *storage

	lookupService       lookup.Service
	checkpointService   checkpoint.Service
	notificationService domain.NotificationService

	now func() time.Time
}

// NewApp wires the configured storage backend, the TMDB provider and the services
func NewApp(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	return newApp(log, cfg, tmdb.NewService(log, cfg))
}

func newApp(log zerolog.Logger, cfg *domain.Config, provider domain.SearchProvider) (*App, error) {
	a := &App{
		log:    log,
		config: cfg,
		paths:  domain.NewPaths(cfg.DataDir),
		now:    time.Now,
	}

	store, err := openStorage(log, a.paths, cfg.StorageBackend)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.lookupService = lookup.NewService(log, store.snapshots, provider, cfg.Language)
	a.checkpointService = checkpoint.NewService(log, store.checkpoints)
	a.notificationService = notification.NewService(log, cfg.DiscordWebhookURL)

	a.log.Debug().
		Str("data_dir", a.paths.RootDir).
		Str("storage", string(cfg.StorageBackend)).
		Msg("application initialized")

	return a, nil
}

// Close releases the database handle when the SQLite backend is in use
func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) Paths() *domain.Paths {
	return a.paths
}

// LookupResult is the outcome of a single title lookup
type LookupResult struct {
	Class      domain.ItemClass `json:"class" yaml:"class"`
	Title      string           `json:"title" yaml:"title"`
	Year       *int             `json:"year,omitempty" yaml:"year,omitempty"`
	ProviderID *int             `json:"provider_id" yaml:"provider_id"`
	Folder     string           `json:"folder" yaml:"folder"`
}

// Lookup resolves a single title and persists the cache afterwards
func (a *App) Lookup(ctx context.Context, class domain.ItemClass, title string, year *int) (*LookupResult, error) {
	id, err := a.resolve(ctx, class, title, year)
	if err != nil {
		return nil, err
	}

	if err := a.lookupService.SaveSnapshot(ctx); err != nil {
		return nil, err
	}

	return &LookupResult{
		Class:      class,
		Title:      title,
		Year:       year,
		ProviderID: id,
		Folder:     folderName(class, title, year, id),
	}, nil
}

func (a *App) resolve(ctx context.Context, class domain.ItemClass, title string, year *int) (*int, error) {
	switch class {
	case domain.ClassMovies:
		return a.lookupService.LookupMovie(ctx, title, year)
	case domain.ClassSeries:
		return a.lookupService.LookupSeries(ctx, title, year)
	default:
		return nil, fmt.Errorf("unsupported item class: %s", class)
	}
}

func folderName(class domain.ItemClass, title string, year, id *int) string {
	if class == domain.ClassSeries {
		return domain.SeriesFolderName(title, year, id)
	}
	return domain.MovieFolderName(title, year, id)
}

// CacheStats loads the persisted cache and reports its counts
func (a *App) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	if err := a.lookupService.LoadSnapshot(ctx); err != nil {
		return domain.CacheStats{}, err
	}
	return a.lookupService.Stats(), nil
}

// ClearCache empties the cache and persists the empty snapshot
func (a *App) ClearCache(ctx context.Context) error {
	if err := a.lookupService.LoadSnapshot(ctx); err != nil {
		return err
	}
	a.lookupService.Clear()
	return a.lookupService.SaveSnapshot(ctx)
}

// StateReport is the printable view of the sync checkpoint
type StateReport struct {
	LastFullSync          *time.Time `json:"last_full_sync" yaml:"last_full_sync"`
	LastIncrementalSync   *time.Time `json:"last_incremental_sync" yaml:"last_incremental_sync"`
	SeriesTracked         int        `json:"series_tracked" yaml:"series_tracked"`
	MoviesTracked         int        `json:"movies_tracked" yaml:"movies_tracked"`
	FullSyncIntervalHours int        `json:"full_sync_interval_hours" yaml:"full_sync_interval_hours"`
	NeedsFullSync         bool       `json:"needs_full_sync" yaml:"needs_full_sync"`
}

func (a *App) State(ctx context.Context) (*StateReport, error) {
	cp, err := a.checkpointService.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	return &StateReport{
		LastFullSync:          timeOrNil(cp.LastFullSync),
		LastIncrementalSync:   timeOrNil(cp.LastIncrementalSync),
		SeriesTracked:         cp.Tracked(domain.ClassSeries),
		MoviesTracked:         cp.Tracked(domain.ClassMovies),
		FullSyncIntervalHours: a.config.FullSyncIntervalHours,
		NeedsFullSync:         checkpoint.NeedsFullSyncAt(cp, a.config.FullSyncIntervalHours, a.now()),
	}, nil
}

func (a *App) ResetState(ctx context.Context) error {
	return a.checkpointService.ResetState(ctx)
}

func (a *App) NeedsFullSync(ctx context.Context) (bool, error) {
	cp, err := a.checkpointService.LoadState(ctx)
	if err != nil {
		return false, err
	}
	return checkpoint.NeedsFullSyncAt(cp, a.config.FullSyncIntervalHours, a.now()), nil
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
