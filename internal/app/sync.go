package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/varoOP/metasync/internal/catalog"
	"github.com/varoOP/metasync/internal/checkpoint"
	"github.com/varoOP/metasync/internal/domain"
	"golang.org/x/sync/errgroup"
)

// concurrent lookups while resolving a plan
const resolveWorkers = 4

// SyncRequest describes one sync planning run
type SyncRequest struct {
	SeriesPath string
	MoviesPath string
	// Resolve looks up provider ids for every planned item
	Resolve bool
	// Commit records the new watermarks and sync times
	Commit bool
	// Full forces a full sync regardless of the interval
	Full bool
}

// PlannedItem is a catalog item selected for processing
type PlannedItem struct {
	Class      domain.ItemClass `json:"class" yaml:"class"`
	ID         int              `json:"id" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	Year       *int             `json:"year,omitempty" yaml:"year,omitempty"`
	ProviderID *int             `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	Folder     string           `json:"folder,omitempty" yaml:"folder,omitempty"`
}

type SyncPlan struct {
	Report domain.SyncReport `json:"report" yaml:"report"`
	Items  []PlannedItem     `json:"items" yaml:"items"`
}

// PlanSync decides between a full and an incremental sync, selects the
// catalog items to process and optionally resolves and commits them
func (a *App) PlanSync(ctx context.Context, req SyncRequest) (plan *SyncPlan, err error) {
	if req.Commit {
		defer func() {
			if err != nil && ctx.Err() == nil {
				if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
					a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
				}
			}
		}()
	}

	cp, err := a.checkpointService.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	full := req.Full || checkpoint.NeedsFullSyncAt(cp, a.config.FullSyncIntervalHours, a.now())
	work := cp.Clone()

	plan = &SyncPlan{Report: domain.SyncReport{Full: full}}

	sources := []struct {
		class  domain.ItemClass
		path   string
		read   func(io.Reader) ([]catalog.Item, error)
		report *domain.ClassSyncReport
	}{
		{domain.ClassSeries, req.SeriesPath, catalog.ReadSeries, &plan.Report.Series},
		{domain.ClassMovies, req.MoviesPath, catalog.ReadMovies, &plan.Report.Movies},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}

		items, err := readCatalog(src.path, src.read)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s catalog: %w", src.class, err)
		}

		dupes, items := catalog.Dedupe(items)
		planned := catalog.Plan(work, src.class, items, full)
		src.report.Total = len(items)
		src.report.Duplicates = dupes
		src.report.Planned = len(planned)

		entries := make([]PlannedItem, len(planned))
		for i, item := range planned {
			entries[i] = PlannedItem{Class: src.class, ID: item.ID, Name: item.Name, Year: item.Year}
		}

		if req.Resolve {
			if err := a.resolveAll(ctx, entries); err != nil {
				return nil, err
			}
			for _, e := range entries {
				if e.ProviderID != nil {
					src.report.Resolved++
				}
			}
		}

		if req.Commit {
			catalog.Commit(work, src.class, planned)
		}

		a.log.Info().
			Str("class", string(src.class)).
			Bool("full", full).
			Int("total", src.report.Total).
			Int("dupe_count", src.report.Duplicates).
			Int("planned", src.report.Planned).
			Int("resolved", src.report.Resolved).
			Msg("planned catalog sync")

		plan.Items = append(plan.Items, entries...)
	}

	if req.Resolve {
		if err := a.lookupService.SaveSnapshot(ctx); err != nil {
			return nil, err
		}
	}

	if !req.Commit {
		return plan, nil
	}

	now := a.now().UTC()
	if full {
		work.LastFullSync = now
	}
	work.LastIncrementalSync = now

	if err := a.checkpointService.SaveState(ctx, work); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}
	plan.Report.Committed = true

	if notifyErr := a.notificationService.SendSuccess(ctx, plan.Report); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return plan, nil
}

func (a *App) resolveAll(ctx context.Context, entries []PlannedItem) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveWorkers)

	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			id, err := a.resolve(ctx, e.Class, e.Name, e.Year)
			if err != nil {
				return err
			}
			e.ProviderID = id
			e.Folder = folderName(e.Class, e.Name, e.Year, id)
			return nil
		})
	}

	return g.Wait()
}

func readCatalog(path string, read func(io.Reader) ([]catalog.Item, error)) ([]catalog.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return read(f)
}
