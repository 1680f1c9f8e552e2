package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
)

// rows per INSERT, kept well under SQLite's bound parameter limit
const insertBatchSize = 500

// CacheRepo implements domain.SnapshotRepository
type CacheRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewCacheRepo creates a new cache repository
func NewCacheRepo(log zerolog.Logger, db *DB) *CacheRepo {
	return &CacheRepo{
		log: log.With().Str("repo", "cache").Logger(),
		db:  db,
	}
}

var _ domain.SnapshotRepository = (*CacheRepo)(nil)

// GetSnapshot returns every cached lookup, or domain.ErrNotFound if the table is empty
func (r *CacheRepo) GetSnapshot(ctx context.Context) (*domain.CacheSnapshot, error) {
	queryBuilder := r.db.squirrel.
		Select("class", "cache_key", "provider_id", "lookup_date").
		From("lookup_cache")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetSnapshot")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	snapshot := domain.NewCacheSnapshot()
	count := 0
	for rows.Next() {
		var (
			class, key, lookupDate string
			providerID             sql.NullInt64
		)
		if err := rows.Scan(&class, &key, &providerID, &lookupDate); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}

		ts, err := time.Parse(time.RFC3339Nano, lookupDate)
		if err != nil {
			r.log.Warn().Err(err).Str("cache_key", key).Msg("skipping cache row with invalid lookup date")
			continue
		}

		entry := domain.CacheEntry{LookupDate: ts}
		if providerID.Valid {
			id := int(providerID.Int64)
			entry.ProviderID = &id
		}

		c := domain.ItemClass(class)
		if !c.Valid() {
			continue
		}
		snapshot.Entries(c)[key] = entry
		count++
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	if count == 0 {
		return nil, domain.ErrNotFound
	}

	return snapshot, nil
}

// StoreSnapshot replaces the cached lookups in a single transaction
func (r *CacheRepo) StoreSnapshot(ctx context.Context, snapshot *domain.CacheSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.exec(ctx, r.db.squirrel.Delete("lookup_cache")); err != nil {
		return errors.Wrap(err, "failed to clear lookup cache")
	}

	for _, class := range []domain.ItemClass{domain.ClassMovies, domain.ClassSeries} {
		insert := r.newInsert()
		pending := 0

		for key, entry := range snapshot.Entries(class) {
			var providerID any
			if entry.ProviderID != nil {
				providerID = *entry.ProviderID
			}
			insert = insert.Values(string(class), key, providerID, entry.LookupDate.UTC().Format(time.RFC3339Nano))
			pending++

			if pending == insertBatchSize {
				if err := tx.exec(ctx, insert); err != nil {
					return errors.Wrapf(err, "failed to store %s cache", class)
				}
				insert = r.newInsert()
				pending = 0
			}
		}

		if pending > 0 {
			if err := tx.exec(ctx, insert); err != nil {
				return errors.Wrapf(err, "failed to store %s cache", class)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit lookup cache")
	}

	r.log.Debug().Int("movies", len(snapshot.Movies)).Int("series", len(snapshot.Series)).Msg("stored metadata cache")
	return nil
}

func (r *CacheRepo) newInsert() sq.InsertBuilder {
	return r.db.squirrel.
		Insert("lookup_cache").
		Columns("class", "cache_key", "provider_id", "lookup_date")
}
