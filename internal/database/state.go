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

// StateRepo implements domain.CheckpointRepository
type StateRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewStateRepo creates a new sync state repository
func NewStateRepo(log zerolog.Logger, db *DB) *StateRepo {
	return &StateRepo{
		log: log.With().Str("repo", "state").Logger(),
		db:  db,
	}
}

var _ domain.CheckpointRepository = (*StateRepo)(nil)

// GetCheckpoint loads the checkpoint, or domain.ErrNotFound if none was stored
func (r *StateRepo) GetCheckpoint(ctx context.Context) (*domain.Checkpoint, error) {
	query, args, err := r.db.squirrel.
		Select("last_full_sync", "last_incremental_sync").
		From("sync_state").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetCheckpoint")

	var full, incremental string
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&full, &incremental); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	cp := domain.NewCheckpoint()
	if cp.LastFullSync, err = parseTime(full); err != nil {
		return nil, errors.Wrap(err, "invalid last_full_sync")
	}
	if cp.LastIncrementalSync, err = parseTime(incremental); err != nil {
		return nil, errors.Wrap(err, "invalid last_incremental_sync")
	}

	query, args, err = r.db.squirrel.
		Select("class", "item_id", "ts").
		From("sync_watermarks").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			class, ts string
			itemID    int
		)
		if err := rows.Scan(&class, &itemID, &ts); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		t, err := parseTime(ts)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid watermark for item %d", itemID)
		}
		if c := domain.ItemClass(class); c.Valid() {
			cp.Record(c, itemID, t)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return cp, nil
}

// StoreCheckpoint replaces the stored checkpoint in a single transaction
func (r *StateRepo) StoreCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.exec(ctx, r.db.squirrel.
		Replace("sync_state").
		Columns("id", "last_full_sync", "last_incremental_sync").
		Values(1, formatTime(checkpoint.LastFullSync), formatTime(checkpoint.LastIncrementalSync)))
	if err != nil {
		return errors.Wrap(err, "failed to store sync state")
	}

	if err := tx.exec(ctx, r.db.squirrel.Delete("sync_watermarks")); err != nil {
		return errors.Wrap(err, "failed to clear watermarks")
	}

	watermarks := map[domain.ItemClass]map[int]time.Time{
		domain.ClassSeries: checkpoint.SeriesLastModified,
		domain.ClassMovies: checkpoint.MoviesAdded,
	}
	for class, items := range watermarks {
		insert := r.newInsert()
		pending := 0

		for id, ts := range items {
			insert = insert.Values(string(class), id, formatTime(ts))
			pending++

			if pending == insertBatchSize {
				if err := tx.exec(ctx, insert); err != nil {
					return errors.Wrapf(err, "failed to store %s watermarks", class)
				}
				insert = r.newInsert()
				pending = 0
			}
		}

		if pending > 0 {
			if err := tx.exec(ctx, insert); err != nil {
				return errors.Wrapf(err, "failed to store %s watermarks", class)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit sync state")
	}
	return nil
}

// DeleteCheckpoint removes the stored checkpoint and all watermarks
func (r *StateRepo) DeleteCheckpoint(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.exec(ctx, r.db.squirrel.Delete("sync_state")); err != nil {
		return errors.Wrap(err, "failed to delete sync state")
	}
	if err := tx.exec(ctx, r.db.squirrel.Delete("sync_watermarks")); err != nil {
		return errors.Wrap(err, "failed to delete watermarks")
	}

	return tx.Commit()
}

func (r *StateRepo) newInsert() sq.InsertBuilder {
	return r.db.squirrel.
		Insert("sync_watermarks").
		Columns("class", "item_id", "ts")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
