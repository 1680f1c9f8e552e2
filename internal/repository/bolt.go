package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketMovies = []byte("movies")
	bucketSeries = []byte("series")
	bucketState  = []byte("state")

	keyCheckpoint = []byte("checkpoint")
)

// BoltRepository implements domain.SnapshotRepository and domain.CheckpointRepository
// on a single bbolt file. Cache entries are stored one key per title, the
// checkpoint as one JSON document.
type BoltRepository struct {
	log zerolog.Logger
	db  *bolt.DB
}

var _ domain.SnapshotRepository = (*BoltRepository)(nil)
var _ domain.CheckpointRepository = (*BoltRepository)(nil)

// NewBoltRepository opens (or creates) the bolt file at path
func NewBoltRepository(log zerolog.Logger, path string) (*BoltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt db %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMovies, bucketSeries, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create buckets")
	}

	return &BoltRepository{
		log: log.With().Str("module", "bolt").Logger(),
		db:  db,
	}, nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}

// GetSnapshot returns ErrNotFound when both cache buckets are empty
func (r *BoltRepository) GetSnapshot(ctx context.Context) (*domain.CacheSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := domain.NewCacheSnapshot()
	err := r.db.View(func(tx *bolt.Tx) error {
		if err := readEntries(tx.Bucket(bucketMovies), snapshot.Movies); err != nil {
			return errors.Wrap(err, "movies")
		}
		if err := readEntries(tx.Bucket(bucketSeries), snapshot.Series); err != nil {
			return errors.Wrap(err, "series")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata cache")
	}

	if len(snapshot.Movies) == 0 && len(snapshot.Series) == 0 {
		return nil, domain.ErrNotFound
	}

	return snapshot, nil
}

func readEntries(b *bolt.Bucket, dest map[string]domain.CacheEntry) error {
	return b.ForEach(func(k, v []byte) error {
		var entry domain.CacheEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return errors.Wrapf(err, "invalid entry %q", k)
		}
		dest[string(k)] = entry
		return nil
	})
}

// StoreSnapshot replaces both cache buckets in one transaction
func (r *BoltRepository) StoreSnapshot(ctx context.Context, snapshot *domain.CacheSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		if err := replaceEntries(tx, bucketMovies, snapshot.Movies); err != nil {
			return err
		}
		return replaceEntries(tx, bucketSeries, snapshot.Series)
	})
	if err != nil {
		return errors.Wrap(err, "failed to store metadata cache")
	}

	r.log.Debug().Int("movies", len(snapshot.Movies)).Int("series", len(snapshot.Series)).Msg("stored metadata cache")
	return nil
}

func replaceEntries(tx *bolt.Tx, name []byte, entries map[string]domain.CacheEntry) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
		return err
	}
	b, err := tx.CreateBucket(name)
	if err != nil {
		return err
	}

	for key, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
	}
	return nil
}

func (r *BoltRepository) GetCheckpoint(ctx context.Context) (*domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketState).Get(keyCheckpoint); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil, domain.ErrNotFound
	}

	cp := &domain.Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, errors.Wrap(err, "failed to decode sync state")
	}
	cp.Normalize()
	return cp, nil
}

func (r *BoltRepository) StoreCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(checkpoint)
	if err != nil {
		return errors.Wrap(err, "failed to encode sync state")
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put(keyCheckpoint, data)
	})
	if err != nil {
		return errors.Wrap(err, "failed to store sync state")
	}

	r.log.Debug().Msg("stored sync state")
	return nil
}

func (r *BoltRepository) DeleteCheckpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Delete(keyCheckpoint)
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete sync state")
	}

	r.log.Info().Msg("deleted sync state")
	return nil
}
