package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/varoOP/metasync/internal/domain"
)

// FileRepository implements domain.SnapshotRepository and domain.CheckpointRepository using JSON files
type FileRepository struct {
	log       zerolog.Logger
	cachePath string
	statePath string
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger, paths *domain.Paths) *FileRepository {
	return &FileRepository{
		log:       log.With().Str("module", "repository").Logger(),
		cachePath: paths.CachePath,
		statePath: paths.StatePath,
	}
}

// Ensure FileRepository implements both interfaces
var _ domain.SnapshotRepository = (*FileRepository)(nil)
var _ domain.CheckpointRepository = (*FileRepository)(nil)

// GetSnapshot reads the lookup cache document
func (r *FileRepository) GetSnapshot(ctx context.Context) (*domain.CacheSnapshot, error) {
	s := &domain.CacheSnapshot{}
	if err := r.read(ctx, r.cachePath, s); err != nil {
		return nil, err
	}
	s.Normalize()
	return s, nil
}

// StoreSnapshot writes the lookup cache document
func (r *FileRepository) StoreSnapshot(ctx context.Context, snapshot *domain.CacheSnapshot) error {
	if err := r.write(ctx, r.cachePath, snapshot); err != nil {
		return err
	}
	r.log.Debug().Str("path", r.cachePath).Int("movies", len(snapshot.Movies)).Int("series", len(snapshot.Series)).Msg("stored metadata cache")
	return nil
}

// GetCheckpoint reads the sync state document
func (r *FileRepository) GetCheckpoint(ctx context.Context) (*domain.Checkpoint, error) {
	cp := &domain.Checkpoint{}
	if err := r.read(ctx, r.statePath, cp); err != nil {
		return nil, err
	}
	cp.Normalize()
	return cp, nil
}

// StoreCheckpoint writes the sync state document
func (r *FileRepository) StoreCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := r.write(ctx, r.statePath, checkpoint); err != nil {
		return err
	}
	r.log.Debug().Str("path", r.statePath).Msg("stored sync state")
	return nil
}

// DeleteCheckpoint removes the sync state document if present
func (r *FileRepository) DeleteCheckpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(r.statePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", r.statePath, err)
	}

	r.log.Info().Str("path", r.statePath).Msg("deleted sync state")
	return nil
}

func (r *FileRepository) read(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Check if path exists and is a file (not a directory)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s: %w", path, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
	}

	return nil
}

// write replaces path via a temporary file and rename so readers never see
// a partially written document
func (r *FileRepository) write(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, j, 0644); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", tmp, err)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s to %s: %w", tmp, path, err)
	}

	return nil
}
