package domain

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by repositories when nothing has been persisted yet
var ErrNotFound = errors.New("not found")

// SnapshotRepository persists the lookup cache
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go
type SnapshotRepository interface {
	// GetSnapshot returns ErrNotFound if no snapshot exists
	GetSnapshot(ctx context.Context) (*CacheSnapshot, error)
	StoreSnapshot(ctx context.Context, snapshot *CacheSnapshot) error
}

// CheckpointRepository persists the sync checkpoint
type CheckpointRepository interface {
	// GetCheckpoint returns ErrNotFound if no checkpoint exists
	GetCheckpoint(ctx context.Context) (*Checkpoint, error)
	StoreCheckpoint(ctx context.Context, checkpoint *Checkpoint) error
	// DeleteCheckpoint removes the persisted checkpoint; absence is not an error
	DeleteCheckpoint(ctx context.Context) error
}
